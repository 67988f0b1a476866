package storage

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.json"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAddTableIsIdempotent(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.AddTable("users"))
	require.NoError(t, s.Insert("users", Row{"name": "alice"}))
	require.NoError(t, s.AddTable("users"))

	rows, err := s.GetAll("users")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSetUpsertsWhenNoRowMatches(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.AddTable("settings"))

	require.NoError(t, s.Set("settings", "value", 5, Where{"key": "payout.live.amount"}))
	v, found, err := s.Get("settings", "value", Where{"key": "payout.live.amount"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 5, ToInt(v))

	require.NoError(t, s.Set("settings", "value", 9, Where{"key": "payout.live.amount"}))
	rows, err := s.GetAll("settings")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 9, ToInt(rows[0]["value"]))
}

func TestIncrFailsWithoutMatchingRow(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.AddTable("users"))
	assert.Error(t, s.Incr("users", "points", 5, Where{"name": "ghost"}))
}

func TestConcurrentIncrLosesNothing(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.AddTable("users"))
	require.NoError(t, s.EnsureUser("alice"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Incr(UsersTable, "points", 2, Where{"name": "alice"})
		}()
	}
	wg.Wait()

	points, err := s.GetUserPoints("alice")
	require.NoError(t, err)
	assert.Equal(t, 100, points)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.AddTable(UsersTable))
	require.NoError(t, s.EnsureUser("alice"))

	// Affordability reads race debits on the same row during concurrent
	// dispatches; rows handed to readers must never alias rows a writer is
	// mutating, or the runtime kills the process with a map race.
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Incr(UsersTable, "points", 1, Where{"name": "alice"})
		}()
		go func() {
			defer wg.Done()
			_, _, _ = s.GetRow(UsersTable, Where{"name": "alice"})
			_, _ = s.GetUserPoints("alice")
		}()
	}
	wg.Wait()

	points, err := s.GetUserPoints("alice")
	require.NoError(t, err)
	assert.Equal(t, 200, points)
}

func TestReadRowsAreCopies(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.AddTable(UsersTable))
	require.NoError(t, s.EnsureUser("alice"))

	row, found, err := s.GetRow(UsersTable, Where{"name": "alice"})
	require.NoError(t, err)
	require.True(t, found)

	// Mutating a returned row must not leak into the stored table.
	row["points"] = 9999
	points, err := s.GetUserPoints("alice")
	require.NoError(t, err)
	assert.Equal(t, 0, points)
}

func TestDecrMayGoNegative(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.AddTable("users"))
	require.NoError(t, s.EnsureUser("alice"))

	require.NoError(t, s.Decr(UsersTable, "points", 30, Where{"name": "alice"}))
	points, err := s.GetUserPoints("alice")
	require.NoError(t, err)
	assert.Equal(t, -30, points)
}

func TestNumericWhereMatchesPersistedFloats(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.AddTable("group_bonuses"))
	require.NoError(t, s.Insert("group_bonuses", Row{"group": float64(5), "bonus": float64(3)}))

	v, found, err := s.Get("group_bonuses", "bonus", Where{"group": 5})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3, ToInt(v))
}

func TestEnsureUserDefaults(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.AddTable(UsersTable))

	require.NoError(t, s.EnsureUser("newbie"))
	require.NoError(t, s.EnsureUser("newbie"))

	account, found, err := s.GetUser("newbie")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 10, account.PermissionGroup)
	assert.Equal(t, 0, account.Points)

	rows, err := s.GetAll(UsersTable)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestGetUserAbsent(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.AddTable(UsersTable))

	account, found, err := s.GetUser("ghost")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, account)

	points, err := s.GetUserPoints("ghost")
	require.NoError(t, err)
	assert.Equal(t, 0, points)
}

func TestTouchSeenCreatesAndUpdates(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.AddTable(UsersTable))

	at := time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)
	require.NoError(t, s.TouchSeen("alice", at))

	account, found, err := s.GetUser("alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, account.LastSeen.Equal(at))
}

func TestCustomCommandRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.AddTable(CommandsTable))

	require.NoError(t, s.SaveCustomCommand("discord", "Join us at {args}"))
	require.NoError(t, s.SaveCustomCommand("greet", "Hello $user"))
	require.NoError(t, s.SaveCustomCommand("discord", "Join here: {args}"))

	tpl, found, err := s.GetCustomCommand("discord")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Join here: {args}", tpl)

	names, err := s.ListCustomCommands()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"discord", "greet"}, names)

	require.NoError(t, s.DeleteCustomCommand("discord"))
	_, found, err = s.GetCustomCommand("discord")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSettingsHelpers(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.AddTable(SettingsTable))

	assert.Equal(t, 15, s.SettingInt("payout.live.amount", 15))
	assert.True(t, s.SettingBool("economy.enabled", true))
	assert.Equal(t, "points", s.SettingString("points.name.plural", "points"))

	require.NoError(t, s.SetSetting("payout.live.amount", 3))
	require.NoError(t, s.SetSetting("economy.enabled", false))
	require.NoError(t, s.SetSetting("points.name.plural", "coins"))

	assert.Equal(t, 3, s.SettingInt("payout.live.amount", 15))
	assert.False(t, s.SettingBool("economy.enabled", true))
	assert.Equal(t, "coins", s.SettingString("points.name.plural", "points"))
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.json")

	s, err := New(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.AddTable(UsersTable))
	require.NoError(t, s.EnsureUser("alice"))
	require.NoError(t, s.Incr(UsersTable, "points", 42, Where{"name": "alice"}))
	require.NoError(t, s.Close())

	reopened, err := New(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	points, err := reopened.GetUserPoints("alice")
	require.NoError(t, err)
	assert.Equal(t, 42, points)
}
