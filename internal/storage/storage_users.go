package storage

import (
	"encoding/json"
	"fmt"
	"time"
)

const UsersTable = "users"

// UserAccount is one row of the users table.
type UserAccount struct {
	Name            string    `json:"name"`
	PermissionGroup int       `json:"permission_group"`
	IsMod           bool      `json:"is_mod"`
	IsFollowing     bool      `json:"is_following"`
	LastSeen        time.Time `json:"last_seen"`
	Points          int       `json:"points"`
	WatchTime       int       `json:"watch_time"`
	Rank            int       `json:"rank"`
}

// EnsureUser creates the user row if it does not exist yet. New users land in
// the lowest permission group.
func (s *Storage) EnsureUser(name string) error {
	_, found, err := s.GetRow(UsersTable, Where{"name": name})
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	return s.Insert(UsersTable, Row{
		"name":             name,
		"permission_group": 10,
		"is_mod":           false,
		"is_following":     false,
		"last_seen":        time.Now().Format(time.RFC3339),
		"points":           0,
		"watch_time":       0,
		"rank":             0,
	})
}

// GetUser returns the user account, reporting false when absent.
func (s *Storage) GetUser(name string) (*UserAccount, bool, error) {
	row, found, err := s.GetRow(UsersTable, Where{"name": name})
	if err != nil || !found {
		return nil, false, err
	}

	jsonData, err := json.Marshal(row)
	if err != nil {
		return nil, false, fmt.Errorf("error marshalling user row: %w", err)
	}
	var account UserAccount
	if err := json.Unmarshal(jsonData, &account); err != nil {
		return nil, false, fmt.Errorf("error unmarshalling user row: %w", err)
	}
	return &account, true, nil
}

// GetUserPoints returns the current balance, zero for unknown users.
func (s *Storage) GetUserPoints(name string) (int, error) {
	v, _, err := s.Get(UsersTable, "points", Where{"name": name})
	if err != nil {
		return 0, err
	}
	return ToInt(v), nil
}

// TouchSeen updates last-seen for a user, creating the row if needed.
func (s *Storage) TouchSeen(name string, at time.Time) error {
	if err := s.EnsureUser(name); err != nil {
		return err
	}
	return s.Set(UsersTable, "last_seen", at.Format(time.RFC3339), Where{"name": name})
}

// SetUserGroup sets the permission group for a user.
func (s *Storage) SetUserGroup(name string, group int) error {
	if err := s.EnsureUser(name); err != nil {
		return err
	}
	return s.Set(UsersTable, "permission_group", group, Where{"name": name})
}
