// Package storage provides a table-oriented view over the datastore: named
// tables of rows with equality lookups and atomic per-row increments. One
// mutex serializes all mutations, so concurrent dispatches never lose an
// increment to a read-modify-write race.
package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"chatwarden/datastore"

	"github.com/rs/zerolog"
)

const tablePrefix = "table:"

// Row is a single table row. Values survive a JSON round trip, so numbers
// read back as float64; use ToInt for integer columns.
type Row map[string]any

// Where is an equality filter over row columns.
type Where map[string]any

type Storage struct {
	ds *datastore.DataStore
	mu sync.Mutex // serializes mutations; readers are safe because stored rows are never mutated in place
}

func New(filePath string, logger zerolog.Logger) (*Storage, error) {
	cfg := datastore.DefaultConfig(filePath)
	cfg.Logger = logger
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// AddTable ensures the named table exists. Existing tables are left as-is.
func (s *Storage) AddTable(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ds.Get(tablePrefix + name); exists {
		return nil
	}
	s.ds.Add(tablePrefix+name, []Row{})
	return nil
}

// Tables returns the names of all existing tables.
func (s *Storage) Tables() []string {
	var names []string
	for _, k := range s.ds.Keys() {
		if strings.HasPrefix(k, tablePrefix) {
			names = append(names, strings.TrimPrefix(k, tablePrefix))
		}
	}
	return names
}

// GetRow returns the first row matching the filter.
func (s *Storage) GetRow(table string, where Where) (Row, bool, error) {
	rows, err := s.getTable(table)
	if err != nil {
		return nil, false, err
	}
	for _, row := range rows {
		if matches(row, where) {
			return row, true, nil
		}
	}
	return nil, false, nil
}

// Get returns a single column of the first row matching the filter.
func (s *Storage) Get(table, column string, where Where) (any, bool, error) {
	row, found, err := s.GetRow(table, where)
	if err != nil || !found {
		return nil, false, err
	}
	v, ok := row[column]
	return v, ok, nil
}

// GetAll returns every row of the table.
func (s *Storage) GetAll(table string) ([]Row, error) {
	return s.getTable(table)
}

// Set updates the column on all rows matching the filter. When no row
// matches, a new row is created from the filter columns plus the value.
func (s *Storage) Set(table, column string, value any, where Where) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.getTable(table)
	if err != nil {
		return err
	}

	updated := false
	for _, row := range rows {
		if matches(row, where) {
			row[column] = value
			updated = true
		}
	}
	if !updated {
		row := Row{}
		for k, v := range where {
			row[k] = v
		}
		row[column] = value
		rows = append(rows, row)
	}

	s.ds.Add(tablePrefix+table, rows)
	return nil
}

// Insert appends a row without matching. Most callers want Set.
func (s *Storage) Insert(table string, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.getTable(table)
	if err != nil {
		return err
	}
	s.ds.Add(tablePrefix+table, append(rows, row))
	return nil
}

// DeleteRows removes all rows matching the filter.
func (s *Storage) DeleteRows(table string, where Where) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.getTable(table)
	if err != nil {
		return err
	}

	kept := rows[:0]
	for _, row := range rows {
		if !matches(row, where) {
			kept = append(kept, row)
		}
	}
	s.ds.Add(tablePrefix+table, kept)
	return nil
}

// Incr atomically adds delta to an integer column on all rows matching the
// filter. Values are coerced to integers; the result may go negative.
func (s *Storage) Incr(table, column string, delta int, where Where) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.getTable(table)
	if err != nil {
		return err
	}

	found := false
	for _, row := range rows {
		if matches(row, where) {
			row[column] = ToInt(row[column]) + delta
			found = true
		}
	}
	if !found {
		return fmt.Errorf("no row in table '%s' matches %v", table, where)
	}

	s.ds.Add(tablePrefix+table, rows)
	return nil
}

// Decr atomically subtracts delta from an integer column.
func (s *Storage) Decr(table, column string, delta int, where Where) error {
	return s.Incr(table, column, -delta, where)
}

// getTable loads rows through a JSON round trip, the same way the persisted
// form comes back after a restart. The round trip always deep-copies: callers
// get private rows, and mutators write their copy back via ds.Add, so the
// rows held by the datastore are never mutated in place. Dispatches read and
// write concurrently; handing out the stored maps would be a fatal map race.
func (s *Storage) getTable(name string) ([]Row, error) {
	data, exists := s.ds.Get(tablePrefix + name)
	if !exists {
		return nil, fmt.Errorf("table '%s' does not exist", name)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling table '%s': %w", name, err)
	}
	var rows []Row
	if err := json.Unmarshal(jsonData, &rows); err != nil {
		return nil, fmt.Errorf("error unmarshalling table '%s': %w", name, err)
	}
	return rows, nil
}

func matches(row Row, where Where) bool {
	for k, want := range where {
		if !equalValues(row[k], want) {
			return false
		}
	}
	return true
}

// equalValues compares loosely: numeric values compare as float64 so int
// filters match float64 columns read back from JSON.
func equalValues(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ToInt coerces a column value to int, defaulting to zero.
func ToInt(v any) int {
	if f, ok := toFloat(v); ok {
		return int(f)
	}
	return 0
}

// ToBool coerces a column value to bool, defaulting to false.
func ToBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// ToString coerces a column value to string, defaulting to empty.
func ToString(v any) string {
	s, _ := v.(string)
	return s
}
