package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Entry maps a local, UI-facing identifier to an upstream dataset folder
type Entry struct {
	// LocalID is used as the output filename stem
	LocalID string `yaml:"local" json:"local"`
	// RemoteID is the folder name in the upstream dataset
	RemoteID string `yaml:"remote" json:"remote"`
}

// Table is an ordered, immutable mapping table
type Table struct {
	entries []Entry
	index   map[string]int
}

var (
	ErrEmptyLocalID   = errors.New("local id is empty")
	ErrEmptyRemoteID  = errors.New("remote id is empty")
	ErrUnsafeLocalID  = errors.New("local id is not a safe file name")
	ErrDuplicateLocal = errors.New("duplicate local id")
	ErrUnknownLocalID = errors.New("unknown local id")
)

// New builds a table, keeping the given order. Local ids must be unique and
// usable as file name stems; remote ids may repeat.
func New(entries ...Entry) (*Table, error) {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}

	for i, e := range entries {
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if _, exists := t.index[e.LocalID]; exists {
			return nil, fmt.Errorf("entry %d: %w: %s", i, ErrDuplicateLocal, e.LocalID)
		}
		t.index[e.LocalID] = len(t.entries)
		t.entries = append(t.entries, e)
	}

	return t, nil
}

// MustNew is like New but panics on an invalid table
func MustNew(entries ...Entry) *Table {
	t, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return t
}

func validateEntry(e Entry) error {
	if e.LocalID == "" {
		return ErrEmptyLocalID
	}
	if e.RemoteID == "" {
		return fmt.Errorf("%w for %s", ErrEmptyRemoteID, e.LocalID)
	}
	if e.LocalID == "." || e.LocalID == ".." || strings.ContainsAny(e.LocalID, `/\`) || strings.ContainsRune(e.LocalID, 0) {
		return fmt.Errorf("%w: %q", ErrUnsafeLocalID, e.LocalID)
	}
	return nil
}

// Entries returns a copy of the entries in table order
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries
func (t *Table) Len() int {
	return len(t.entries)
}

// Lookup returns the entry for a local id
func (t *Table) Lookup(localID string) (Entry, bool) {
	i, ok := t.index[localID]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Subset returns a table restricted to the given local ids, in table order
func (t *Table) Subset(localIDs ...string) (*Table, error) {
	wanted := make(map[string]bool, len(localIDs))
	for _, id := range localIDs {
		if _, ok := t.index[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLocalID, id)
		}
		wanted[id] = true
	}

	var picked []Entry
	for _, e := range t.entries {
		if wanted[e.LocalID] {
			picked = append(picked, e)
		}
	}
	return New(picked...)
}
