package name

import "sync"

// ID identifies a Name inside a Table, collapsing the Resolver's and
// Flattener's hash-map keys into an interned integer so comparisons and
// lookups avoid repeated string hashing.
type ID uint32

// NoID marks the absence of a Name reference.
const NoID ID = 0

// IsValid reports whether id refers to an interned Name.
func (id ID) IsValid() bool { return id != NoID }

// Table interns Names behind a compact ID. Safe for concurrent use so the
// driver's parallel per-module phases can intern without external locking.
type Table struct {
	mu    sync.RWMutex
	byID  []Name
	index map[string]ID // String() -> ID
}

// NewTable creates a Table with NoID pre-bound to the empty Name.
func NewTable() *Table {
	return &Table{
		byID:  []Name{{}},
		index: map[string]ID{"": 0},
	}
}

// Intern returns the ID for n, assigning a new one if n hasn't been seen.
func (t *Table) Intern(n Name) ID {
	key := n.String()

	t.mu.RLock()
	if id, ok := t.index[key]; ok {
		t.mu.RUnlock()
		return id
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.index[key]; ok {
		return id
	}
	id := ID(len(t.byID))
	t.byID = append(t.byID, n.Clone())
	t.index[key] = id
	return id
}

// Lookup returns the Name for id, or ok=false if id is unknown.
func (t *Table) Lookup(id ID) (Name, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(t.byID) {
		return Name{}, false
	}
	return t.byID[id], true
}

// MustLookup returns the Name for id, panicking if id is unknown.
func (t *Table) MustLookup(id ID) Name {
	n, ok := t.Lookup(id)
	if !ok {
		panic("name: invalid ID")
	}
	return n
}

// Len returns the number of interned Names, including NoID's empty Name.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}
