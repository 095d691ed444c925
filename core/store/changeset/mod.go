// Package changeset implements the set of pending mutations recorded by
// one open transaction.
//
// A change-set maps keys to records. A record is either a new value, or a
// tombstone marking a deletion. The tombstone is kept as an explicit
// record, distinct from the absence of a record, so that a delete made
// inside a transaction shadows a value set by an enclosing scope or by the
// committed store.
package changeset

// Entry is a single record of a change-set.
type Entry struct {
	// Value is the pending value for the key. It is meaningless when
	// Deleted is set.
	Value []byte

	// Deleted flags the key as deleted at this level, whatever the outer
	// scopes contain.
	Deleted bool
}

// ChangeSet keeps the pending mutations of one transaction. Each key
// appears at most once; recording a key twice keeps only the latest
// record.
//
// - implements store.Transaction
type ChangeSet struct {
	entries   map[string]Entry
	callbacks []func()
}

// New creates an empty change-set.
func New() *ChangeSet {
	return &ChangeSet{
		entries: make(map[string]Entry),
	}
}

// Record stores the association of the key with the value, overwriting any
// previous record for that key.
func (cs *ChangeSet) Record(key, value []byte) {
	cs.entries[string(key)] = Entry{Value: value}
}

// RecordDelete stores a tombstone for the key, overwriting any previous
// record for that key.
func (cs *ChangeSet) RecordDelete(key []byte) {
	cs.entries[string(key)] = Entry{Deleted: true}
}

// Get returns the record for the key and whether one exists. A tombstone
// is returned as an existing record with the Deleted flag set.
func (cs *ChangeSet) Get(key []byte) (Entry, bool) {
	entry, found := cs.entries[string(key)]
	return entry, found
}

// ForEach calls fn with every record of the change-set, in an unspecified
// order.
func (cs *ChangeSet) ForEach(fn func(key []byte, e Entry)) {
	for key, entry := range cs.entries {
		fn([]byte(key), entry)
	}
}

// Merge folds the records of the other change-set into this one. Records
// of the other set overwrite records of the same key here, so when a
// nested transaction commits into its parent the innermost write wins. The
// other set's commit callbacks are adopted as well so they still run when
// this set eventually lands.
func (cs *ChangeSet) Merge(other *ChangeSet) {
	for key, entry := range other.entries {
		cs.entries[key] = entry
	}

	cs.callbacks = append(cs.callbacks, other.callbacks...)
}

// OnCommit implements store.Transaction. It adds a callback that will be
// executed after the records of this change-set are applied to the
// committed store.
func (cs *ChangeSet) OnCommit(fn func()) {
	cs.callbacks = append(cs.callbacks, fn)
}

// Callbacks returns the commit callbacks registered on this change-set,
// including those adopted from committed children.
func (cs *ChangeSet) Callbacks() []func() {
	return cs.callbacks
}

// Len returns the number of records in the change-set.
func (cs *ChangeSet) Len() int {
	return len(cs.entries)
}
