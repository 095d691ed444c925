// Package store defines the primitives of a simple key/value storage with
// scoped transactions.
package store

// Readable is the interface for a readable store.
type Readable interface {
	// Get returns the value associated with the key, or nil if the key is
	// not set.
	Get(key []byte) ([]byte, error)
}

// Writable is the interface for a writable store.
type Writable interface {
	Set(key []byte, value []byte) error

	Delete(key []byte) error
}

// Snapshot is a state of the store that can be read and written
// independently.
type Snapshot interface {
	Readable
	Writable
}

// Transaction is the interface to observe the outcome of pending changes.
type Transaction interface {
	// OnCommit adds a callback to be executed after the changes of the
	// current transaction are applied to the committed store. The callback
	// is dropped if the transaction, or any enclosing one, is rolled back.
	OnCommit(func())
}

// Transactional is a snapshot extended with scoped transactions. Reads and
// writes target the innermost open transaction, if any, and the committed
// store otherwise.
type Transactional interface {
	Snapshot
	Transaction

	// Keys returns every key visible from this scope, in no particular
	// order.
	Keys() [][]byte

	// Begin opens a new transaction nested in the current one.
	Begin()

	// Commit folds the innermost transaction into the enclosing one, or
	// into the committed store if it is the outermost. It is a no-op when
	// no transaction is open.
	Commit()

	// Rollback discards the innermost transaction. It is a no-op when no
	// transaction is open.
	Rollback()
}
