// Package stacked implements an in-memory key/value store with nested,
// session-scoped transactions.
//
// The store owns the committed mapping, which is the only state shared
// between callers. Each caller opens a session and stacks transactions on
// top of it: a read resolves against the innermost change-set that
// mentions the key, falling back level by level to the committed store; a
// commit folds the innermost change-set into its parent, or applies it to
// the committed store when it is the outermost one.
//
// Sessions are independent scopes. Two sessions never observe each other's
// uncommitted changes, so they can run concurrently with no coordination
// beyond the store mutex that linearizes outermost commits.
package stacked

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/strata-kv/strata"
	"github.com/strata-kv/strata/core/store/changeset"
)

// defines prometheus metrics
var (
	promTxs = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "strata_store_transactions_open",
		Help: "number of currently open transactions",
	})

	promKeys = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "strata_store_keys",
		Help: "number of keys in the committed store",
	})

	promCommits = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "strata_store_commit_records",
		Help:    "number of records applied per outermost commit",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 20, 30, 50, 100},
	})
)

func init() {
	strata.PromCollectors = append(strata.PromCollectors,
		promTxs, promKeys, promCommits)
}

// Store is an in-memory key/value store. The zero state of the store is
// an empty committed mapping and no open transaction.
//
// The store itself is safe for concurrent use: direct reads and writes,
// and the apply step of outermost commits, are serialized by a single
// mutex.
//
// - implements store.Snapshot
type Store struct {
	sync.Mutex

	committed map[string][]byte
	watcher   *watcher
	logger    zerolog.Logger
}

// NewStore creates a new empty store.
func NewStore() *Store {
	return &Store{
		committed: make(map[string][]byte),
		watcher:   newWatcher(),
		logger:    strata.Logger.With().Str("component", "store").Logger(),
	}
}

// Get implements store.Readable. It returns the committed value of the
// key, or nil if the key is not set. It never returns an error.
func (s *Store) Get(key []byte) ([]byte, error) {
	s.Lock()
	defer s.Unlock()

	return s.committed[string(key)], nil
}

// Set implements store.Writable. It writes the value directly to the
// committed store. It never returns an error.
func (s *Store) Set(key, value []byte) error {
	s.Lock()
	defer s.Unlock()

	s.committed[string(key)] = value
	promKeys.Set(float64(len(s.committed)))

	return nil
}

// Delete implements store.Writable. It removes the key from the committed
// store, doing nothing if the key is not set. It never returns an error.
func (s *Store) Delete(key []byte) error {
	s.Lock()
	defer s.Unlock()

	delete(s.committed, string(key))
	promKeys.Set(float64(len(s.committed)))

	return nil
}

// Keys returns the keys of the committed store, in no particular order.
func (s *Store) Keys() [][]byte {
	snapshot := s.snapshotKeys()

	keys := make([][]byte, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, []byte(key))
	}

	return keys
}

// Len returns the number of keys in the committed store.
func (s *Store) Len() int {
	s.Lock()
	defer s.Unlock()

	return len(s.committed)
}

// Session returns a new scope bound to the store. A session must be used
// from a single goroutine, but any number of sessions can be used
// concurrently against the same store.
func (s *Store) Session() *Session {
	return &Session{
		store:  s,
		logger: s.logger.With().Str("session", xid.New().String()).Logger(),
	}
}

// snapshotKeys returns a consistent copy of the committed key set.
func (s *Store) snapshotKeys() map[string]struct{} {
	s.Lock()
	defer s.Unlock()

	keys := make(map[string]struct{}, len(s.committed))
	for key := range s.committed {
		keys[key] = struct{}{}
	}

	return keys
}

// apply writes every record of the change-set to the committed store. The
// mutex is held for the whole loop so that two outermost commits can never
// interleave their records.
func (s *Store) apply(cs *changeset.ChangeSet) {
	s.Lock()

	cs.ForEach(func(key []byte, e changeset.Entry) {
		if e.Deleted {
			delete(s.committed, string(key))
		} else {
			s.committed[string(key)] = e.Value
		}
	})

	promKeys.Set(float64(len(s.committed)))

	s.Unlock()

	promCommits.Observe(float64(cs.Len()))

	s.watcher.notify(Event{Records: cs.Len()})

	for _, fn := range cs.Callbacks() {
		fn()
	}
}

// Session is the transaction scope of one logical caller. It owns a stack
// of change-sets, one per open transaction, innermost last. While at least
// one transaction is open, reads and writes target the stack; otherwise
// they go straight to the committed store.
//
// A session is not safe for concurrent use.
//
// - implements store.Transactional
type Session struct {
	store  *Store
	stack  []*changeset.ChangeSet
	logger zerolog.Logger
}

// Get implements store.Readable. It returns the value of the key as seen
// from this scope: the innermost record wins, whether it is a value or a
// tombstone, and the committed store answers when no change-set mentions
// the key. It never returns an error.
func (s *Session) Get(key []byte) ([]byte, error) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		entry, found := s.stack[i].Get(key)
		if found {
			if entry.Deleted {
				// The key is explicitly deleted at this level so outer
				// scopes must not be consulted.
				return nil, nil
			}

			return entry.Value, nil
		}
	}

	return s.store.Get(key)
}

// Set implements store.Writable. It records the value in the innermost
// transaction, or writes it to the committed store when no transaction is
// open. It never returns an error.
func (s *Session) Set(key, value []byte) error {
	if len(s.stack) > 0 {
		s.stack[len(s.stack)-1].Record(key, value)
		return nil
	}

	return s.store.Set(key, value)
}

// Delete implements store.Writable. It records a tombstone in the
// innermost transaction, or removes the key from the committed store when
// no transaction is open. It never returns an error.
func (s *Session) Delete(key []byte) error {
	if len(s.stack) > 0 {
		s.stack[len(s.stack)-1].RecordDelete(key)
		return nil
	}

	return s.store.Delete(key)
}

// Keys implements store.Transactional. It returns every key visible from
// this scope, in no particular order: the committed keys, overlaid with
// the change-sets of the stack so that a key whose innermost record is a
// tombstone is excluded.
func (s *Session) Keys() [][]byte {
	keys := s.store.snapshotKeys()

	// Walking the stack bottom-up and applying each record leaves exactly
	// the innermost record's verdict for every key.
	for _, cs := range s.stack {
		cs.ForEach(func(key []byte, e changeset.Entry) {
			if e.Deleted {
				delete(keys, string(key))
			} else {
				keys[string(key)] = struct{}{}
			}
		})
	}

	res := make([][]byte, 0, len(keys))
	for key := range keys {
		res = append(res, []byte(key))
	}

	return res
}

// Begin implements store.Transactional. It opens a new transaction nested
// in the current one.
func (s *Session) Begin() {
	s.stack = append(s.stack, changeset.New())

	promTxs.Inc()

	s.logger.Debug().Int("depth", len(s.stack)).Msg("transaction started")
}

// Rollback implements store.Transactional. It discards the innermost
// transaction and every record it holds. It is a no-op when no transaction
// is open.
func (s *Session) Rollback() {
	if len(s.stack) == 0 {
		return
	}

	cs := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]

	promTxs.Dec()

	s.logger.Debug().
		Int("depth", len(s.stack)).
		Int("records", cs.Len()).
		Msg("transaction rolled back")
}

// Commit implements store.Transactional. It folds the innermost
// transaction into the enclosing one, overwriting records of the same key
// so that the innermost write wins. When the committed transaction is the
// outermost, its records are applied to the committed store in a single
// critical section. It is a no-op when no transaction is open.
func (s *Session) Commit() {
	if len(s.stack) == 0 {
		return
	}

	cs := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]

	if len(s.stack) > 0 {
		s.stack[len(s.stack)-1].Merge(cs)
	} else {
		s.store.apply(cs)
	}

	promTxs.Dec()

	s.logger.Debug().
		Int("depth", len(s.stack)).
		Int("records", cs.Len()).
		Msg("transaction committed")
}

// OnCommit implements store.Transaction. It registers a callback on the
// innermost transaction, to be executed after its records finally reach
// the committed store. Outside of any transaction the callback runs
// immediately, as there is nothing pending.
func (s *Session) OnCommit(fn func()) {
	if len(s.stack) == 0 {
		fn()
		return
	}

	s.stack[len(s.stack)-1].OnCommit(fn)
}

// Depth returns the number of currently open transactions of the session.
func (s *Session) Depth() int {
	return len(s.stack)
}
