// Package prefixed provides views of a snapshot where every key lives
// under a namespace. Several logical datasets can then share a single
// store without colliding.
package prefixed

import (
	"encoding/binary"

	"github.com/strata-kv/strata/core/store"
)

type readable struct {
	store.Readable
	prefix []byte
}

type writable struct {
	store.Writable
	prefix []byte
}

type snapshot struct {
	*writable
	*readable
}

// NewSnapshot creates a new prefixed Snapshot.
func NewSnapshot(prefix string, snap store.Snapshot) store.Snapshot {
	p := []byte(prefix)
	return &snapshot{
		&writable{snap, p},
		&readable{snap, p},
	}
}

// NewReadable creates a new prefixed Readable.
func NewReadable(prefix string, r store.Readable) store.Readable {
	p := []byte(prefix)
	return &readable{r, p}
}

// Get implements store.Readable. It reads the key inside the namespace.
func (s *readable) Get(key []byte) ([]byte, error) {
	return s.Readable.Get(NewPrefixedKey(s.prefix, key))
}

// Set implements store.Writable. It writes the key inside the namespace.
func (s *writable) Set(key []byte, value []byte) error {
	return s.Writable.Set(NewPrefixedKey(s.prefix, key), value)
}

// Delete implements store.Writable. It deletes the key inside the
// namespace.
func (s *writable) Delete(key []byte) error {
	return s.Writable.Delete(NewPrefixedKey(s.prefix, key))
}

// NewPrefixedKey composes a base key with a namespace prefix. The prefix
// is length-delimited so that distinct (prefix, key) pairs can never
// produce the same composed key.
func NewPrefixedKey(prefix, key []byte) []byte {
	length := []byte{0, 0}
	binary.LittleEndian.PutUint16(length, uint16(len(prefix)))

	res := make([]byte, 0, 2+len(prefix)+len(key))
	res = append(res, length...)
	res = append(res, prefix...)
	res = append(res, key...)

	return res
}
