package changeset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChangeSet_Record(t *testing.T) {
	cs := New()

	cs.Record([]byte("A"), []byte{1})
	require.Equal(t, Entry{Value: []byte{1}}, cs.entries["A"])

	cs.Record([]byte("A"), []byte{2})
	require.Equal(t, Entry{Value: []byte{2}}, cs.entries["A"])
	require.Equal(t, 1, cs.Len())
}

func TestChangeSet_RecordDelete(t *testing.T) {
	cs := New()
	cs.Record([]byte("A"), []byte{1})

	cs.RecordDelete([]byte("A"))
	require.Equal(t, Entry{Deleted: true}, cs.entries["A"])

	// A key never seen before must still leave a tombstone, so it can
	// shadow a value from an outer scope.
	cs.RecordDelete([]byte("B"))
	require.Equal(t, Entry{Deleted: true}, cs.entries["B"])
}

func TestChangeSet_Get(t *testing.T) {
	cs := New()
	cs.Record([]byte("A"), []byte{1})
	cs.RecordDelete([]byte("B"))

	entry, found := cs.Get([]byte("A"))
	require.True(t, found)
	require.Equal(t, []byte{1}, entry.Value)

	entry, found = cs.Get([]byte("B"))
	require.True(t, found)
	require.True(t, entry.Deleted)

	_, found = cs.Get([]byte("C"))
	require.False(t, found)
}

func TestChangeSet_ForEach(t *testing.T) {
	cs := New()
	cs.Record([]byte("A"), []byte{1})
	cs.RecordDelete([]byte("B"))

	seen := map[string]Entry{}
	cs.ForEach(func(key []byte, e Entry) {
		seen[string(key)] = e
	})

	require.Len(t, seen, 2)
	require.Equal(t, Entry{Value: []byte{1}}, seen["A"])
	require.Equal(t, Entry{Deleted: true}, seen["B"])
}

func TestChangeSet_Merge(t *testing.T) {
	parent := New()
	parent.Record([]byte("A"), []byte{1})
	parent.Record([]byte("B"), []byte{2})

	child := New()
	child.Record([]byte("A"), []byte{3})
	child.RecordDelete([]byte("C"))

	parent.Merge(child)

	require.Equal(t, 3, parent.Len())
	require.Equal(t, Entry{Value: []byte{3}}, parent.entries["A"])
	require.Equal(t, Entry{Value: []byte{2}}, parent.entries["B"])
	require.Equal(t, Entry{Deleted: true}, parent.entries["C"])
}

func TestChangeSet_OnCommit(t *testing.T) {
	parent := New()
	child := New()

	num := 0
	child.OnCommit(func() { num++ })
	parent.OnCommit(func() { num++ })

	parent.Merge(child)
	require.Len(t, parent.Callbacks(), 2)

	for _, fn := range parent.Callbacks() {
		fn()
	}
	require.Equal(t, 2, num)
}
