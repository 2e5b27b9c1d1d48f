package icvm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryZeroDefault(t *testing.T) {
	t.Parallel()
	m := NewMemory([]Word{1, 2, 3})
	require.Equal(t, Word(2), m.Read(1))
	require.Equal(t, Word(0), m.Read(3))
	require.Equal(t, Word(0), m.Read(1<<40))
	require.Equal(t, Addr(3), m.Len())
}

func TestMemoryFarWrite(t *testing.T) {
	t.Parallel()
	m := NewMemory(nil)
	m.Write(1<<40, 7)
	require.Equal(t, Word(7), m.Read(1<<40))
	require.Equal(t, Addr(1<<40+1), m.Len())
	require.Empty(t, m.dense)
}

func TestMemorySparseToDense(t *testing.T) {
	t.Parallel()
	m := NewMemory(nil)
	m.Write(100_000, 5)
	require.Len(t, m.sparse, 1)

	m.Write(denseLimit-1, 1)
	m.Write(70_000, 2)
	m.Write(100_001, 3)
	require.Empty(t, m.sparse)
	require.Equal(t, Word(5), m.Read(100_000))
	require.Equal(t, Word(1), m.Read(denseLimit-1))
	require.Equal(t, Word(2), m.Read(70_000))
	require.Equal(t, Word(3), m.Read(100_001))
}

func TestMemoryDump(t *testing.T) {
	t.Parallel()
	m := NewMemory([]Word{1, 2})
	m.Write(4, 9)
	require.Equal(t, []Word{1, 2, 0, 0, 9}, m.Dump(nil))
}
