package icvm

// denseLimit is the address below which Memory always uses its dense slice.
const denseLimit = 1 << 16

// Memory is a sparse, unbounded store of Words.
// Addresses which have never been written read as 0.
// Low addresses live in a slice which grows on demand, far addresses live in a map.
type Memory struct {
	dense  []Word
	sparse map[Addr]Word
	n      Addr
}

// NewMemory returns a Memory with init loaded at address 0.
func NewMemory(init []Word) *Memory {
	dense := make([]Word, len(init))
	copy(dense, init)
	return &Memory{dense: dense, n: Addr(len(init))}
}

func (m *Memory) Read(a Addr) Word {
	if a < Addr(len(m.dense)) {
		return m.dense[a]
	}
	return m.sparse[a]
}

func (m *Memory) Write(a Addr, v Word) {
	switch {
	case a < Addr(len(m.dense)):
		m.dense[a] = v
	case a < denseLimit || a < 2*Addr(len(m.dense)):
		m.growTo(a + 1)
		m.dense[a] = v
	default:
		if m.sparse == nil {
			m.sparse = make(map[Addr]Word)
		}
		m.sparse[a] = v
	}
	if a >= m.n {
		m.n = a + 1
	}
}

// Len returns one past the highest address which has been loaded or written.
func (m *Memory) Len() Addr {
	return m.n
}

// Dump appends the contents of addresses [0, Len()) to out.
func (m *Memory) Dump(out []Word) []Word {
	out = append(out, m.dense...)
	for a := Addr(len(m.dense)); a < m.n; a++ {
		out = append(out, m.sparse[a])
	}
	return out
}

func (m *Memory) growTo(n Addr) {
	old := len(m.dense)
	if Addr(cap(m.dense)) >= n {
		m.dense = m.dense[:n]
		clear(m.dense[old:])
	} else {
		next := make([]Word, n, max(n, 2*Addr(cap(m.dense))))
		copy(next, m.dense)
		m.dense = next
	}
	// move anything the slice now covers out of the map
	for a, v := range m.sparse {
		if a < n {
			m.dense[a] = v
			delete(m.sparse, a)
		}
	}
}
