package icvm

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Program is the initial memory image of a machine.
type Program []Word

// ParseProgram parses the comma separated encoding of a program.
// Surrounding whitespace, including a trailing newline, is ignored.
func ParseProgram(x string) (Program, error) {
	x = strings.TrimSpace(x)
	if x == "" {
		return nil, fmt.Errorf("icvm: empty program")
	}
	parts := strings.Split(x, ",")
	ret := make(Program, len(parts))
	for i, part := range parts {
		w, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("icvm: parsing program word %d: %w", i, err)
		}
		ret[i] = w
	}
	return ret, nil
}

// MustParseProgram calls ParseProgram and panics on error.
func MustParseProgram(x string) Program {
	p, err := ParseProgram(x)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Program) String() string {
	return FormatWords(p)
}

func (p Program) Clone() Program {
	return slices.Clone(p)
}

// Patch returns a copy of p with the word at each address in patches replaced.
// Addresses past the end of p extend the copy with zeros.
func (p Program) Patch(patches map[Addr]Word) Program {
	ret := p.Clone()
	for a, w := range patches {
		for Addr(len(ret)) <= a {
			ret = append(ret, 0)
		}
		ret[a] = w
	}
	return ret
}

// FormatWords encodes ws in the comma separated program format.
func FormatWords(ws []Word) string {
	var sb strings.Builder
	for i, w := range ws {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(w, 10))
	}
	return sb.String()
}
