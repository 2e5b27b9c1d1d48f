package intcode

import (
	"lukechampine.com/blake3"

	"intcode.dev/intcode/internal/cadata"
)

const (
	// MaxProgramBytes is the largest encoded program the registry will accept.
	MaxProgramBytes = 1 << 22
)

type (
	// CID is a Content ID. Programs are identified by the CID of their encoding.
	CID = cadata.ID

	Store  = cadata.Store
	Getter = cadata.Getter
	Poster = cadata.Poster
)

// Hash calculates the hash of x.
// If salt == nil, then the hash is unkeyed.
// If salt != nil, then the hash will be keyed with the salt.
func Hash(salt *cadata.ID, x []byte) (ret cadata.ID) {
	var key []byte
	if salt != nil {
		key = salt[:]
	}
	h := blake3.New(32, key)
	h.Write(x)
	h.Sum(ret[:0])
	return ret
}
