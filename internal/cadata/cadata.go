// package cadata provides the content addressing used for stored programs.
//
// Every blob is identified by the hash of its bytes, optionally keyed with a salt.
package cadata

import (
	"bytes"
	"context"
	"crypto/subtle"
	"database/sql/driver"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

var _ driver.Valuer = ID{}

const (
	IDSize = 32
	// Base64Alphabet is used when encoding IDs as base64 strings.
	// It is a URL and filepath safe encoding, which maintains ordering.
	Base64Alphabet = "-0123456789" + "ABCDEFGHIJKLMNOPQRSTUVWXYZ" + "_" + "abcdefghijklmnopqrstuvwxyz"
)

// ID identifies a particular piece of data
type ID [IDSize]byte

var enc = base64.NewEncoding(Base64Alphabet).WithPadding(base64.NoPadding)

// ParseID decodes an ID from the output of ID.String
func ParseID(x string) (ID, error) {
	var id ID
	n, err := enc.Decode(id[:], []byte(x))
	if err != nil {
		return ID{}, fmt.Errorf("parsing id %q: %w", x, err)
	}
	if n != IDSize || enc.EncodedLen(IDSize) != len(x) {
		return ID{}, fmt.Errorf("parsing id %q: wrong length", x)
	}
	return id, nil
}

func (id ID) String() string {
	return enc.EncodeToString(id[:])
}

func (a ID) Compare(b ID) int {
	return bytes.Compare(a[:], b[:])
}

func (id ID) IsZero() bool {
	return id == (ID{})
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	x, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = x
	return nil
}

func (id *ID) Scan(x any) error {
	switch x := x.(type) {
	case []byte:
		if len(x) != IDSize {
			return fmt.Errorf("wrong length for cadata.ID HAVE: %d WANT: %d", len(x), IDSize)
		}
		copy(id[:], x)
		return nil
	default:
		return fmt.Errorf("cannot scan type %T", x)
	}
}

func (id ID) Value() (driver.Value, error) {
	return id[:], nil
}

type HashFunc = func(salt *ID, x []byte) ID

type Poster interface {
	Post(ctx context.Context, salt *ID, data []byte) (ID, error)
}

type Getter interface {
	// Get copies the data for k into buf and returns the number of bytes copied.
	Get(ctx context.Context, k *ID, salt *ID, buf []byte) (int, error)
}

type Exister interface {
	Exists(ctx context.Context, k *ID) (bool, error)
}

type Deleter interface {
	Delete(ctx context.Context, k *ID) error
}

type Store interface {
	Poster
	Getter
	Exister
	Deleter
}

var (
	ErrTooLarge = errors.New("data is too large for store")
)

type ErrNotFound struct {
	Key *ID
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("no data found for %v in store", e.Key)
}

type ErrBadData struct {
	Have ID
	Want ID
}

func (e ErrBadData) Error() string {
	return fmt.Sprintf("bad data. HAVE: %v WANT: %v", e.Have, e.Want)
}

// Check returns ErrBadData if data does not hash to expectedID
func Check(hf HashFunc, expectedID *ID, salt *ID, data []byte) error {
	actualID := hf(salt, data)
	if subtle.ConstantTimeCompare(actualID[:], expectedID[:]) != 1 {
		return ErrBadData{Have: actualID, Want: *expectedID}
	}
	return nil
}
