package cadata

import (
	"crypto/sha256"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func sha(salt *ID, x []byte) ID {
	h := sha256.New()
	if salt != nil {
		h.Write(salt[:])
	}
	h.Write(x)
	var ret ID
	h.Sum(ret[:0])
	return ret
}

func TestIDString(t *testing.T) {
	t.Parallel()
	id := sha(nil, []byte("hello"))
	id2, err := ParseID(id.String())
	require.NoError(t, err)
	require.Equal(t, id, id2)

	_, err = ParseID("abc")
	require.Error(t, err)
}

func TestIDJSON(t *testing.T) {
	t.Parallel()
	id := sha(nil, []byte("hello"))
	data, err := json.Marshal(id)
	require.NoError(t, err)
	var id2 ID
	require.NoError(t, json.Unmarshal(data, &id2))
	require.Equal(t, id, id2)
}

func TestIDScan(t *testing.T) {
	t.Parallel()
	id := sha(nil, []byte("hello"))
	v, err := id.Value()
	require.NoError(t, err)
	var id2 ID
	require.NoError(t, id2.Scan(v))
	require.Equal(t, id, id2)
	require.Error(t, id2.Scan([]byte{1, 2, 3}))
	require.Error(t, id2.Scan("string"))
}

func TestCheck(t *testing.T) {
	t.Parallel()
	data := []byte("1,0,0,0,99")
	id := sha(nil, data)
	require.NoError(t, Check(sha, &id, nil, data))
	require.ErrorAs(t, Check(sha, &id, nil, []byte("99")), &ErrBadData{})
}
