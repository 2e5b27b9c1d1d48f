package sqlstores

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"intcode.dev/intcode"
	"intcode.dev/intcode/icss/internal/dbutil"
	"intcode.dev/intcode/icss/internal/migrations"
	"intcode.dev/intcode/internal/cadata"
)

func newTestStore(t testing.TB) *Store {
	db := dbutil.NewTestDB(t)
	err := migrations.Migrate(context.TODO(), db, Migration(migrations.InitialState()))
	require.NoError(t, err)
	return NewStore(db, intcode.Hash, 1024)
}

func TestStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	data := []byte("1,0,0,0,99")
	id, err := s.Post(ctx, nil, data)
	require.NoError(t, err)
	require.Equal(t, intcode.Hash(nil, data), id)

	// posting again is a no-op
	id2, err := s.Post(ctx, nil, data)
	require.NoError(t, err)
	require.Equal(t, id, id2)

	yes, err := s.Exists(ctx, &id)
	require.NoError(t, err)
	require.True(t, yes)

	buf := make([]byte, s.MaxSize())
	n, err := s.Get(ctx, &id, nil, buf)
	require.NoError(t, err)
	require.Equal(t, data, buf[:n])

	require.NoError(t, s.Delete(ctx, &id))
	yes, err = s.Exists(ctx, &id)
	require.NoError(t, err)
	require.False(t, yes)
	_, err = s.Get(ctx, &id, nil, buf)
	require.ErrorAs(t, err, &cadata.ErrNotFound{})
}

func TestStoreTooLarge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.Post(ctx, nil, make([]byte, s.MaxSize()+1))
	require.ErrorIs(t, err, cadata.ErrTooLarge)
}
