package icss

import (
	"testing"

	"github.com/stretchr/testify/require"

	"intcode.dev/intcode/icss/internal/dbutil"
	"intcode.dev/intcode/internal/testutil"
)

func NewTestSys(t testing.TB) *System {
	ctx := testutil.Context(t)
	db := dbutil.NewTestDB(t)
	require.NoError(t, SetupDB(ctx, db))
	return NewSystem(db, Params{})
}
