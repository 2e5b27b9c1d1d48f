package testicss

import (
	"testing"

	"github.com/stretchr/testify/require"

	"intcode.dev/intcode/icss"
	"intcode.dev/intcode/internal/testutil"
)

func New(t testing.TB) *icss.System {
	return icss.NewTestSys(t)
}

// AddProgram adds code to sys under name and returns its ID.
func AddProgram(t testing.TB, sys *icss.System, name, code string) icss.ProgramID {
	ctx := testutil.Context(t)
	id, err := sys.AddProgram(ctx, name, code)
	require.NoError(t, err)
	return id
}
