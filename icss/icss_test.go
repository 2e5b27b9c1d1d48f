package icss

import (
	"testing"

	"github.com/stretchr/testify/require"

	"intcode.dev/intcode"
	"intcode.dev/intcode/icpipe"
	"intcode.dev/intcode/icvm"
	"intcode.dev/intcode/internal/testutil"
)

func TestAddGetProgram(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t)
	sys := NewTestSys(t)

	id, err := sys.AddProgram(ctx, "echo", " 3,0,4,0,99\n")
	require.NoError(t, err)
	require.Equal(t, intcode.Hash(nil, []byte("3,0,4,0,99")), id)

	prog, err := sys.GetProgram(ctx, id)
	require.NoError(t, err)
	require.Equal(t, icvm.Program{3, 0, 4, 0, 99}, prog)

	// same code, new name
	id2, err := sys.AddProgram(ctx, "echo2", "3,0,4,0,99")
	require.NoError(t, err)
	require.Equal(t, id, id2)
	info, err := sys.GetProgramInfo(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "echo2", info.Name)
	require.Equal(t, 5, info.Words)
	require.False(t, info.CreatedAt.IsZero())

	_, err = sys.AddProgram(ctx, "bad", "1,x,3")
	require.Error(t, err)
}

func TestGetProgramUncached(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t)
	sys := NewTestSys(t)
	id, err := sys.AddProgram(ctx, "add", "1,0,0,0,99")
	require.NoError(t, err)

	sys.cache.Purge()
	prog, err := sys.GetProgram(ctx, id)
	require.NoError(t, err)
	require.Equal(t, icvm.Program{1, 0, 0, 0, 99}, prog)
	require.True(t, sys.cache.Contains(id))
}

func TestListDropProgram(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t)
	sys := NewTestSys(t)
	a, err := sys.AddProgram(ctx, "a", "99")
	require.NoError(t, err)
	b, err := sys.AddProgram(ctx, "b", "104,1,99")
	require.NoError(t, err)

	infos, err := sys.ListPrograms(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	ids := []ProgramID{infos[0].ID, infos[1].ID}
	require.ElementsMatch(t, []ProgramID{a, b}, ids)

	_, err = sys.Run(ctx, a, RunParams{})
	require.NoError(t, err)
	require.NoError(t, sys.DropProgram(ctx, a))
	_, err = sys.GetProgram(ctx, a)
	require.ErrorAs(t, err, &ErrProgramNotFound{})
	require.ErrorAs(t, sys.DropProgram(ctx, a), &ErrProgramNotFound{})
	_, err = sys.ListRuns(ctx, a)
	require.ErrorAs(t, err, &ErrProgramNotFound{})

	infos, err = sys.ListPrograms(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, b, infos[0].ID)
}

func TestRun(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t)
	sys := NewTestSys(t)
	id, err := sys.AddProgram(ctx, "cmp8", "3,9,8,9,10,9,4,9,99,-1,8")
	require.NoError(t, err)

	rec, err := sys.Run(ctx, id, RunParams{Input: []Word{8}})
	require.NoError(t, err)
	require.Equal(t, "halted", rec.State)
	require.Equal(t, []Word{1}, rec.Output)
	require.Equal(t, "3,9,8,9,10,9,4,9,99,1,8", rec.Memory)
	require.NotZero(t, rec.ID)

	// runs out of input
	rec2, err := sys.Run(ctx, id, RunParams{})
	require.NoError(t, err)
	require.Equal(t, "failed", rec2.State)
	require.Contains(t, rec2.Error, icvm.ErrQueueClosed.Error())

	// the catalogue can be narrowed per run
	rec3, err := sys.Run(ctx, id, RunParams{Input: []Word{8}, Catalogue: icvm.Baseline})
	require.NoError(t, err)
	require.Equal(t, "failed", rec3.State)
	require.Equal(t, "baseline", rec3.Catalogue)

	runs, err := sys.ListRuns(ctx, id)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	require.Equal(t, *rec, runs[0])
	require.Equal(t, rec2.ID, runs[1].ID)

	got, err := sys.GetRun(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec, got)
	_, err = sys.GetRun(ctx, 1000)
	require.ErrorAs(t, err, &ErrRunNotFound{})
}

func TestRunFarMemory(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t)
	sys := NewTestSys(t)
	// writes to a far address, so the memory is too large to keep
	id, err := sys.AddProgram(ctx, "far", "1101,1,1,1000000,99")
	require.NoError(t, err)
	rec, err := sys.Run(ctx, id, RunParams{})
	require.NoError(t, err)
	require.Equal(t, "halted", rec.State)
	require.Empty(t, rec.Memory)
}

func TestAmplify(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t)
	sys := NewTestSys(t)
	id, err := sys.AddProgram(ctx, "amp", "3,15,3,16,1002,16,10,16,1,16,15,15,4,15,99,0,0")
	require.NoError(t, err)
	best, err := sys.Amplify(ctx, id, icpipe.TopologyLinear, []Word{0, 1, 2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, Word(43210), best.Signal)
	require.Equal(t, []Word{4, 3, 2, 1, 0}, best.Phases)
}

func TestSession(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t)
	sys := NewTestSys(t)
	// adds pairs of inputs until it reads a 0
	id, err := sys.AddProgram(ctx, "adder", "3,20,1006,20,16,3,21,1,20,21,22,4,22,1105,1,0,99")
	require.NoError(t, err)

	sess, err := sys.OpenSession(ctx, id, 0)
	require.NoError(t, err)

	u, err := sess.Feed(ctx)
	require.NoError(t, err)
	require.Equal(t, "waiting", u.State)
	require.Empty(t, u.Outputs)

	u, err = sess.Feed(ctx, 2, 3)
	require.NoError(t, err)
	require.Equal(t, []Word{5}, u.Outputs)
	require.Equal(t, "waiting", u.State)

	u, err = sess.Feed(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, "halted", u.State)
	require.True(t, sess.Done())
	require.NotZero(t, u.RunID)

	rec := sess.Record()
	require.Equal(t, []Word{2, 3, 0}, rec.Input)
	require.Equal(t, []Word{5}, rec.Output)

	_, err = sess.Feed(ctx, 1)
	require.ErrorIs(t, err, icvm.ErrInvalidState)
}
