package icpipe

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"intcode.dev/intcode/icvm"
	"intcode.dev/intcode/internal/testutil"
)

const (
	linear1 = "3,15,3,16,1002,16,10,16,1,16,15,15,4,15,99,0,0"
	linear2 = "3,23,3,24,1002,24,10,24,1002,23,-1,23,101,5,23,23,1,24,23,23,4,23,99,0,0"
	linear3 = "3,31,3,32,1002,32,10,32,1001,31,-2,31,1007,31,0,33,1002,33,7,33,1,33,31,31,1,32,31,31,4,31,99,0,0,0"
	ring1   = "3,26,1001,26,-4,26,3,27,1002,27,2,27,1,27,26,27,4,27,1001,28,-1,28,1005,28,6,99,0,0,5"
	ring2   = "3,52,1001,52,-5,52,3,53,1,52,56,54,1007,54,5,55,1005,55,26,1001,54,-5,54,1105,1,12,1,53,54,53,1008,54,0,55,1001,55,1,55,2,53,55,53,4,53,1001,56,-1,56,1005,56,6,99,0,0,0,0,10"
)

func TestLinear(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t)
	type testCase struct {
		Prog   string
		Phases []Word
		Signal Word
	}
	tcs := []testCase{
		{linear1, []Word{4, 3, 2, 1, 0}, 43210},
		{linear2, []Word{0, 1, 2, 3, 4}, 54321},
		{linear3, []Word{1, 0, 4, 3, 2}, 65210},
	}
	for _, tc := range tcs {
		v, err := Linear(ctx, icvm.MustParseProgram(tc.Prog), tc.Phases, icvm.Config{})
		require.NoError(t, err)
		require.Equal(t, tc.Signal, v)
	}
}

func TestFeedback(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t)
	type testCase struct {
		Prog   string
		Phases []Word
		Signal Word
	}
	tcs := []testCase{
		{ring1, []Word{9, 8, 7, 6, 5}, 139629729},
		{ring2, []Word{9, 7, 8, 5, 6}, 18216},
	}
	for _, tc := range tcs {
		prog := icvm.MustParseProgram(tc.Prog)
		v, err := Ring(ctx, prog, tc.Phases, icvm.Config{})
		require.NoError(t, err)
		require.Equal(t, tc.Signal, v)

		v, err = Cooperative(ctx, prog, tc.Phases, icvm.Config{})
		require.NoError(t, err)
		require.Equal(t, tc.Signal, v)
	}
}

func TestMaxSignal(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t)
	type testCase struct {
		Prog     string
		Topology Topology
		Phases   []Word
		Best     Best
	}
	tcs := []testCase{
		{linear1, TopologyLinear, []Word{0, 1, 2, 3, 4}, Best{43210, []Word{4, 3, 2, 1, 0}}},
		{linear2, TopologyLinear, []Word{0, 1, 2, 3, 4}, Best{54321, []Word{0, 1, 2, 3, 4}}},
		{linear3, TopologyLinear, []Word{0, 1, 2, 3, 4}, Best{65210, []Word{1, 0, 4, 3, 2}}},
		{ring1, TopologyRing, []Word{5, 6, 7, 8, 9}, Best{139629729, []Word{9, 8, 7, 6, 5}}},
		{ring2, TopologyRing, []Word{5, 6, 7, 8, 9}, Best{18216, []Word{9, 7, 8, 5, 6}}},
		{ring1, TopologyCooperative, []Word{5, 6, 7, 8, 9}, Best{139629729, []Word{9, 8, 7, 6, 5}}},
		{ring2, TopologyCooperative, []Word{5, 6, 7, 8, 9}, Best{18216, []Word{9, 7, 8, 5, 6}}},
	}
	for _, tc := range tcs {
		best, err := MaxSignal(ctx, icvm.MustParseProgram(tc.Prog), tc.Phases, tc.Topology, icvm.Config{})
		require.NoError(t, err)
		require.Equal(t, tc.Best, best)
	}
}

func TestMaxSignalTie(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t)
	// every ordering produces 7
	prog := icvm.MustParseProgram("3,0,3,0,104,7,99")
	best, err := MaxSignal(ctx, prog, []Word{2, 0, 1}, TopologyLinear, icvm.Config{})
	require.NoError(t, err)
	require.Equal(t, Best{Signal: 7, Phases: []Word{2, 0, 1}}, best)
}

func TestRingFailure(t *testing.T) {
	t.Parallel()
	ctx, cf := context.WithTimeout(testutil.Context(t), 5*time.Second)
	defer cf()
	// phase 0 reaches an invalid opcode, every other phase waits for more input.
	prog := icvm.MustParseProgram("3,20,1005,20,8,42,0,0,3,21,99")
	_, err := Ring(ctx, prog, []Word{0, 1, 2}, icvm.Config{})
	require.Error(t, err)
	require.False(t, errors.Is(err, context.DeadlineExceeded))

	_, err = Cooperative(ctx, prog, []Word{0, 1, 2}, icvm.Config{})
	require.True(t, errors.As(err, &icvm.ErrInvalidOpcode{}))
}

func TestCooperativeDeadlock(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t)
	prog := icvm.MustParseProgram("3,0,3,0,3,0,99")
	_, err := Cooperative(ctx, prog, []Word{0}, icvm.Config{})
	require.ErrorIs(t, err, ErrDeadlock)
}

func TestLinearNoSignal(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t)
	_, err := Linear(ctx, icvm.MustParseProgram("3,0,3,0,99"), []Word{0, 1}, icvm.Config{})
	require.ErrorIs(t, err, ErrNoSignal)

	// reading past the phase and signal fails instead of blocking
	_, err = Linear(ctx, icvm.MustParseProgram("3,0,3,0,3,0,99"), []Word{0}, icvm.Config{})
	require.ErrorIs(t, err, icvm.ErrQueueClosed)
}

func TestPermutations(t *testing.T) {
	t.Parallel()
	perms := slices.Collect(Permutations([]Word{1, 2, 3}))
	require.Equal(t, [][]Word{
		{1, 2, 3}, {1, 3, 2}, {2, 1, 3}, {2, 3, 1}, {3, 1, 2}, {3, 2, 1},
	}, perms)

	var n int
	for range Permutations([]Word{5, 6, 7, 8, 9}) {
		n++
	}
	require.Equal(t, 120, n)

	n = 0
	for range Permutations([]Word{1, 2, 3}) {
		n++
		if n == 2 {
			break
		}
	}
	require.Equal(t, 2, n)
}

func TestParseTopology(t *testing.T) {
	t.Parallel()
	for _, x := range []Topology{TopologyLinear, TopologyRing, TopologyCooperative} {
		y, err := ParseTopology(x.String())
		require.NoError(t, err)
		require.Equal(t, x, y)
	}
	_, err := ParseTopology("star")
	require.Error(t, err)
}
