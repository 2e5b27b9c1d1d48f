package icvm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseProgram(t *testing.T) {
	t.Parallel()
	p, err := ParseProgram("1,0,0,0,99\n")
	require.NoError(t, err)
	require.Equal(t, Program{1, 0, 0, 0, 99}, p)

	p, err = ParseProgram(" 104, -7 ,99")
	require.NoError(t, err)
	require.Equal(t, Program{104, -7, 99}, p)

	for _, x := range []string{"", "  \n", "1,,2", "1,a,99", "99999999999999999999"} {
		_, err := ParseProgram(x)
		require.Error(t, err, "%q", x)
	}
}

func TestProgramRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := New(MustParseProgram("1,9,10,3,2,3,11,0,99,30,40,50"), Config{Catalogue: Baseline})
	st, err := m.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusHalted, st)

	p, err := ParseProgram(m.String())
	require.NoError(t, err)
	require.Equal(t, m.Dump(nil), []Word(p))
}

func TestProgramPatch(t *testing.T) {
	t.Parallel()
	p := Program{1, 0, 0, 0, 99}
	p2 := p.Patch(map[Addr]Word{1: 12, 2: 2, 6: 5})
	require.Equal(t, Program{1, 12, 2, 0, 99, 0, 5}, p2)
	require.Equal(t, Program{1, 0, 0, 0, 99}, p)
}
