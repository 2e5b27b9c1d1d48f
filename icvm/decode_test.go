package icvm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()
	type testCase struct {
		Word Word
		Cat  Catalogue
		Out  Instr
		Err  bool
	}
	tcs := []testCase{
		{Word: 1002, Cat: Full, Out: Instr{Op: OpMultiply, NParams: 3, Modes: [3]Mode{ModePosition, ModeImmediate, ModePosition}}},
		{Word: 1101, Cat: Baseline, Out: Instr{Op: OpAdd, NParams: 3, Modes: [3]Mode{ModeImmediate, ModeImmediate, ModePosition}}},
		{Word: 99, Cat: Baseline, Out: Instr{Op: OpHalt}},
		// digits past the parameter count are ignored
		{Word: 1199, Cat: Baseline, Out: Instr{Op: OpHalt}},
		{Word: 104, Cat: Extended, Out: Instr{Op: OpOutput, NParams: 1, Modes: [3]Mode{ModeImmediate}}},
		{Word: 21107, Cat: Full, Out: Instr{Op: OpLessThan, NParams: 3, Modes: [3]Mode{ModeImmediate, ModeImmediate, ModeRelative}}},
		{Word: 203, Cat: Full, Out: Instr{Op: OpInput, NParams: 1, Modes: [3]Mode{ModeRelative}}},
		{Word: 109, Cat: Full, Out: Instr{Op: OpAdjustRelBase, NParams: 1, Modes: [3]Mode{ModeImmediate}}},

		{Word: 3, Cat: Baseline, Err: true},
		{Word: 9, Cat: Extended, Err: true},
		{Word: 21107, Cat: Extended, Err: true},
		{Word: 10, Cat: Full, Err: true},
		{Word: 98, Cat: Full, Err: true},
		{Word: -1, Cat: Full, Err: true},
		{Word: 301, Cat: Full, Err: true},
		{Word: 11101, Cat: Full, Err: true},
		{Word: 103, Cat: Full, Err: true},
	}
	for _, tc := range tcs {
		ins, err := Decode(tc.Word, tc.Cat)
		if tc.Err {
			require.Error(t, err, "word %d", tc.Word)
			continue
		}
		require.NoError(t, err, "word %d", tc.Word)
		require.Equal(t, tc.Out, ins, "word %d", tc.Word)
	}
}

func TestDecodeErrorKinds(t *testing.T) {
	t.Parallel()
	_, err := Decode(3, Baseline)
	require.True(t, errors.As(err, &ErrInvalidOpcode{}))

	_, err = Decode(201, Extended)
	var modeErr ErrInvalidParameterMode
	require.True(t, errors.As(err, &modeErr))
	require.Equal(t, 1, modeErr.Param)
	require.Equal(t, Word(2), modeErr.Mode)
}

func TestParseCatalogue(t *testing.T) {
	t.Parallel()
	for _, c := range []Catalogue{Baseline, Extended, Full, CapArith | CapIO} {
		c2, err := ParseCatalogue(c.String())
		require.NoError(t, err)
		require.Equal(t, c, c2)
	}
	c, err := ParseCatalogue("")
	require.NoError(t, err)
	require.Equal(t, Full, c)
	_, err = ParseCatalogue("turbo")
	require.Error(t, err)
}
