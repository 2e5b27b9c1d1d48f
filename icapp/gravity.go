// package icapp contains puzzles which are solved by driving intcode machines.
package icapp

import (
	"context"
	"errors"
	"fmt"

	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"intcode.dev/intcode/icvm"
)

type Word = icvm.Word

const (
	// AlarmNoun and AlarmVerb restore the program to its state before the alarm.
	AlarmNoun = 12
	AlarmVerb = 2
	// GravityAssistTarget is the output that FindNounVerb searches for by default.
	GravityAssistTarget = 19690720
)

var ErrNoSolution = errors.New("icapp: no solution")

// Alarm runs prog on the baseline catalogue with noun at address 1 and verb at address 2,
// and returns the word left at address 0.
func Alarm(ctx context.Context, prog icvm.Program, noun, verb Word) (Word, error) {
	m := icvm.New(prog.Patch(map[icvm.Addr]Word{1: noun, 2: verb}), icvm.Config{
		Catalogue: icvm.Baseline,
		StepLimit: 1 << 20,
	})
	if _, err := m.Run(ctx); err != nil {
		return 0, err
	}
	return m.Peek(0), nil
}

// FindNounVerb searches nouns and verbs in [0, 99] for a pair which makes Alarm return target.
// Pairs which make the machine fail are skipped.
func FindNounVerb(ctx context.Context, prog icvm.Program, target Word) (noun, verb Word, _ error) {
	for noun := Word(0); noun < 100; noun++ {
		for verb := Word(0); verb < 100; verb++ {
			if err := ctx.Err(); err != nil {
				return 0, 0, err
			}
			out, err := Alarm(ctx, prog, noun, verb)
			if err != nil {
				logctx.Debug(ctx, "skipping", zap.Int64("noun", noun), zap.Int64("verb", verb), zap.Error(err))
				continue
			}
			if out == target {
				return noun, verb, nil
			}
		}
	}
	return 0, 0, fmt.Errorf("%w: no noun and verb produce %d", ErrNoSolution, target)
}
