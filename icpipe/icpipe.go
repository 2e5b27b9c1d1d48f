// package icpipe connects intcode machines into amplifier pipelines.
//
// Every machine in a pipeline runs the same program. Machine i is seeded with
// phase i, and the first machine also receives the signal 0.
package icpipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"intcode.dev/intcode/icvm"
)

type (
	Word    = icvm.Word
	Program = icvm.Program
)

var (
	// ErrNoSignal is returned when the stage whose output is the result produced no output.
	ErrNoSignal = errors.New("icpipe: no signal")
	// ErrDeadlock is returned by Cooperative when no machine can make progress.
	ErrDeadlock = errors.New("icpipe: deadlock")
)

// Topology selects how machines are connected and scheduled.
type Topology uint8

const (
	// TopologyLinear runs each machine to completion in order, passing the first output on.
	TopologyLinear Topology = iota
	// TopologyRing connects the last machine back to the first and runs each machine on its own goroutine.
	TopologyRing
	// TopologyCooperative is a ring scheduled on the calling goroutine over non-blocking machines.
	TopologyCooperative
)

func (t Topology) String() string {
	switch t {
	case TopologyLinear:
		return "linear"
	case TopologyRing:
		return "ring"
	case TopologyCooperative:
		return "cooperative"
	default:
		return fmt.Sprintf("Topology(%d)", uint8(t))
	}
}

func ParseTopology(x string) (Topology, error) {
	switch strings.ToLower(strings.TrimSpace(x)) {
	case "", "linear":
		return TopologyLinear, nil
	case "ring", "feedback":
		return TopologyRing, nil
	case "cooperative", "coop":
		return TopologyCooperative, nil
	default:
		return 0, fmt.Errorf("icpipe: unknown topology %q", x)
	}
}

// Run evaluates a pipeline of len(phases) machines with topology t.
// Only the Catalogue and StepLimit of cfg are used.
func Run(ctx context.Context, t Topology, prog Program, phases []Word, cfg icvm.Config) (Word, error) {
	switch t {
	case TopologyLinear:
		return Linear(ctx, prog, phases, cfg)
	case TopologyRing:
		return Ring(ctx, prog, phases, cfg)
	case TopologyCooperative:
		return Cooperative(ctx, prog, phases, cfg)
	default:
		return 0, fmt.Errorf("icpipe: unknown topology %v", t)
	}
}

// Linear runs one machine per phase, in order.
// Each machine receives its phase and the previous machine's first output.
// The last machine's first output is returned.
func Linear(ctx context.Context, prog Program, phases []Word, cfg icvm.Config) (Word, error) {
	if len(phases) == 0 {
		return 0, ErrNoSignal
	}
	var signal Word
	for i, phase := range phases {
		in := icvm.NewQueue(phase, signal)
		in.Close()
		m := icvm.New(prog, machineConfig(cfg, in, nil, false))
		if _, err := m.Run(ctx); err != nil {
			return 0, fmt.Errorf("stage %d: %w", i, err)
		}
		v, err := m.TryOutput()
		if err != nil {
			return 0, fmt.Errorf("stage %d: %w", i, ErrNoSignal)
		}
		signal = v
	}
	return signal, nil
}

// Ring runs one machine per phase on its own goroutine.
// Machine i's output queue is machine (i+1)%n's input queue.
// It returns the last value produced by the final machine once every machine has halted.
// If any machine fails, the others are cancelled and the first error is returned.
func Ring(ctx context.Context, prog Program, phases []Word, cfg icvm.Config) (Word, error) {
	ms := newRing(prog, phases, cfg, false)
	if len(ms) == 0 {
		return 0, ErrNoSignal
	}
	eg, ctx := errgroup.WithContext(ctx)
	for i, m := range ms {
		eg.Go(func() error {
			if _, err := m.Run(ctx); err != nil {
				return fmt.Errorf("machine %d: %w", i, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}
	return lastSignal(ms)
}

// Cooperative evaluates the same ring as Ring, without any goroutines.
// Non-blocking machines are run in turn until each one either halts or waits for input.
func Cooperative(ctx context.Context, prog Program, phases []Word, cfg icvm.Config) (Word, error) {
	ms := newRing(prog, phases, cfg, true)
	if len(ms) == 0 {
		return 0, ErrNoSignal
	}
	for {
		progress, live := false, 0
		for i, m := range ms {
			if m.State() == icvm.Halted {
				continue
			}
			before := m.Steps()
			st, err := m.Run(ctx)
			if err != nil {
				return 0, fmt.Errorf("machine %d: %w", i, err)
			}
			if m.Steps() != before {
				progress = true
			}
			if st != icvm.StatusHalted {
				live++
			}
		}
		if live == 0 {
			break
		}
		if !progress {
			return 0, fmt.Errorf("%w: %d machines waiting for input", ErrDeadlock, live)
		}
	}
	return lastSignal(ms)
}

func newRing(prog Program, phases []Word, cfg icvm.Config, nonBlocking bool) []*icvm.Machine {
	n := len(phases)
	qs := make([]*icvm.Queue, n)
	for i := range qs {
		qs[i] = icvm.NewQueue()
	}
	ms := make([]*icvm.Machine, n)
	for i := range ms {
		in := qs[(i+n-1)%n]
		in.Push(phases[i])
		if i == 0 {
			in.Push(0)
		}
		ms[i] = icvm.New(prog, machineConfig(cfg, in, qs[i], nonBlocking))
	}
	return ms
}

func lastSignal(ms []*icvm.Machine) (Word, error) {
	v, ok := ms[len(ms)-1].LastOutput()
	if !ok {
		return 0, ErrNoSignal
	}
	return v, nil
}

func machineConfig(cfg icvm.Config, in, out *icvm.Queue, nonBlocking bool) icvm.Config {
	return icvm.Config{
		Catalogue:   cfg.Catalogue,
		StepLimit:   cfg.StepLimit,
		NonBlocking: nonBlocking,
		Input:       in,
		Output:      out,
	}
}

func logTrial(ctx context.Context, t Topology, phases []Word, signal Word, err error) {
	if err != nil {
		logctx.Debug(ctx, "trial failed", zap.Stringer("topology", t), zap.Int64s("phases", phases), zap.Error(err))
		return
	}
	logctx.Debug(ctx, "trial", zap.Stringer("topology", t), zap.Int64s("phases", phases), zap.Int64("signal", signal))
}
