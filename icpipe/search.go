package icpipe

import (
	"context"
	"iter"
	"runtime"
	"slices"

	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"intcode.dev/intcode/icvm"
)

// Permutations yields every ordering of xs.
// Orderings are produced in lexicographic order of the positions in xs,
// so the first ordering is xs itself.
// Each yielded slice is freshly allocated.
func Permutations(xs []Word) iter.Seq[[]Word] {
	return func(yield func([]Word) bool) {
		idx := make([]int, len(xs))
		for i := range idx {
			idx[i] = i
		}
		for {
			perm := make([]Word, len(xs))
			for i, j := range idx {
				perm[i] = xs[j]
			}
			if !yield(perm) {
				return
			}
			if !nextPermutation(idx) {
				return
			}
		}
	}
}

// nextPermutation advances idx to the next permutation in lexicographic order.
// It returns false if idx was the last one.
func nextPermutation(idx []int) bool {
	i := len(idx) - 2
	for i >= 0 && idx[i] >= idx[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(idx) - 1
	for idx[j] <= idx[i] {
		j--
	}
	idx[i], idx[j] = idx[j], idx[i]
	slices.Reverse(idx[i+1:])
	return true
}

// Best is the result of a MaxSignal search.
type Best struct {
	Signal Word
	Phases []Word
}

// MaxSignal evaluates the pipeline for every ordering of phases, and returns the
// largest signal along with the first ordering that produced it.
// Trials run in parallel, at most GOMAXPROCS at a time.
// Any failed trial fails the whole search.
func MaxSignal(ctx context.Context, prog Program, phases []Word, t Topology, cfg icvm.Config) (Best, error) {
	perms := slices.Collect(Permutations(phases))
	signals := make([]Word, len(perms))
	eg, ctx2 := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, perm := range perms {
		eg.Go(func() error {
			v, err := Run(ctx2, t, prog, perm, cfg)
			logTrial(ctx2, t, perm, v, err)
			if err != nil {
				return err
			}
			signals[i] = v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Best{}, err
	}
	best := 0
	for i := range signals {
		if signals[i] > signals[best] {
			best = i
		}
	}
	ret := Best{Signal: signals[best], Phases: perms[best]}
	logctx.Info(ctx, "max signal", zap.Stringer("topology", t), zap.Int("trials", len(perms)), zap.Int64("signal", ret.Signal), zap.Int64s("phases", ret.Phases))
	return ret, nil
}
