package icapp

import (
	"context"
	"fmt"
	"strings"

	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"intcode.dev/intcode/icvm"
)

const (
	Black Word = 0
	White Word = 1
)

// Point is a panel on the hull. Y increases to the north.
type Point struct {
	X, Y int
}

func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

var (
	North = Point{0, 1}
	East  = Point{1, 0}
	South = Point{0, -1}
	West  = Point{-1, 0}
)

// turnLeft and turnRight rotate a unit direction by 90 degrees.
func turnLeft(d Point) Point  { return Point{X: -d.Y, Y: d.X} }
func turnRight(d Point) Point { return Point{X: d.Y, Y: -d.X} }

// Hull is an unbounded grid of panels. Panels start Black.
type Hull struct {
	panels  map[Point]Word
	painted map[Point]struct{}
}

func NewHull() *Hull {
	return &Hull{
		panels:  make(map[Point]Word),
		painted: make(map[Point]struct{}),
	}
}

func (h *Hull) At(p Point) Word {
	return h.panels[p]
}

// Set changes a panel without counting it as painted.
func (h *Hull) Set(p Point, c Word) {
	h.panels[p] = c
}

func (h *Hull) paint(p Point, c Word) {
	h.panels[p] = c
	h.painted[p] = struct{}{}
}

// Painted returns the number of panels painted at least once.
func (h *Hull) Painted() int {
	return len(h.painted)
}

// String draws the white panels as '#', north at the top.
func (h *Hull) String() string {
	var lo, hi Point
	first := true
	for p, c := range h.panels {
		if c != White {
			continue
		}
		if first {
			lo, hi, first = p, p, false
			continue
		}
		lo.X, lo.Y = min(lo.X, p.X), min(lo.Y, p.Y)
		hi.X, hi.Y = max(hi.X, p.X), max(hi.Y, p.Y)
	}
	if first {
		return ""
	}
	var sb strings.Builder
	for y := hi.Y; y >= lo.Y; y-- {
		for x := lo.X; x <= hi.X; x++ {
			if h.At(Point{x, y}) == White {
				sb.WriteByte('#')
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Robot paints a Hull under the control of a non-blocking machine.
// The robot reports the color under it as input; the machine answers with a color to paint,
// then a turn, 0 for left and 1 for right. The robot then moves forward one panel.
type Robot struct {
	Hull *Hull
	Pos  Point
	Dir  Point

	m       *icvm.Machine
	pending []Word
}

// NewRobot returns a robot at the origin of hull, facing north.
func NewRobot(prog icvm.Program, hull *Hull, cfg icvm.Config) *Robot {
	cfg.NonBlocking = true
	cfg.Input, cfg.Output = nil, nil
	return &Robot{
		Hull: hull,
		Dir:  North,
		m:    icvm.New(prog, cfg),
	}
}

// Run drives the machine until it halts.
func (r *Robot) Run(ctx context.Context) error {
	for {
		st, err := r.m.Run(ctx)
		if err != nil {
			return err
		}
		for v := range r.m.Outputs() {
			r.pending = append(r.pending, v)
		}
		for len(r.pending) >= 2 {
			if err := r.apply(r.pending[0], r.pending[1]); err != nil {
				return err
			}
			r.pending = r.pending[2:]
		}
		if st == icvm.StatusHalted {
			break
		}
		r.m.PutInput(r.Hull.At(r.Pos))
	}
	logctx.Info(ctx, "robot halted", zap.Int("painted", r.Hull.Painted()), zap.Uint64("steps", r.m.Steps()))
	return nil
}

func (r *Robot) apply(color, turn Word) error {
	if color != Black && color != White {
		return fmt.Errorf("icapp: invalid color %d", color)
	}
	switch turn {
	case 0:
		r.Dir = turnLeft(r.Dir)
	case 1:
		r.Dir = turnRight(r.Dir)
	default:
		return fmt.Errorf("icapp: invalid turn %d", turn)
	}
	r.Hull.paint(r.Pos, color)
	r.Pos = r.Pos.Add(r.Dir)
	return nil
}

// Paint runs a robot on a fresh hull whose starting panel is start, and returns the hull.
func Paint(ctx context.Context, prog icvm.Program, start Word) (*Hull, error) {
	hull := NewHull()
	hull.Set(Point{}, start)
	r := NewRobot(prog, hull, icvm.Config{})
	if err := r.Run(ctx); err != nil {
		return nil, err
	}
	return hull, nil
}
