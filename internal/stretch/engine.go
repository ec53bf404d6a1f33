// Package stretch corrects the toolpath of a layer so that corners and walls
// end up where the slicer meant them to be once the plastic has shrunk.
package stretch

import (
	"github.com/rs/zerolog"

	"github.com/santiagomed/poststretch/internal/config"
	"github.com/santiagomed/poststretch/internal/debugview"
	"github.com/santiagomed/poststretch/internal/gcode"
)

const (
	// minBase is the shortest distance, in mm, between the centre of a bend
	// and the points used to measure its direction.
	minBase = 0.5
	// loopGap is the largest distance, in mm, between the ends of a closed
	// loop.
	loopGap = 0.3
)

// Stats counts what happened while processing one layer.
type Stats struct {
	Sequences int // sequences of two steps or more
	Loops     int // of which closed loops
	Moved     int // points written somewhere else
	Pushed    int // wall-push moves
	Reverted  int // points reset because plastic was found on both sides
}

// Engine processes layers one at a time. It keeps the plastic laid on the
// current layer so that later sequences can react to it.
type Engine struct {
	cfg       *config.Config
	logger    *zerolog.Logger
	deposited []Segment
	layer     int
	stats     Stats
}

// NewEngine returns an engine for the given run configuration.
func NewEngine(cfg *config.Config, logger *zerolog.Logger) *Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Stats returns the counters of the last processed layer.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Process corrects the X and Y of the steps of one layer in place. Steps are
// never added, removed or reordered. Drawing calls go to view, which may be
// debugview.Nop{}.
//
// A new sequence starts at every step that does not extrude, and grows with
// the moves that follow while the extrusion keeps changing.
func (e *Engine) Process(layer int, steps []gcode.Step, view debugview.View) error {
	if view == nil {
		view = debugview.Nop{}
	}
	e.layer = layer
	e.stats = Stats{}
	e.deposited = e.deposited[:0]

	var (
		curE float64
		seq  []int
	)
	for i := range steps {
		if i == 0 {
			curE = steps[i].E
		}
		if steps[i].E == curE {
			if len(seq) >= 2 {
				if err := e.workOnSequence(steps, seq, view); err != nil {
					return err
				}
			}
			seq = append(seq[:0], i)
		} else if steps[i].Kind.IsMove() {
			seq = append(seq, i)
		}
		curE = steps[i].E
	}
	if len(seq) >= 2 {
		if err := e.workOnSequence(steps, seq, view); err != nil {
			return err
		}
	}

	e.logger.Debug().
		Int("layer", layer).
		Int("steps", len(steps)).
		Int("sequences", e.stats.Sequences).
		Int("loops", e.stats.Loops).
		Int("moved", e.stats.Moved).
		Int("reverted", e.stats.Reverted).
		Msg("Layer corrected")
	return nil
}

func (e *Engine) workOnSequence(steps []gcode.Step, idx []int, view debugview.View) error {
	s := newSequence(steps, idx)
	e.stats.Sequences++

	view.Polyline(s.orig, e.cfg.WidthMM())

	var err error
	if closed(s.orig) {
		e.stats.Loops++
		view.Point(s.orig[0].X, s.orig[0].Y, debugview.LoopStart)
		err = e.wideCircle(s)
	} else {
		view.Point(s.orig[0].X, s.orig[0].Y, debugview.PathStart)
		view.Point(s.orig[s.len()-1].X, s.orig[s.len()-1].Y, debugview.PathEnd)
		err = e.wideTurn(s)
	}
	if err != nil {
		return err
	}
	if err := e.pushWall(s); err != nil {
		return err
	}

	// Plastic goes back to where it was meant to be once it cools, so the
	// original positions are recorded.
	for i := 0; i+1 < s.len(); i++ {
		e.deposited = append(e.deposited, Segment{A: s.orig[i], B: s.orig[i+1]})
	}

	for i, j := range s.steps {
		o, c := s.orig[i], s.corrected[i]
		if err := e.check(j, c.X, c.Y); err != nil {
			return err
		}
		if c != o {
			view.Arrow(o.X, o.Y, c.X, c.Y)
			e.stats.Moved++
		}
		steps[j].X = c.X
		steps[j].Y = c.Y
	}
	return nil
}

// check fails when (x,y) is off the bed. step is the index of the step in
// the layer.
func (e *Engine) check(step int, x, y float64) error {
	bed := e.cfg.BedSize
	if x >= 0 && x < bed && y >= 0 && y < bed {
		return nil
	}
	return &BoundsError{Layer: e.layer, Step: step, X: x, Y: y, Bed: bed}
}

// Deposited returns the plastic recorded so far on the current layer.
func (e *Engine) Deposited() []Segment {
	out := make([]Segment, len(e.deposited))
	copy(out, e.deposited)
	return out
}

