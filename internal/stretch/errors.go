package stretch

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is wrapped by every BoundsError.
var ErrOutOfBounds = errors.New("position outside the bed")

// BoundsError reports a position that left the bed while correcting a
// layer. It is an internal consistency failure: the run must stop.
type BoundsError struct {
	Layer int     // 1-based layer number
	Step  int     // index of the step within the layer
	X     float64 // offending position
	Y     float64
	Bed   float64 // bed size the position was checked against
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("layer %d, step %d: %v: (%g, %g) not in [0, %g)", e.Layer, e.Step, ErrOutOfBounds, e.X, e.Y, e.Bed)
}

func (e *BoundsError) Unwrap() error {
	return ErrOutOfBounds
}
