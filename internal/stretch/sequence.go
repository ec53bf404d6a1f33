package stretch

import (
	"github.com/santiagomed/poststretch/internal/gcode"
	"github.com/santiagomed/poststretch/internal/geom"
)

// sequence is a run of steps of one layer during which plastic is laid
// down. It refers to the steps by index and never owns them.
type sequence struct {
	steps     []int        // indices into the layer
	orig      []geom.Point // where the plastic must end up
	corrected []geom.Point // where the head is sent
}

func newSequence(layer []gcode.Step, idx []int) *sequence {
	s := &sequence{
		steps:     make([]int, len(idx)),
		orig:      make([]geom.Point, len(idx)),
		corrected: make([]geom.Point, len(idx)),
	}
	copy(s.steps, idx)
	for i, j := range idx {
		p := geom.Point{X: layer[j].X, Y: layer[j].Y}
		s.orig[i] = p
		s.corrected[i] = p
	}
	return s
}

func (s *sequence) len() int {
	return len(s.orig)
}

// closed reports whether the path comes back close to where it started.
func closed(points []geom.Point) bool {
	return len(points) > 2 && points[0].SqDist(points[len(points)-1]) < loopGap*loopGap
}

// circularIndex maps any index onto [0, size).
func circularIndex(i, size int) int {
	i %= size
	if i < 0 {
		i += size
	}
	return i
}
