package stretch

import (
	"math"

	"github.com/santiagomed/poststretch/internal/geom"
)

// Segment is a straight run of plastic already laid on the current layer,
// in the coordinates it was meant to have.
type Segment struct {
	A geom.Point
	B geom.Point
}

// pushWall looks on both sides of every point for plastic laid by earlier
// sequences. With plastic on one side only, the point moves away from it.
// With plastic on both sides, every correction of the point is dropped.
func (e *Engine) pushWall(s *sequence) error {
	n := s.len()
	half := e.cfg.WidthMM() / 2.0
	step := e.cfg.StretchMM()
	for i := 0; i < n; i++ {
		j := i + 1
		if j == n {
			j = i - 1
		}
		p := s.orig[i]
		// perpendicular to the track
		px := -(s.orig[j].Y - p.Y)
		py := s.orig[j].X - p.X
		norm := math.Sqrt(px*px + py*py)
		if norm == 0 {
			continue
		}
		px /= norm
		py /= norm

		plus := e.touches(p.X+px*half, p.Y+py*half)
		minus := e.touches(p.X-px*half, p.Y-py*half)
		switch {
		case plus && !minus:
			if err := e.shift(s, i, px*step, py*step); err != nil {
				return err
			}
		case minus && !plus:
			if err := e.shift(s, i, -px*step, -py*step); err != nil {
				return err
			}
		case plus && minus:
			s.corrected[i] = s.orig[i]
			e.stats.Reverted++
		}
	}
	return nil
}

// shift moves corrected[i] by (dx,dy), on top of any earlier correction.
func (e *Engine) shift(s *sequence, i int, dx, dy float64) error {
	x := s.corrected[i].X + dx
	y := s.corrected[i].Y + dy
	if err := e.check(s.steps[i], x, y); err != nil {
		return err
	}
	s.corrected[i] = geom.Point{X: geom.Round(x), Y: geom.Round(y)}
	e.stats.Pushed++
	return nil
}

// touches reports whether plastic laid earlier on this layer covers (x,y).
func (e *Engine) touches(x, y float64) bool {
	r := e.cfg.NozzleMM() / 2.0
	for _, d := range e.deposited {
		if geom.PointSegmentSqDistance(x, y, d.A.X, d.A.Y, d.B.X, d.B.Y) <= r*r {
			return true
		}
	}
	return false
}
