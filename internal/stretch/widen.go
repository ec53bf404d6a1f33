package stretch

import "github.com/santiagomed/poststretch/internal/geom"

// wideTurn moves every interior point of an open path to the outside of its
// bend. The bend is measured between neighbours at least minBase away, or
// the path ends if none is that far.
func (e *Engine) wideTurn(s *sequence) error {
	n := s.len()
	for i := 1; i+1 < n; i++ {
		i1 := i - 1
		for s.orig[i1].SqDist(s.orig[i]) < minBase*minBase && i1 > 0 {
			i1--
		}
		i3 := i + 1
		for s.orig[i].SqDist(s.orig[i3]) < minBase*minBase && i3+1 < n {
			i3++
		}
		if err := e.turn(s, i1, i, i3); err != nil {
			return err
		}
	}
	return nil
}

// wideCircle does the same for a closed loop, where neighbours wrap around
// and every point has a bend. The search stops at a third of the loop, which
// for evenly spaced points makes an equilateral triangle.
func (e *Engine) wideCircle(s *sequence) error {
	n := s.len()
	maxOffset := n / 3
	for i := 0; i < n; i++ {
		before := 1
		i1 := circularIndex(i-before, n)
		for s.orig[i1].SqDist(s.orig[i]) < minBase*minBase && before < maxOffset {
			before++
			i1 = circularIndex(i-before, n)
		}
		after := 1
		i3 := circularIndex(i+after, n)
		for s.orig[i].SqDist(s.orig[i3]) < minBase*minBase && after < maxOffset {
			after++
			i3 = circularIndex(i+after, n)
		}
		if err := e.turn(s, i1, i, i3); err != nil {
			return err
		}
	}
	return nil
}

// turn stores in corrected[i] the point outside the bend i1, i, i3.
func (e *Engine) turn(s *sequence, i1, i, i3 int) error {
	a, b, c := s.orig[i1], s.orig[i], s.orig[i3]
	x, y := geom.OuterTurnPoint(a.X, a.Y, b.X, b.Y, c.X, c.Y, e.cfg.StretchMM())
	if err := e.check(s.steps[i], x, y); err != nil {
		return err
	}
	s.corrected[i] = geom.Point{X: geom.Round(x), Y: geom.Round(y)}
	return nil
}
