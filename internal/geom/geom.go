// Package geom holds the small 2D helpers used by the stretch engine.
package geom

import "math"

// Point is a position on the bed, in millimetres.
type Point struct {
	X float64
	Y float64
}

// SqDist returns the squared distance between p and q.
func (p Point) SqDist(q Point) float64 {
	return Dot(q.X-p.X, q.Y-p.Y, q.X-p.X, q.Y-p.Y)
}

// Dot returns the dot product of vectors (ax,ay) and (bx,by).
func Dot(ax, ay, bx, by float64) float64 {
	return ax*bx + ay*by
}

// PointSegmentSqDistance returns the squared distance from (px,py) to the
// closed segment (x1,y1)-(x2,y2). Points projecting outside the segment are
// measured against the nearest endpoint.
func PointSegmentSqDistance(px, py, x1, y1, x2, y2 float64) float64 {
	den := Dot(x2-x1, y2-y1, x2-x1, y2-y1)
	if den == 0 {
		return Dot(px-x1, py-y1, px-x1, py-y1)
	}
	r := Dot(px-x1, py-y1, x2-x1, y2-y1) / den
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	cx := x1 + r*(x2-x1)
	cy := y1 + r*(y2-y1)
	return Dot(cx-px, cy-py, cx-px, cy-py)
}

// PointSegmentDistance returns the distance from (px,py) to the closed
// segment (x1,y1)-(x2,y2).
func PointSegmentDistance(px, py, x1, y1, x2, y2 float64) float64 {
	return math.Sqrt(PointSegmentSqDistance(px, py, x1, y1, x2, y2))
}

// InnerTurnPoint returns the point at distance dist from the middle vertex
// (x2,y2), toward the chord (x1,y1)-(x3,y3), i.e. inside the bend.
//
// When the middle vertex lies almost on the chord the direction is lost in
// rounding, so the middle vertex is returned unchanged.
func InnerTurnPoint(x1, y1, x2, y2, x3, y3, dist float64) (float64, float64) {
	r := Dot(x2-x1, y2-y1, x3-x1, y3-y1) / Dot(x3-x1, y3-y1, x3-x1, y3-y1)
	ppx := x1 + r*(x3-x1)
	ppy := y1 + r*(y3-y1)
	d := math.Sqrt(Dot(ppx-x2, ppy-y2, ppx-x2, ppy-y2))
	if !(d >= dist/1000.0) {
		return x2, y2
	}
	return x2 + (dist/d)*(ppx-x2), y2 + (dist/d)*(ppy-y2)
}

// OuterTurnPoint returns the point at distance dist from the middle vertex
// (x2,y2), away from the chord (x1,y1)-(x3,y3), i.e. outside the bend.
//
// A chord whose ends coincide puts the projection halfway, and a middle
// vertex closer than dist/10000 to its projection is returned unchanged.
func OuterTurnPoint(x1, y1, x2, y2, x3, y3, dist float64) (float64, float64) {
	rd := Dot(x3-x1, y3-y1, x3-x1, y3-y1)
	r := Dot(x2-x1, y2-y1, x3-x1, y3-y1)
	if math.Abs(r) < 1000.0*math.Abs(rd) {
		r /= rd
	} else {
		r = 0.5
	}
	ppx := x1 + r*(x3-x1)
	ppy := y1 + r*(y3-y1)
	d := math.Sqrt(Dot(ppx-x2, ppy-y2, ppx-x2, ppy-y2))
	if d < dist/10000.0 {
		return x2, y2
	}
	return x2 - (dist/d)*(ppx-x2), y2 - (dist/d)*(ppy-y2)
}

// Round rounds v to the nearest micron.
func Round(v float64) float64 {
	return math.Floor(v*1000.0+0.5) / 1000.0
}
