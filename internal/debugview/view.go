// Package debugview draws what the stretch engine does to one layer.
package debugview

import "github.com/santiagomed/poststretch/internal/geom"

// Color selects the style of a segment or point.
type Color int

const (
	Track      Color = iota // plastic as sliced
	Correction              // moved plastic
	Hidden                  // centre line only
	PathStart
	PathEnd
	LoopStart
)

// View receives drawing calls. Coordinates are bed millimetres.
type View interface {
	// Polyline draws a track of the given width through points.
	Polyline(points []geom.Point, width float64)
	Segment(x1, y1, x2, y2 float64, c Color)
	Point(x, y float64, c Color)
	// Arrow draws the displacement of a point from (x1,y1) to (x2,y2).
	Arrow(x1, y1, x2, y2 float64)
	// Close flushes the drawing.
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Polyline([]geom.Point, float64)                    {}
func (Nop) Segment(float64, float64, float64, float64, Color) {}
func (Nop) Point(float64, float64, Color)                     {}
func (Nop) Arrow(float64, float64, float64, float64)          {}
func (Nop) Close() error                                      { return nil }
