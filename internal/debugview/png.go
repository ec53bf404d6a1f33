package debugview

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/santiagomed/poststretch/internal/geom"
	"github.com/santiagomed/poststretch/pkg/fs"
)

// pixels per millimetre
const scale = 10.0

// PNG renders a layer as seen from above, Y pointing up, one bed-sized
// square. The image is written on Close.
type PNG struct {
	dc    *gg.Context
	fs    *fs.FileSystem
	path  string
	bed   float64
	layer int
	width float64 // last track width, mm
}

// NewPNG returns a view drawing layer onto a bed of the given size, saved to
// path on Close.
func NewPNG(fsys *fs.FileSystem, path string, bed float64, layer int) (*PNG, error) {
	if bed <= 0 {
		return nil, fmt.Errorf("invalid bed size %g", bed)
	}
	size := int(math.Ceil(bed * scale))
	dc := gg.NewContext(size, size)
	dc.SetColor(color.White)
	dc.Clear()
	return &PNG{dc: dc, fs: fsys, path: path, bed: bed, layer: layer, width: 0.7}, nil
}

func (v *PNG) pos(x, y float64) (float64, float64) {
	return x * scale, (v.bed - y) * scale
}

func (v *PNG) Polyline(points []geom.Point, width float64) {
	v.width = width
	for i := 0; i+1 < len(points); i++ {
		v.Segment(points[i].X, points[i].Y, points[i+1].X, points[i+1].Y, Track)
	}
}

func (v *PNG) Segment(x1, y1, x2, y2 float64, c Color) {
	px1, py1 := v.pos(x1, y1)
	px2, py2 := v.pos(x2, y2)
	dc := v.dc
	dc.SetLineCapRound()

	// plastic
	switch c {
	case Track:
		dc.SetRGBA(0, 1, 0, 0.1)
	case Correction:
		dc.SetRGBA(1, 0, 0, 0.1)
	case Hidden:
		dc.SetRGBA(1, 0, 0, 0)
	default:
		dc.SetRGBA(0, 1, 1, 0.4)
	}
	dc.SetLineWidth(v.width * scale)
	dc.DrawLine(px1, py1, px2, py2)
	dc.Stroke()

	// centre line
	if c == Hidden {
		dc.SetRGBA(0.1, 0.1, 0.1, 0.5)
	} else {
		dc.SetRGBA(0, 0.4, 0.5, 0.9)
	}
	dc.SetLineWidth(v.width * scale * 0.1)
	dc.DrawLine(px1, py1, px2, py2)
	dc.Stroke()
}

func (v *PNG) Point(x, y float64, c Color) {
	px, py := v.pos(x, y)
	r := 0.35 * scale * 0.2
	switch c {
	case PathStart:
		v.dc.SetRGBA(0, 0, 1, 0.7)
		r = 0.35 * scale * 0.3
	case PathEnd:
		v.dc.SetRGBA(1, 0, 0.5, 0.7)
	case LoopStart:
		v.dc.SetRGBA(0, 1, 0.2, 0.7)
		r = 0.35 * scale * 0.3
	default:
		v.dc.SetRGBA(0, 1, 0, 0.7)
	}
	v.dc.DrawCircle(px, py, r)
	v.dc.Fill()
}

func (v *PNG) Arrow(x1, y1, x2, y2 float64) {
	fx, fy := v.pos(x1, y1)
	tx, ty := v.pos(x2, y2)
	dc := v.dc
	dc.SetRGBA(1, 0, 0, 0.9)
	dc.SetLineWidth(0.5)
	dc.DrawLine(fx, fy, tx, ty)
	dc.Stroke()

	dx, dy := tx-fx, ty-fy
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	const (
		headSize  = 1.5
		headAngle = 0.5
	)
	dc.MoveTo(tx, ty)
	dc.LineTo(tx-headSize*dx+headSize*dy*headAngle, ty-headSize*dy-headSize*dx*headAngle)
	dc.LineTo(tx-headSize*dx-headSize*dy*headAngle, ty-headSize*dy+headSize*dx*headAngle)
	dc.ClosePath()
	dc.Fill()
}

// Close draws the legend and writes the image.
func (v *PNG) Close() error {
	if err := v.legend(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := v.dc.EncodePNG(&buf); err != nil {
		return fmt.Errorf("failed to encode debug image: %w", err)
	}
	return v.fs.WriteFile(v.path, buf.String())
}

func (v *PNG) legend() error {
	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    14,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	v.dc.SetFontFace(face)
	v.dc.SetColor(color.Black)
	v.dc.DrawString(fmt.Sprintf("layer %d", v.layer), 10, 20)
	return nil
}
