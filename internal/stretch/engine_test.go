package stretch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santiagomed/poststretch/internal/config"
	"github.com/santiagomed/poststretch/internal/debugview"
	"github.com/santiagomed/poststretch/internal/gcode"
	"github.com/santiagomed/poststretch/internal/geom"
)

func newTestEngine() *Engine {
	return NewEngine(config.DefaultConfig(), nil)
}

func move(kind gcode.Kind, x, y, e float64) gcode.Step {
	return gcode.Step{Kind: kind, X: x, Y: y, Z: 0.2, E: e}
}

func xy(steps []gcode.Step) []geom.Point {
	out := make([]geom.Point, len(steps))
	for i, st := range steps {
		out[i] = geom.Point{X: st.X, Y: st.Y}
	}
	return out
}

func TestProcessTwoPointsUnchanged(t *testing.T) {
	steps := []gcode.Step{
		{Kind: gcode.MoveLin, X: 10, Y: 10, Z: 10, E: 1},
		{Kind: gcode.MoveLin, X: 10, Y: 11, Z: 10, E: 2},
	}
	e := newTestEngine()
	require.NoError(t, e.Process(1, steps, nil))

	assert.Equal(t, []geom.Point{{X: 10, Y: 10}, {X: 10, Y: 11}}, xy(steps))
	assert.Equal(t, Stats{Sequences: 1}, e.Stats())
	assert.Equal(t, []Segment{{A: geom.Point{X: 10, Y: 10}, B: geom.Point{X: 10, Y: 11}}}, e.Deposited())
}

func TestProcessSinglePointSequenceIgnored(t *testing.T) {
	steps := []gcode.Step{
		move(gcode.MoveFast, 5, 5, 1),
		move(gcode.MoveFast, 6, 6, 1),
		move(gcode.MoveFast, 7, 7, 1),
	}
	e := newTestEngine()
	require.NoError(t, e.Process(1, steps, nil))
	assert.Equal(t, 0, e.Stats().Sequences)
	assert.Empty(t, e.Deposited())
}

func TestProcessOpenPathWidensCorner(t *testing.T) {
	steps := []gcode.Step{
		move(gcode.MoveFast, 1, 1, 0),
		move(gcode.MoveLin, 5, 1, 1),
		move(gcode.MoveLin, 5, 5, 2),
	}
	e := newTestEngine()
	require.NoError(t, e.Process(1, steps, nil))

	// The corner at (5,1) moves away from the chord (1,1)-(5,5).
	assert.Equal(t, []geom.Point{{X: 1, Y: 1}, {X: 5.12, Y: 0.88}, {X: 5, Y: 5}}, xy(steps))
	assert.Equal(t, 1, e.Stats().Moved)
}

func TestProcessOpenPathSkipsShortNeighbours(t *testing.T) {
	// The points around the corner are closer than 0.5 mm, so the bend is
	// measured against the path ends.
	steps := []gcode.Step{
		move(gcode.MoveFast, 1, 1, 0),
		move(gcode.MoveLin, 4.8, 1, 1),
		move(gcode.MoveLin, 5, 1, 2),
		move(gcode.MoveLin, 5, 5, 3),
	}
	e := newTestEngine()
	require.NoError(t, e.Process(1, steps, nil))

	pts := xy(steps)
	assert.Equal(t, geom.Point{X: 1, Y: 1}, pts[0])
	assert.Equal(t, geom.Point{X: 5, Y: 5}, pts[3])
	// (4.8,1) bends between (1,1) and (5,5), like (5,1).
	assert.Less(t, pts[1].Y, 1.0)
	assert.Greater(t, pts[2].X, 5.0)
	assert.Less(t, pts[2].Y, 1.0)
}

func TestProcessClosedLoop(t *testing.T) {
	steps := []gcode.Step{
		move(gcode.MoveFast, 10, 10, 0),
		move(gcode.MoveLin, 20, 10, 1),
		move(gcode.MoveLin, 20, 20, 2),
		move(gcode.MoveLin, 10, 20, 3),
		move(gcode.MoveLin, 10, 10, 4),
	}
	e := newTestEngine()
	require.NoError(t, e.Process(1, steps, nil))

	assert.Equal(t, []geom.Point{
		{X: 10, Y: 10},
		{X: 20.12, Y: 9.88},
		{X: 20.12, Y: 20.12},
		{X: 9.88, Y: 20.12},
		{X: 10, Y: 10},
	}, xy(steps))
	assert.Equal(t, 1, e.Stats().Loops)
	assert.Equal(t, 3, e.Stats().Moved)
}

func TestClosedIsSymmetric(t *testing.T) {
	paths := [][]geom.Point{
		{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0.1, Y: 0.1}},
		{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0.4, Y: 0}},
		{{X: 0, Y: 0}, {X: 0.1, Y: 0}},
		{{X: 3, Y: 3}, {X: 4, Y: 3}, {X: 3, Y: 3}},
	}
	want := []bool{true, false, false, true}
	for i, p := range paths {
		rev := make([]geom.Point, len(p))
		for j := range p {
			rev[len(p)-1-j] = p[j]
		}
		assert.Equal(t, want[i], closed(p))
		assert.Equal(t, closed(p), closed(rev))
	}
}

func TestCircularIndex(t *testing.T) {
	assert.Equal(t, 4, circularIndex(-1, 5))
	assert.Equal(t, 0, circularIndex(5, 5))
	assert.Equal(t, 2, circularIndex(12, 5))
	assert.Equal(t, 3, circularIndex(-7, 5))
	assert.Equal(t, 1, circularIndex(1, 5))
}

func TestProcessWallPushTowardWall(t *testing.T) {
	steps := []gcode.Step{
		move(gcode.MoveLin, 5, 9.3, 1),
		move(gcode.MoveLin, 15, 9.3, 2),
		move(gcode.MoveFast, 8, 10, 2),
		move(gcode.MoveLin, 12, 10, 3),
	}
	e := newTestEngine()
	require.NoError(t, e.Process(1, steps, nil))

	assert.Equal(t, []geom.Point{
		{X: 5, Y: 9.3},
		{X: 15, Y: 9.3},
		{X: 8, Y: 9.83},
		{X: 12, Y: 9.83},
	}, xy(steps))
	assert.Equal(t, 2, e.Stats().Pushed)
	// History holds the intended positions, not the corrected ones.
	assert.Equal(t, []Segment{
		{A: geom.Point{X: 5, Y: 9.3}, B: geom.Point{X: 15, Y: 9.3}},
		{A: geom.Point{X: 8, Y: 10}, B: geom.Point{X: 12, Y: 10}},
	}, e.Deposited())
}

func TestProcessWallPushBothSidesKeepsOriginal(t *testing.T) {
	steps := []gcode.Step{
		move(gcode.MoveLin, 5, 9.3, 1),
		move(gcode.MoveLin, 15, 9.3, 2),
		move(gcode.MoveFast, 5, 10.7, 2),
		move(gcode.MoveLin, 15, 10.7, 3),
		move(gcode.MoveFast, 8, 10, 3),
		move(gcode.MoveLin, 12, 10, 4),
	}
	e := newTestEngine()
	require.NoError(t, e.Process(1, steps, nil))

	pts := xy(steps)
	assert.Equal(t, geom.Point{X: 8, Y: 10}, pts[4])
	assert.Equal(t, geom.Point{X: 12, Y: 10}, pts[5])
	assert.Equal(t, 2, e.Stats().Reverted)
}

func TestPushWallRevertsEarlierCorrection(t *testing.T) {
	e := newTestEngine()
	e.deposited = []Segment{
		{A: geom.Point{X: 0, Y: 9.6}, B: geom.Point{X: 20, Y: 9.6}},
		{A: geom.Point{X: 0, Y: 10.4}, B: geom.Point{X: 20, Y: 10.4}},
	}
	layer := []gcode.Step{
		move(gcode.MoveLin, 8, 10, 1),
		move(gcode.MoveLin, 10, 10, 2),
		move(gcode.MoveLin, 12, 10, 3),
	}
	s := newSequence(layer, []int{0, 1, 2})
	s.corrected[1] = geom.Point{X: 10, Y: 10.17}

	require.NoError(t, e.pushWall(s))
	assert.Equal(t, s.orig, s.corrected)
}

func TestPushWallNoMaterialLeavesCorrection(t *testing.T) {
	e := newTestEngine()
	layer := []gcode.Step{
		move(gcode.MoveLin, 8, 10, 1),
		move(gcode.MoveLin, 10, 10, 2),
	}
	s := newSequence(layer, []int{0, 1})
	s.corrected[0] = geom.Point{X: 8, Y: 10.17}

	require.NoError(t, e.pushWall(s))
	assert.Equal(t, geom.Point{X: 8, Y: 10.17}, s.corrected[0])
}

func TestPushWallDuplicatePointUnchanged(t *testing.T) {
	e := newTestEngine()
	e.deposited = []Segment{{A: geom.Point{X: 0, Y: 9.6}, B: geom.Point{X: 20, Y: 9.6}}}
	layer := []gcode.Step{
		move(gcode.MoveLin, 8, 10, 1),
		move(gcode.MoveLin, 8, 10, 2),
	}
	s := newSequence(layer, []int{0, 1})
	require.NoError(t, e.pushWall(s))
	assert.Equal(t, s.orig, s.corrected)
}

func TestProcessOutOfBounds(t *testing.T) {
	steps := []gcode.Step{
		move(gcode.MoveFast, 1, 1, 0),
		move(gcode.MoveLin, 0.05, 2, 1),
		move(gcode.MoveLin, 1, 3, 2),
	}
	before := xy(steps)
	err := newTestEngine().Process(7, steps, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfBounds))

	var berr *BoundsError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, 7, berr.Layer)
	assert.Equal(t, 1, berr.Step)
	assert.Less(t, berr.X, 0.0)
	// Nothing was clamped or written back.
	assert.Equal(t, before, xy(steps))
}

func TestProcessInputOutOfBounds(t *testing.T) {
	steps := []gcode.Step{
		move(gcode.MoveLin, 201, 5, 1),
		move(gcode.MoveLin, 202, 5, 2),
	}
	err := newTestEngine().Process(1, steps, nil)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestProcessHonoursBedSize(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BedSize = 300
	steps := []gcode.Step{
		move(gcode.MoveLin, 250, 250, 1),
		move(gcode.MoveLin, 260, 250, 2),
	}
	require.NoError(t, NewEngine(cfg, nil).Process(1, steps, nil))
}

func TestProcessClearsHistoryPerLayer(t *testing.T) {
	layer := func() []gcode.Step {
		return []gcode.Step{
			move(gcode.MoveLin, 5, 9.3, 1),
			move(gcode.MoveLin, 15, 9.3, 2),
			move(gcode.MoveFast, 8, 10, 2),
			move(gcode.MoveLin, 10, 10.5, 3),
			move(gcode.MoveLin, 12, 10, 4),
		}
	}
	e := newTestEngine()
	first := layer()
	require.NoError(t, e.Process(1, first, nil))
	second := layer()
	require.NoError(t, e.Process(2, second, nil))

	assert.Equal(t, xy(first), xy(second))
	assert.Len(t, e.Deposited(), 3)
}

func TestProcessSecondPassStable(t *testing.T) {
	steps := []gcode.Step{
		move(gcode.MoveFast, 30, 30, 0),
		move(gcode.MoveLin, 40, 30, 1),
	}
	e := newTestEngine()
	require.NoError(t, e.Process(1, steps, nil))
	once := xy(steps)
	require.NoError(t, e.Process(1, steps, nil))
	assert.Equal(t, once, xy(steps))
}

func TestProcessKeepsStepsAndOrder(t *testing.T) {
	steps := []gcode.Step{
		{Kind: gcode.NOP, Comment: "LAYER:1", Z: 0.2},
		move(gcode.MoveFast, 10, 10, 0),
		{Kind: gcode.FanOn, S: 255, X: 10, Y: 10, Z: 0.2},
		move(gcode.MoveLin, 20, 10, 1),
		{Kind: gcode.RetractStart, X: 20, Y: 10, Z: 0.2, E: 1},
		move(gcode.MoveLin, 20, 20, 2),
		move(gcode.MoveLin, 10, 20, 3),
	}
	kinds := make([]gcode.Kind, len(steps))
	for i, st := range steps {
		kinds[i] = st.Kind
	}
	require.NoError(t, newTestEngine().Process(1, steps, nil))
	require.Len(t, steps, 7)
	for i, st := range steps {
		assert.Equal(t, kinds[i], st.Kind)
	}
	assert.Equal(t, "LAYER:1", steps[0].Comment)
}

type recordingView struct {
	debugview.Nop
	polylines int
	points    []debugview.Color
	arrows    [][4]float64
}

func (v *recordingView) Polyline([]geom.Point, float64) { v.polylines++ }
func (v *recordingView) Point(x, y float64, c debugview.Color) {
	v.points = append(v.points, c)
}
func (v *recordingView) Arrow(x1, y1, x2, y2 float64) {
	v.arrows = append(v.arrows, [4]float64{x1, y1, x2, y2})
}

func TestProcessDrawsSequences(t *testing.T) {
	steps := []gcode.Step{
		move(gcode.MoveFast, 1, 1, 0),
		move(gcode.MoveLin, 5, 1, 1),
		move(gcode.MoveLin, 5, 5, 2),
	}
	v := &recordingView{}
	require.NoError(t, newTestEngine().Process(1, steps, v))

	assert.Equal(t, 1, v.polylines)
	assert.Equal(t, []debugview.Color{debugview.PathStart, debugview.PathEnd}, v.points)
	assert.Equal(t, [][4]float64{{5, 1, 5.12, 0.88}}, v.arrows)
}
