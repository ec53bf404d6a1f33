package gcode

import (
	"bufio"
	"io"
	"strconv"
)

// Writer serializes steps back to text. Only the parameters that differ from
// the previously written step are emitted, so
//
//	G1 X10 Y10 Z10
//	G1 X10 Y11 Z10
//
// is written as
//
//	G1 X10 Y10 Z10
//	G1 X10 Y11
type Writer struct {
	w    *bufio.Writer
	last Step
	err  error
}

// NewWriter returns a Writer emitting to w, starting from an all-zero state.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write emits one line for st. Once a write has failed, Write and Flush
// keep returning that first error.
func (wr *Writer) Write(st Step) error {
	switch st.Kind {
	case FanOn:
		wr.str("M106 S")
		wr.str(strconv.Itoa(st.S))
	case FanOff:
		wr.str("M107")
	case RetractStart:
		wr.str("G10")
	case RetractStop:
		wr.str("G11")
	case MoveFast:
		wr.str("G0")
		wr.params(st)
	case MoveLin:
		wr.str("G1")
		wr.params(st)
	case DefinePos:
		wr.str("G92")
		wr.params(st)
	}
	if st.Comment != "" {
		wr.str(";")
		wr.str(st.Comment)
	}
	wr.str("\n")

	wr.last = st
	return wr.err
}

func (wr *Writer) str(s string) {
	if wr.err != nil {
		return
	}
	_, wr.err = wr.w.WriteString(s)
}

// WriteAll writes every step of a layer in order.
func (wr *Writer) WriteAll(steps []Step) error {
	for _, st := range steps {
		if err := wr.Write(st); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (wr *Writer) Flush() error {
	if wr.err != nil {
		return wr.err
	}
	wr.err = wr.w.Flush()
	return wr.err
}

// params writes the axis parameters of G0, G1 and G92. X and Y always go
// together, and also follow a Z change.
func (wr *Writer) params(st Step) {
	if wr.last.F != st.F {
		wr.param("F", st.F)
	}
	if wr.last.X != st.X || wr.last.Y != st.Y || wr.last.Z != st.Z {
		wr.param("X", st.X)
		wr.param("Y", st.Y)
	}
	if wr.last.Z != st.Z {
		wr.param("Z", st.Z)
	}
	if wr.last.E != st.E {
		wr.param("E", st.E)
	}
}

func (wr *Writer) param(name string, v float64) {
	wr.str(" ")
	wr.str(name)
	wr.str(FormatNumber(v))
}

// FormatNumber formats v with ten significant digits and no trailing zeros.
// Every axis gets ten digits from the first line on, where post_stretch
// printed X, Y, Z and F with six until the first E value.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}
