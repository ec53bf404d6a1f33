// Package gcode reads and writes the subset of G-code emitted by slicers
// that poststretch understands.
package gcode

import "fmt"

// Kind identifies the instruction carried by a Step.
type Kind int

const (
	NOP          Kind = iota // empty line or comment only
	FanOn                    // M106
	FanOff                   // M107
	RetractStart             // G10
	RetractStop              // G11
	MoveFast                 // G0
	MoveLin                  // G1
	DefinePos                // G92
)

var kindNames = map[Kind]string{
	NOP:          "NOP",
	FanOn:        "FanOn",
	FanOff:       "FanOff",
	RetractStart: "RetractStart",
	RetractStop:  "RetractStop",
	MoveFast:     "MoveFast",
	MoveLin:      "MoveLin",
	DefinePos:    "DefinePos",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsMove reports whether k moves the head.
func (k Kind) IsMove() bool {
	return k == MoveFast || k == MoveLin
}

// Step is one line of G-code. Position fields hold the machine state after
// the line, not only the parameters written on it.
type Step struct {
	Kind    Kind
	X       float64
	Y       float64
	Z       float64
	E       float64 // extrusion position
	F       float64 // feed rate
	S       int     // fan speed
	Comment string
}

func (s Step) String() string {
	if s.Kind == MoveLin {
		return fmt.Sprintf("%v X=%g Y=%g E=%g", s.Kind, s.X, s.Y, s.E)
	}
	return s.Kind.String()
}
