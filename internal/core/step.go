package core

import (
	"github.com/rs/zerolog"

	"github.com/santiagomed/poststretch/internal/config"
	"github.com/santiagomed/poststretch/internal/debugview"
	"github.com/santiagomed/poststretch/internal/gcode"
	"github.com/santiagomed/poststretch/internal/stretch"
	"github.com/santiagomed/poststretch/pkg/fs"
)

// Step is one stage of the work done on every layer.
type Step interface {
	Execute(state *State) error
}

type StepType int

const (
	OpenDebugView StepType = iota
	CorrectLayer
	CloseDebugView
	WriteLayer
)

func (t StepType) String() string {
	switch t {
	case OpenDebugView:
		return "OpenDebugView"
	case CorrectLayer:
		return "CorrectLayer"
	case CloseDebugView:
		return "CloseDebugView"
	case WriteLayer:
		return "WriteLayer"
	}
	return "Unknown"
}

// State is shared by the steps. Layer and Steps change for every layer, the
// rest lives for the whole run.
type State struct {
	Layer int
	Steps []gcode.Step
	View  debugview.View
	Stats stretch.Stats

	Config     *config.Config
	Stretch    *stretch.Engine
	Writer     *gcode.Writer
	FileSystem *fs.FileSystem
	Logger     *zerolog.Logger
}
