package core

import (
	"fmt"

	"github.com/santiagomed/poststretch/internal/debugview"
)

var stepMap = map[StepType]Step{
	OpenDebugView:  &OpenDebugViewStep{},
	CorrectLayer:   &CorrectLayerStep{},
	CloseDebugView: &CloseDebugViewStep{},
	WriteLayer:     &WriteLayerStep{},
}

func GetStep(stepType StepType) Step {
	return stepMap[stepType]
}

type OpenDebugViewStep struct{}

func (s *OpenDebugViewStep) Execute(state *State) error {
	if state.Config.DumpLayer == 0 || state.Config.DumpLayer != state.Layer {
		state.View = debugview.Nop{}
		return nil
	}
	state.Logger.Debug().Int("layer", state.Layer).Str("path", state.Config.DebugImage).Msg("Opening debug image")
	view, err := debugview.NewPNG(state.FileSystem, state.Config.DebugImage, state.Config.BedSize, state.Layer)
	if err != nil {
		state.Logger.Error().Err(err).Msg("Failed to open debug image")
		return fmt.Errorf("failed to open debug image: %w", err)
	}
	state.View = view
	return nil
}

type CorrectLayerStep struct{}

func (s *CorrectLayerStep) Execute(state *State) error {
	state.Logger.Debug().Int("layer", state.Layer).Int("steps", len(state.Steps)).Msg("Correcting layer")
	if err := state.Stretch.Process(state.Layer, state.Steps, state.View); err != nil {
		state.Logger.Error().Err(err).Int("layer", state.Layer).Msg("Failed to correct layer")
		return fmt.Errorf("failed to correct layer %d: %w", state.Layer, err)
	}
	state.Stats = state.Stretch.Stats()
	return nil
}

type CloseDebugViewStep struct{}

func (s *CloseDebugViewStep) Execute(state *State) error {
	if state.View == nil {
		return nil
	}
	if err := state.View.Close(); err != nil {
		state.Logger.Error().Err(err).Msg("Failed to write debug image")
		return fmt.Errorf("failed to write debug image: %w", err)
	}
	state.View = nil
	return nil
}

type WriteLayerStep struct{}

func (s *WriteLayerStep) Execute(state *State) error {
	if err := state.Writer.WriteAll(state.Steps); err != nil {
		state.Logger.Error().Err(err).Int("layer", state.Layer).Msg("Failed to write layer")
		return fmt.Errorf("failed to write layer %d: %w", state.Layer, err)
	}
	return nil
}
