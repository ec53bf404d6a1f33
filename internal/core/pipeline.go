package core

import (
	"fmt"
	"time"

	"github.com/santiagomed/poststretch/internal/gcode"
	"github.com/santiagomed/poststretch/internal/stretch"
)

// LayerEvent is published once a layer has been corrected and written.
type LayerEvent struct {
	Layer int
	Steps int
	Moved int
}

type StepPublisher interface {
	PublishLayer(ev LayerEvent)
	Error(step StepType, err error)
}

type DefaultStepPublisher struct{}

func (p *DefaultStepPublisher) PublishLayer(ev LayerEvent) {}

func (p *DefaultStepPublisher) Error(step StepType, err error) {}

// Pipeline runs the same steps on every layer.
type Pipeline struct {
	steps     []StepType
	state     *State
	publisher StepPublisher
}

func NewPipeline(state *State, pub StepPublisher) *Pipeline {
	if pub == nil {
		pub = &DefaultStepPublisher{}
	}
	return &Pipeline{
		state:     state,
		publisher: pub,
	}
}

func (p *Pipeline) AddStep(stepType StepType) {
	p.steps = append(p.steps, stepType)
}

// Execute runs every step on one layer. The steps are changed in place.
func (p *Pipeline) Execute(layer int, steps []gcode.Step) error {
	p.state.Layer = layer
	p.state.Steps = steps
	p.state.Stats = stretch.Stats{}
	for _, stepType := range p.steps {
		step := GetStep(stepType)
		if step == nil {
			p.state.Logger.Error().Msgf("Step %v not found", stepType)
			p.publisher.Error(stepType, fmt.Errorf("step %v not found", stepType))
			return fmt.Errorf("step %v not found", stepType)
		}

		startTime := time.Now()
		if err := step.Execute(p.state); err != nil {
			p.closeView()
			p.publisher.Error(stepType, err)
			return err
		}
		p.state.Logger.Trace().Msgf("Step %v on layer %d completed in %v", stepType, layer, time.Since(startTime))
	}

	p.publisher.PublishLayer(LayerEvent{Layer: layer, Steps: len(steps), Moved: p.state.Stats.Moved})
	return nil
}

// closeView makes sure a debug image is written even when a later step
// failed, so the faulty layer can be looked at.
func (p *Pipeline) closeView() {
	if p.state.View == nil {
		return
	}
	if err := p.state.View.Close(); err != nil {
		p.state.Logger.Warn().Err(err).Msg("Failed to write debug image")
	}
	p.state.View = nil
}
