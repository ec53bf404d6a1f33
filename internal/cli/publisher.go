package cli

import (
	"github.com/rs/zerolog"

	"github.com/santiagomed/poststretch/internal/core"
)

type CliStepPublisher struct {
	layerChan chan core.LayerEvent
	errorChan chan error
	logger    *zerolog.Logger
}

func NewCliStepPublisher(logger *zerolog.Logger) *CliStepPublisher {
	return &CliStepPublisher{
		layerChan: make(chan core.LayerEvent, 100), // Buffer size of 100
		errorChan: make(chan error, 10),            // Buffer size of 10
		logger:    logger,
	}
}

// PublishLayer never blocks the pipeline. Layers are dropped when the
// display falls behind, the next one carries the running totals anyway.
func (p *CliStepPublisher) PublishLayer(ev core.LayerEvent) {
	select {
	case p.layerChan <- ev:
		p.logger.Trace().Int("layer", ev.Layer).Msg("Published layer")
	default:
		p.logger.Warn().Int("layer", ev.Layer).Msg("Failed to publish layer. Channel full.")
	}
}

func (p *CliStepPublisher) Error(step core.StepType, err error) {
	select {
	case p.errorChan <- err:
		p.logger.Debug().Msgf("Successfully published error for step: %v", step)
	default:
		p.logger.Warn().Msgf("Failed to publish error for step: %v. Channel full.", step)
	}
}
