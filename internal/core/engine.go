package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/santiagomed/poststretch/internal/config"
	"github.com/santiagomed/poststretch/internal/gcode"
	"github.com/santiagomed/poststretch/internal/stretch"
	"github.com/santiagomed/poststretch/pkg/fs"
)

// maxLineLength bounds a single input line.
const maxLineLength = 1 << 20

// Summary describes a completed run.
type Summary struct {
	Lines  int
	Layers int
	Moved  int
}

// Engine reads G-code, groups it into layers and runs the layer pipeline on
// each of them.
type Engine struct {
	pipeline *Pipeline
	writer   *gcode.Writer
	logger   *zerolog.Logger
}

func NewEngine(cfg *config.Config, fsys *fs.FileSystem, out io.Writer, pub StepPublisher, logger *zerolog.Logger) *Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	writer := gcode.NewWriter(out)
	pipeline := NewPipeline(&State{
		Config:     cfg,
		Stretch:    stretch.NewEngine(cfg, logger),
		Writer:     writer,
		FileSystem: fsys,
		Logger:     logger,
	}, pub)

	pipeline.AddStep(OpenDebugView)
	pipeline.AddStep(CorrectLayer)
	pipeline.AddStep(CloseDebugView)
	pipeline.AddStep(WriteLayer)

	return &Engine{pipeline: pipeline, writer: writer, logger: logger}
}

// Run processes r until end of input. Every line becomes one buffered step.
// A layer ends when a step changes Z; the last layer ends with the input.
// Output already written stays written when an error stops the run.
func (e *Engine) Run(ctx context.Context, r io.Reader) (summary Summary, err error) {
	defer func() {
		if ferr := e.writer.Flush(); ferr != nil {
			err = errors.Join(err, fmt.Errorf("failed to flush output: %w", ferr))
		}
	}()

	parser := gcode.NewParser()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var (
		layer  []gcode.Step
		layerZ float64
	)
	flush := func() error {
		if len(layer) == 0 {
			return nil
		}
		summary.Layers++
		if err := e.pipeline.Execute(summary.Layers, layer); err != nil {
			return err
		}
		summary.Moved += e.pipeline.state.Stats.Moved
		layer = layer[:0]
		return nil
	}

	e.logger.Debug().Msg("Starting run")
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		st, err := parser.Parse(scanner.Text())
		if err != nil {
			e.logger.Error().Err(err).Int("line", parser.Line()).Msg("Invalid gcode")
			return summary, fmt.Errorf("failed to parse line %d: %w", parser.Line(), err)
		}
		summary.Lines = parser.Line()

		if st.Z != layerZ {
			if err := flush(); err != nil {
				return summary, err
			}
			layerZ = st.Z
		}
		layer = append(layer, st)
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("failed to read input: %w", err)
	}
	if err := flush(); err != nil {
		return summary, err
	}

	e.logger.Debug().Int("lines", summary.Lines).Int("layers", summary.Layers).Int("moved", summary.Moved).Msg("Run completed")
	return summary, nil
}
