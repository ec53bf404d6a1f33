package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/santiagomed/poststretch/internal/core"
	"github.com/santiagomed/poststretch/pkg/fs"
)

type progressMsg float64

type runDoneMsg struct {
	summary core.Summary
	err     error
}

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Render

const (
	padding  = 2
	maxWidth = 80
)

type runModel struct {
	progress  progress.Model
	spinner   spinner.Model
	sized     bool
	name      string
	layer     int
	publisher *CliStepPublisher
	done      chan struct{}
	cancel    context.CancelFunc
	finished  bool
}

func newRunModel(in *fs.Input, pub *CliStepPublisher, done chan struct{}, cancel context.CancelFunc) runModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("202"))

	return runModel{
		progress:  progress.New(progress.WithGradient("#FFBA08", "#F48C06")),
		spinner:   s,
		sized:     in.Size > 0,
		name:      in.Name,
		publisher: pub,
		done:      done,
		cancel:    cancel,
	}
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForNextLayer)
}

// listenForNextLayer waits for the next corrected layer, or for the end of
// the run.
func (m runModel) listenForNextLayer() tea.Msg {
	select {
	case ev := <-m.publisher.layerChan:
		return ev
	case <-m.done:
		return nil
	}
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			m.cancel()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - padding*2 - 4
		if m.progress.Width > maxWidth {
			m.progress.Width = maxWidth
		}
		return m, nil

	case core.LayerEvent:
		m.layer = msg.Layer
		return m, m.listenForNextLayer

	case progressMsg:
		return m, m.progress.SetPercent(float64(msg))

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case runDoneMsg:
		m.finished = true
		if msg.err != nil {
			return m, tea.Quit
		}
		return m, tea.Sequence(m.progress.SetPercent(1.0), finalPause(), tea.Quit)
	}
	return m, nil
}

func (m runModel) View() string {
	if m.finished {
		return ""
	}
	pad := strings.Repeat(" ", padding)
	bar := m.spinner.View() + " " + m.name
	if m.sized {
		bar = m.progress.View()
	}
	return "\n" +
		pad + bar + "\n" +
		pad + fmt.Sprintf("layer %d", m.layer) + "\n\n" +
		pad + helpStyle("Press ctrl+c to stop") + "\n"
}

func finalPause() tea.Cmd {
	return tea.Tick(time.Millisecond*250, func(_ time.Time) tea.Msg {
		return nil
	})
}

// progressWriter counts the bytes read from the input. It is fed through an
// io.TeeReader.
type progressWriter struct {
	total      int64
	read       int64
	last       int
	onProgress func(float64)
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.read += int64(len(p))
	if pw.total <= 0 || pw.onProgress == nil {
		return len(p), nil
	}
	// One update per percent is enough for the bar.
	if pct := int(pw.read * 100 / pw.total); pct != pw.last {
		pw.last = pct
		pw.onProgress(float64(pw.read) / float64(pw.total))
	}
	return len(p), nil
}

// runWithProgress runs engine over in while a progress display is shown on
// stderr. Keys are only read when stdin is not the input.
func runWithProgress(ctx context.Context, engine *core.Engine, in *fs.Input, pub *CliStepPublisher, readKeys bool) (core.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	opts := []tea.ProgramOption{tea.WithOutput(os.Stderr), tea.WithContext(ctx)}
	if !readKeys {
		opts = append(opts, tea.WithInput(nil))
	}

	var p *tea.Program
	pw := &progressWriter{
		total: in.Size,
		onProgress: func(ratio float64) {
			p.Send(progressMsg(ratio))
		},
	}
	p = tea.NewProgram(newRunModel(in, pub, done, cancel), opts...)

	results := make(chan runDoneMsg, 1)
	go func() {
		summary, err := engine.Run(ctx, io.TeeReader(in, pw))
		res := runDoneMsg{summary: summary, err: err}
		results <- res
		close(done)
		p.Send(res)
	}()

	_, perr := p.Run()
	if perr != nil {
		cancel()
	}
	res := <-results
	if res.err == nil && perr != nil && ctx.Err() == nil {
		return res.summary, fmt.Errorf("error running program: %w", perr)
	}
	return res.summary, res.err
}
