package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/flamecast/pkg/anneal"
	"github.com/matzehuels/flamecast/pkg/pipeline"
)

// Progress styles
var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
	panelStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

const (
	barWidth    = 40
	historySize = 8
)

// =============================================================================
// AnnealModel - Live annealing progress
// =============================================================================

type iterationMsg anneal.Iteration

type solveDoneMsg struct{ err error }

// AnnealModel is the bubbletea model that follows a running solve.
type AnnealModel struct {
	MaxIterations int
	Last          anneal.Iteration
	Accepted      int
	History       []anneal.Iteration // most recent accepted moves, newest last
	Started       time.Time
	Done          bool
	Err           error

	cancel context.CancelFunc
}

// NewAnnealModel creates a progress model. cancel is invoked when the user
// quits before the solve finishes.
func NewAnnealModel(maxIterations int, cancel context.CancelFunc) AnnealModel {
	return AnnealModel{MaxIterations: maxIterations, Started: time.Now(), cancel: cancel}
}

func (m AnnealModel) Init() tea.Cmd {
	return nil
}

func (m AnnealModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case iterationMsg:
		it := anneal.Iteration(msg)
		m.Last = it
		if it.Accepted {
			m.Accepted++
			m.History = append(m.History, it)
			if len(m.History) > historySize {
				m.History = m.History[len(m.History)-historySize:]
			}
		}
	case solveDoneMsg:
		m.Done, m.Err = true, msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m AnnealModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Annealing"))
	b.WriteString("\n\n")
	b.WriteString(m.bar())
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d/%d", m.Last.Index, m.MaxIterations)))
	b.WriteString("\n\n")

	rows := [][2]string{
		{"temperature", fmt.Sprintf("%.3g", m.Last.Temperature)},
		{"current", fmt.Sprintf("%.6f", m.Last.Current)},
		{"best", fmt.Sprintf("%.6f", m.Last.Best)},
		{"vertices", fmt.Sprintf("%d", m.Last.Vertices)},
		{"accepted", fmt.Sprintf("%d", m.Accepted)},
		{"elapsed", time.Since(m.Started).Round(time.Second).String()},
	}
	for _, r := range rows {
		b.WriteString(StyleDim.Render(fmt.Sprintf("%-12s", r[0])))
		b.WriteString(StyleValue.Render(r[1]))
		b.WriteString("\n")
	}

	if len(m.History) > 0 {
		var h strings.Builder
		for i, it := range m.History {
			if i > 0 {
				h.WriteString("\n")
			}
			move := "-"
			if it.Neighbor != nil {
				move = it.Neighbor.Kind.String()
			}
			fmt.Fprintf(&h, "%5d  %-8s %.6f", it.Index, move, it.Cost)
		}
		b.WriteString("\n")
		b.WriteString(panelStyle.Render(h.String()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q: stop"))
	b.WriteString("\n")
	return b.String()
}

func (m AnnealModel) bar() string {
	if m.MaxIterations <= 0 {
		return ""
	}
	full := min(barWidth, m.Last.Index*barWidth/m.MaxIterations)
	return barFullStyle.Render(strings.Repeat("█", full)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-full))
}

// =============================================================================
// Runner integration
// =============================================================================

type solveOutcome struct {
	result *pipeline.Result
	err    error
}

// solveWithProgress runs the solve in the background and renders its
// iterations until it finishes or the user quits.
func solveWithProgress(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewAnnealModel(opts.Anneal.MaxIterations, cancel),
		tea.WithContext(ctx), tea.WithOutput(os.Stderr))

	opts.OnIteration = func(it anneal.Iteration) { p.Send(iterationMsg(it)) }
	// Log lines would tear the view.
	opts.Logger = log.New(io.Discard)

	done := make(chan solveOutcome, 1)
	go func() {
		result, err := runner.Solve(ctx, opts)
		done <- solveOutcome{result, err}
		p.Send(solveDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		<-done
		return nil, err
	}
	out := <-done
	return out.result, out.err
}
