package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/bnsearch/pkg/recorder"
	"github.com/matzehuels/bnsearch/pkg/score"
	"github.com/matzehuels/bnsearch/pkg/search"
)

// Dashboard styles
var (
	dashLabelStyle = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	dashDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// dashboardRows is how many recent improvements the dashboard lists.
const dashboardRows = 8

// =============================================================================
// Messages
// =============================================================================

type sampleMsg struct {
	sample   recorder.Sample
	improved bool
}

type tickMsg time.Time

type doneMsg struct{}

// =============================================================================
// DashboardModel - live search progress
// =============================================================================

// DashboardModel is the bubbletea model showing a running search.
type DashboardModel struct {
	Title   string
	Method  string
	Limit   time.Duration
	Optimum score.Score

	Best         score.Score
	Samples      int
	Improvements []recorder.Sample
	Stopping     bool
	Done         bool

	start  time.Time
	now    time.Time
	cancel context.CancelFunc
}

// NewDashboardModel creates a dashboard; cancel stops the search when the
// user quits.
func NewDashboardModel(title, method string, limit time.Duration, optimum score.Score, cancel context.CancelFunc) DashboardModel {
	now := time.Now()
	return DashboardModel{
		Title:   title,
		Method:  method,
		Limit:   limit,
		Optimum: optimum,
		Best:    score.Max,
		start:   now,
		now:     now,
		cancel:  cancel,
	}
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m DashboardModel) Init() tea.Cmd {
	return tick()
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.Stopping && m.cancel != nil {
				m.cancel()
			}
			m.Stopping = true
		}
	case sampleMsg:
		m.Samples++
		if msg.improved {
			m.Best = msg.sample.Score
			m.Improvements = append(m.Improvements, msg.sample)
			if len(m.Improvements) > dashboardRows {
				m.Improvements = m.Improvements[len(m.Improvements)-dashboardRows:]
			}
		}
	case tickMsg:
		m.now = time.Time(msg)
		if m.Done {
			return m, nil
		}
		return m, tick()
	case doneMsg:
		m.Done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m DashboardModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString(" ")
	b.WriteString(dashDimStyle.Render(m.Method))
	b.WriteString("\n\n")

	elapsed := m.now.Sub(m.start).Truncate(time.Second).String()
	if m.Limit > 0 {
		elapsed += " / " + m.Limit.String()
	}
	rows := [][2]string{
		{"Elapsed", elapsed},
		{"Best", m.Best.String()},
		{"Gap", formatGap(m.Best, m.Optimum)},
		{"Samples", fmt.Sprintf("%d", m.Samples)},
	}
	for _, r := range rows {
		b.WriteString(dashLabelStyle.Render(r[0]) + " " + StyleValue.Render(r[1]) + "\n")
	}

	if len(m.Improvements) > 0 {
		trs := make([][]string, 0, len(m.Improvements))
		for i := len(m.Improvements) - 1; i >= 0; i-- {
			s := m.Improvements[i]
			trs = append(trs, []string{s.Elapsed.Round(time.Millisecond).String(), s.Score.String()})
		}
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
			Headers("Elapsed", "Score").
			Rows(trs...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == -1 {
					return styleHeader
				}
				if row == 0 {
					return lipgloss.NewStyle().Foreground(colorGreen)
				}
				return lipgloss.NewStyle().Foreground(colorDim)
			})
		b.WriteString("\n")
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.Stopping && !m.Done {
		b.WriteString(StyleWarning.Render("Stopping..."))
	} else {
		b.WriteString(dashDimStyle.Render("q stop"))
	}
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// Runner
// =============================================================================

// dashboard runs a search behind a DashboardModel. Samples reach the model
// through Send; bind the recorder's OnRecord to it before calling Run.
type dashboard struct {
	program *tea.Program
	cancel  context.CancelFunc
}

func newDashboard(ctx context.Context, title, method string, limit time.Duration, optimum score.Score) (*dashboard, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m := NewDashboardModel(title, method, limit, optimum, cancel)
	return &dashboard{
		program: tea.NewProgram(m, tea.WithOutput(os.Stderr)),
		cancel:  cancel,
	}, ctx
}

// Send forwards a recorder sample to the dashboard.
func (d *dashboard) Send(s recorder.Sample, improved bool) {
	d.program.Send(sampleMsg{sample: s, improved: improved})
}

// Run executes fn while the dashboard is shown and returns its result.
func (d *dashboard) Run(ctx context.Context, fn func(context.Context) (search.Result, error)) (search.Result, error) {
	defer d.cancel()

	type outcome struct {
		res search.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := fn(ctx)
		done <- outcome{res, err}
		d.program.Send(doneMsg{})
	}()

	if _, err := d.program.Run(); err != nil {
		d.cancel()
		out := <-done
		if out.err == nil {
			out.err = err
		}
		return out.res, out.err
	}
	out := <-done
	return out.res, out.err
}
