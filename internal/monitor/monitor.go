package monitor

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/sdpower/tokenflow-go/internal/aggregator"
	"github.com/sdpower/tokenflow-go/internal/config"
	"github.com/sdpower/tokenflow-go/internal/pipeline"
	"github.com/sdpower/tokenflow-go/internal/types"
)

// Options configure the live dashboard.
type Options struct {
	Roots    []string
	Config   config.Config
	Plan     string
	Interval time.Duration
	Timezone *time.Location
}

// Monitor re-runs ingestion on an interval and renders today's usage and the
// current week's rate-limit consumption.
type Monitor struct {
	options Options
}

func New(opts Options) *Monitor {
	if opts.Interval == 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.Timezone == nil {
		opts.Timezone = time.UTC
	}
	return &Monitor{options: opts}
}

func (m *Monitor) Start(ctx context.Context) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("monitor requires a terminal")
	}

	p := tea.NewProgram(
		initialModel(m.options),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}

type model struct {
	options    Options
	lastUpdate time.Time
	today      *types.DailyUsage
	rateInfo   types.RateLimitInfo
	stats      types.IngestStats
	err        error
}

type tickMsg time.Time

type dataMsg struct {
	today    *types.DailyUsage
	rateInfo types.RateLimitInfo
	stats    types.IngestStats
	err      error
}

func initialModel(opts Options) model {
	return model{options: opts, lastUpdate: time.Now()}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.options.Interval), m.refresh())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			return m, m.refresh()
		}

	case tickMsg:
		m.lastUpdate = time.Time(msg)
		return m, tea.Batch(tickCmd(m.options.Interval), m.refresh())

	case dataMsg:
		m.today = msg.today
		m.rateInfo = msg.rateInfo
		m.stats = msg.stats
		m.err = msg.err
	}

	return m, nil
}

// refresh runs a fresh ingestion; each run owns its own accumulators.
func (m model) refresh() tea.Cmd {
	opts := m.options
	return func() tea.Msg {
		p, err := pipeline.New(opts.Config, zerolog.Nop(), pipeline.Options{Streaming: true})
		if err != nil {
			return dataMsg{err: err}
		}

		entries, stats, err := p.Ingest(context.Background(), opts.Roots)
		if err != nil {
			return dataMsg{err: err}
		}

		agg := aggregator.New(opts.Config, zerolog.Nop())
		agg.SetTimezone(opts.Timezone)

		todayKey := time.Now().In(opts.Timezone).Format("2006-01-02")
		today := agg.Daily(entries)[todayKey]

		var rateInfo types.RateLimitInfo
		weeks := agg.Weekly(entries)
		if week := currentWeek(weeks, opts.Timezone); week != nil {
			rateInfo, _ = agg.RateLimits(week, opts.Plan)
		}

		return dataMsg{today: today, rateInfo: rateInfo, stats: stats}
	}
}

func currentWeek(weeks map[string]*types.WeeklyUsage, loc *time.Location) *types.WeeklyUsage {
	now := time.Now().In(loc)
	wd := int(now.Weekday())
	if wd == 0 {
		wd = 7
	}
	key := now.AddDate(0, 0, 1-wd).Format("2006-01-02")
	return weeks[key]
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("tokenflow monitor"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
	}

	if m.today != nil {
		b.WriteString(labelStyle.Render("Today      "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%d tokens  $%.4f  %d conversations",
			m.today.TotalTokens, m.today.Cost, m.today.ConversationCount())))
		b.WriteString("\n\n")
	} else {
		b.WriteString(labelStyle.Render("Today      no usage yet"))
		b.WriteString("\n\n")
	}

	families := make([]string, 0, len(m.rateInfo.PercentUsed))
	for family := range m.rateInfo.PercentUsed {
		families = append(families, family)
	}
	sort.Strings(families)

	for _, family := range families {
		pct := m.rateInfo.PercentUsed[family]
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-10s ", family)))
		b.WriteString(usageBar(pct.Max, 30))
		// Min end first, matching the table formatter's "Used %" column.
		b.WriteString(fmt.Sprintf("  %.0f%% - %.0f%% of weekly limit\n", pct.Min*100, pct.Max*100))
	}

	b.WriteString("\n")
	b.WriteString(footerStyle.Render(fmt.Sprintf(
		"files %d  skipped %d  updated %s  [q] quit  [r] refresh",
		m.stats.FilesFound, m.stats.SkippedLines, m.lastUpdate.Format("15:04:05"))))
	b.WriteString("\n")

	return b.String()
}

// usageBar renders a filled bar colored on a green-to-red gradient. Fractions
// above 1.0 render as a full red bar; the numbers next to it stay unclamped.
func usageBar(fraction float64, width int) string {
	display := fraction
	if display > 1 {
		display = 1
	}
	if display < 0 {
		display = 0
	}

	filled := int(display * float64(width))
	green, _ := colorful.Hex("#04b575")
	red, _ := colorful.Hex("#ed567a")
	color := green.BlendLuv(red, display).Hex()

	bar := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).
		Render(strings.Repeat("█", filled))
	rest := lipgloss.NewStyle().Foreground(lipgloss.Color("238")).
		Render(strings.Repeat("░", width-filled))
	return bar + rest
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
