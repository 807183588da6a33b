package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/sdpower/tokenflow-go/internal/types"
)

// Formatter renders aggregate views as terminal tables or JSON.
type Formatter struct {
	format string
}

func NewFormatter(format string) *Formatter {
	return &Formatter{format: format}
}

func (f *Formatter) newTable(buf *bytes.Buffer) *tablewriter.Table {
	return tablewriter.NewTable(buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On}},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignRight},
			},
		}),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
}

// FormatDaily renders the daily buckets plus the run's skip counters.
func (f *Formatter) FormatDaily(days []*types.DailyUsage, stats types.IngestStats) (string, error) {
	if f.format == "json" {
		return marshalJSON(struct {
			Days  []*types.DailyUsage `json:"days"`
			Stats types.IngestStats   `json:"stats"`
		}{days, stats})
	}

	var buf bytes.Buffer
	table := f.newTable(&buf)
	table.Header([]string{"Date", "Models", "Input", "Output", "Cache\nRead", "Total\nTokens", "Convos", "Cost\n(USD)"})

	var totalTokens, totalConvos int
	var totalCost float64
	for _, day := range days {
		table.Append([]string{
			day.Date,
			shortModels(day.ModelList()),
			formatNumberWithCommas(day.InputTokens),
			formatNumberWithCommas(day.OutputTokens),
			formatNumberWithCommas(day.CacheReadTokens),
			formatNumberWithCommas(day.TotalTokens),
			strconv.Itoa(day.ConversationCount()),
			fmt.Sprintf("$%.4f", day.Cost),
		})
		totalTokens += day.TotalTokens
		totalConvos += day.ConversationCount()
		totalCost += day.Cost
	}

	table.Footer([]string{
		"Total", "", "", "",
		"",
		formatNumberWithCommas(totalTokens),
		strconv.Itoa(totalConvos),
		fmt.Sprintf("$%.4f", totalCost),
	})
	table.Render()

	fmt.Fprintf(&buf, "\nFiles: %d (%d failed)  Skipped lines: %d  Duplicates: %d\n",
		stats.FilesFound, stats.FilesFailed, stats.SkippedLines, stats.DuplicateIDs)

	return buf.String(), nil
}

// FormatWeekly renders the weekly buckets with estimated hour ranges.
func (f *Formatter) FormatWeekly(weeks []*types.WeeklyUsage) (string, error) {
	if f.format == "json" {
		return marshalJSON(weeks)
	}

	var buf bytes.Buffer
	table := f.newTable(&buf)
	table.Header([]string{"Week", "Models", "Total\nTokens", "Convos", "Est. Hours", "Cost\n(USD)"})

	for _, week := range weeks {
		table.Append([]string{
			week.WeekStart + " - " + week.WeekEnd,
			shortModels(week.ModelList()),
			formatNumberWithCommas(week.TotalTokens),
			strconv.Itoa(week.ConversationCount()),
			formatHours(week.EstimatedHours),
			fmt.Sprintf("$%.4f", week.Cost),
		})
	}

	table.Render()
	return buf.String(), nil
}

// FormatRateLimits renders one week's plan consumption. Percentages above
// 100% are shown as-is.
func (f *Formatter) FormatRateLimits(info types.RateLimitInfo) (string, error) {
	if f.format == "json" {
		return marshalJSON(info)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Plan: %s  Week of %s\n\n", info.Plan, info.WeekStart)

	table := f.newTable(&buf)
	table.Header([]string{"Family", "Used", "Weekly Limit", "Used %"})

	families := make([]string, 0, len(info.Limits))
	for family := range info.Limits {
		families = append(families, family)
	}
	sort.Strings(families)

	for _, family := range families {
		limit := info.Limits[family]
		pct := info.PercentUsed[family]
		table.Append([]string{
			family,
			formatNumberWithCommas(info.Usage[family]),
			fmt.Sprintf("%s - %s", formatNumberWithCommas(limit.Min), formatNumberWithCommas(limit.Max)),
			fmt.Sprintf("%.0f%% - %.0f%%", pct.Min*100, pct.Max*100),
		})
	}

	table.Render()
	return buf.String(), nil
}

func marshalJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func formatHours(hours map[string]types.Range) string {
	if len(hours) == 0 {
		return "-"
	}
	families := make([]string, 0, len(hours))
	for family := range hours {
		families = append(families, family)
	}
	sort.Strings(families)

	parts := make([]string, 0, len(families))
	for _, family := range families {
		r := hours[family]
		parts = append(parts, fmt.Sprintf("%s %.1f-%.1fh", family, r.Min, r.Max))
	}
	return strings.Join(parts, ", ")
}

func shortModels(models []string) string {
	short := make([]string, 0, len(models))
	for _, m := range models {
		short = append(short, ShortenModelName(m))
	}
	return strings.Join(short, "\n")
}

// formatNumberWithCommas formats a number with thousand separators.
func formatNumberWithCommas(n int) string {
	if n < 0 {
		return "-" + formatNumberWithCommas(-n)
	}
	if n < 1000 {
		return strconv.Itoa(n)
	}
	return formatNumberWithCommas(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}

var (
	minorVersionRe = regexp.MustCompile(`^claude-(\w+)-(\d+)-(\d+)-\d+`)
	majorVersionRe = regexp.MustCompile(`^claude-(\w+)-(\d+)-\d+`)
)

// ShortenModelName reduces a model id to a display form, e.g.
// claude-sonnet-4-5-20250929 -> Sonnet-4.5 and claude-opus-4-20250514 ->
// Opus-4. Unrecognized ids are truncated.
func ShortenModelName(model string) string {
	if matches := minorVersionRe.FindStringSubmatch(model); matches != nil {
		return fmt.Sprintf("%s-%s.%s", title(matches[1]), matches[2], matches[3])
	}
	if matches := majorVersionRe.FindStringSubmatch(model); matches != nil {
		return fmt.Sprintf("%s-%s", title(matches[1]), matches[2])
	}
	if len(model) > 12 {
		return model[:12]
	}
	return model
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
