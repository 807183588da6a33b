package aggregator

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/sdpower/tokenflow-go/internal/config"
	"github.com/sdpower/tokenflow-go/internal/types"
)

const tokensPerMillion = 1e6

// Aggregator folds an ordered entry sequence into daily and weekly buckets.
// It is single-consumer state for one run and is not safe for concurrent use.
type Aggregator struct {
	cfg          config.Config
	loc          *time.Location
	log          zerolog.Logger
	warnedModels map[string]struct{}
}

func New(cfg config.Config, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		cfg:          cfg,
		loc:          time.UTC,
		log:          log,
		warnedModels: make(map[string]struct{}),
	}
}

// SetTimezone controls which calendar date and week an instant falls into.
func (a *Aggregator) SetTimezone(loc *time.Location) {
	if loc != nil {
		a.loc = loc
	}
}

// EntryCost returns the USD cost of one entry. A source-supplied cost is
// used as-is; otherwise the cost is derived from the pricing table, with a
// zero-cost fallback (and one warning per model per run) for unknown models.
// The batch-API discount applies to derived costs.
func (a *Aggregator) EntryCost(entry types.UsageEntry) float64 {
	if entry.HasCost {
		return entry.CostUSD
	}

	price, ok := a.cfg.PriceFor(entry.Model)
	if !ok {
		if _, warned := a.warnedModels[entry.Model]; !warned {
			a.warnedModels[entry.Model] = struct{}{}
			a.log.Warn().Str("model", entry.Model).Msg("unknown model pricing, assuming zero cost")
		}
		return 0
	}

	cost := float64(entry.InputTokens)*price.Input/tokensPerMillion +
		float64(entry.OutputTokens)*price.Output/tokensPerMillion +
		float64(entry.CacheReadTokens)*price.Cached/tokensPerMillion

	if entry.IsBatchAPI {
		cost *= a.cfg.BatchAPIDiscount
	}

	return cost
}

// Daily folds entries into per-date buckets, created lazily on first touch.
func (a *Aggregator) Daily(entries []types.UsageEntry) map[string]*types.DailyUsage {
	buckets := make(map[string]*types.DailyUsage)

	for _, entry := range entries {
		key := entry.Timestamp.In(a.loc).Format("2006-01-02")

		bucket, ok := buckets[key]
		if !ok {
			bucket = &types.DailyUsage{
				Date:          key,
				Conversations: make(map[string]struct{}),
				Models:        make(map[string]struct{}),
			}
			buckets[key] = bucket
		}

		bucket.InputTokens += entry.InputTokens
		bucket.OutputTokens += entry.OutputTokens
		bucket.CacheCreationTokens += entry.CacheCreationTokens
		bucket.CacheReadTokens += entry.CacheReadTokens
		bucket.TotalTokens += entry.TotalTokens
		bucket.Cost += a.EntryCost(entry)
		bucket.EntryCount++

		if entry.ConversationID != "" {
			bucket.Conversations[entry.ConversationID] = struct{}{}
		}
		bucket.Models[entry.Model] = struct{}{}
	}

	return buckets
}

// Weekly folds entries into ISO-week buckets keyed by the Monday date and
// derives the per-family estimated hour ranges from the configured
// tokens-per-hour rates.
func (a *Aggregator) Weekly(entries []types.UsageEntry) map[string]*types.WeeklyUsage {
	buckets := make(map[string]*types.WeeklyUsage)

	for _, entry := range entries {
		monday := weekStart(entry.Timestamp.In(a.loc))
		key := monday.Format("2006-01-02")

		bucket, ok := buckets[key]
		if !ok {
			bucket = &types.WeeklyUsage{
				WeekStart:      key,
				WeekEnd:        monday.AddDate(0, 0, 6).Format("2006-01-02"),
				Conversations:  make(map[string]struct{}),
				Models:         make(map[string]struct{}),
				FamilyTokens:   make(map[string]int),
				EstimatedHours: make(map[string]types.Range),
			}
			buckets[key] = bucket
		}

		bucket.InputTokens += entry.InputTokens
		bucket.OutputTokens += entry.OutputTokens
		bucket.CacheCreationTokens += entry.CacheCreationTokens
		bucket.CacheReadTokens += entry.CacheReadTokens
		bucket.TotalTokens += entry.TotalTokens
		bucket.Cost += a.EntryCost(entry)
		bucket.EntryCount++

		if entry.ConversationID != "" {
			bucket.Conversations[entry.ConversationID] = struct{}{}
		}
		bucket.Models[entry.Model] = struct{}{}
		bucket.FamilyTokens[config.ModelFamily(entry.Model)] += entry.TotalTokens
	}

	for _, bucket := range buckets {
		for family, tokens := range bucket.FamilyTokens {
			rate, ok := a.cfg.TokensPerHour[family]
			if !ok {
				continue
			}
			bucket.EstimatedHours[family] = types.Range{
				Min: float64(tokens) / rate.MinTokensPerHour,
				Max: float64(tokens) / rate.MaxTokensPerHour,
			}
		}
	}

	return buckets
}

// RateLimits computes percent-used per model family for one week against a
// plan's weekly allowances. Values are per-end (usage/min, usage/max) and
// unclamped; presentation of over-limit states is the caller's concern.
func (a *Aggregator) RateLimits(week *types.WeeklyUsage, plan string) (types.RateLimitInfo, error) {
	limits, ok := a.cfg.LimitsFor(plan)
	if !ok {
		return types.RateLimitInfo{}, fmt.Errorf("%w: unknown plan %q", types.ErrInvalidConfig, plan)
	}

	info := types.RateLimitInfo{
		Plan:        plan,
		WeekStart:   week.WeekStart,
		Limits:      make(map[string]types.TokenRange, len(limits)),
		Usage:       make(map[string]int, len(limits)),
		PercentUsed: make(map[string]types.Range, len(limits)),
	}

	for family, limit := range limits {
		usage := week.FamilyTokens[family]
		info.Limits[family] = limit
		info.Usage[family] = usage
		info.PercentUsed[family] = types.Range{
			Min: ratio(usage, limit.Min),
			Max: ratio(usage, limit.Max),
		}
	}

	return info, nil
}

func ratio(usage, limit int) float64 {
	if limit == 0 {
		return 0
	}
	return float64(usage) / float64(limit)
}

// SortedDaily returns the daily buckets ordered by date.
func SortedDaily(buckets map[string]*types.DailyUsage) []*types.DailyUsage {
	out := make([]*types.DailyUsage, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// SortedWeekly returns the weekly buckets ordered by week start.
func SortedWeekly(buckets map[string]*types.WeeklyUsage) []*types.WeeklyUsage {
	out := make([]*types.WeeklyUsage, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart < out[j].WeekStart })
	return out
}

// weekStart floors an instant to the Monday of its ISO week.
func weekStart(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, 1-wd)
}
