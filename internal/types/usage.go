package types

import (
	"sort"
	"time"
)

// UsageEntry is one validated usage record from the log corpus. Entries are
// constructed only after schema validation and never mutated afterwards.
type UsageEntry struct {
	ID                  string    `json:"id"`
	Timestamp           time.Time `json:"timestamp"`
	ConversationID      string    `json:"conversation_id"`
	MessageID           string    `json:"message_id,omitempty"`
	Model               string    `json:"model"`
	InputTokens         int       `json:"input_tokens"`
	OutputTokens        int       `json:"output_tokens"`
	TotalTokens         int       `json:"total_tokens"`
	CacheCreationTokens int       `json:"cache_creation_tokens,omitempty"`
	CacheReadTokens     int       `json:"cache_read_tokens,omitempty"`
	CostUSD             float64   `json:"cost_usd,omitempty"`
	HasCost             bool      `json:"-"`
	IsBatchAPI          bool      `json:"is_batch_api,omitempty"`
}

// DedupKey identifies a logically identical record replayed across files.
// Empty when either ID is missing, in which case no deduplication applies.
func (e UsageEntry) DedupKey() string {
	if e.MessageID == "" || e.ID == "" {
		return ""
	}
	return e.MessageID + ":" + e.ID
}

// Range is a min/max pair. The ends are independent values, not an ordered
// interval: callers compute each end against the matching end of another
// range and never reorder them.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// TokenRange is a min/max token allowance pair.
type TokenRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DailyUsage accumulates usage for one calendar date. Buckets are created
// lazily on first touch and live only for the duration of one run.
type DailyUsage struct {
	Date                string              `json:"date"`
	InputTokens         int                 `json:"input_tokens"`
	OutputTokens        int                 `json:"output_tokens"`
	CacheCreationTokens int                 `json:"cache_creation_tokens"`
	CacheReadTokens     int                 `json:"cache_read_tokens"`
	TotalTokens         int                 `json:"total_tokens"`
	Cost                float64             `json:"cost"`
	EntryCount          int                 `json:"entry_count"`
	Conversations       map[string]struct{} `json:"-"`
	Models              map[string]struct{} `json:"-"`
}

// ConversationCount reports distinct conversations seen in the bucket.
func (d *DailyUsage) ConversationCount() int {
	return len(d.Conversations)
}

// ModelList returns the distinct models seen in the bucket, sorted.
func (d *DailyUsage) ModelList() []string {
	models := make([]string, 0, len(d.Models))
	for m := range d.Models {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}

// WeeklyUsage accumulates usage for one ISO week, keyed by the Monday date.
type WeeklyUsage struct {
	WeekStart           string              `json:"week_start"`
	WeekEnd             string              `json:"week_end"`
	InputTokens         int                 `json:"input_tokens"`
	OutputTokens        int                 `json:"output_tokens"`
	CacheCreationTokens int                 `json:"cache_creation_tokens"`
	CacheReadTokens     int                 `json:"cache_read_tokens"`
	TotalTokens         int                 `json:"total_tokens"`
	Cost                float64             `json:"cost"`
	EntryCount          int                 `json:"entry_count"`
	Conversations       map[string]struct{} `json:"-"`
	Models              map[string]struct{} `json:"-"`
	FamilyTokens        map[string]int      `json:"family_tokens"`
	EstimatedHours      map[string]Range    `json:"estimated_hours"`
}

// ConversationCount reports distinct conversations seen in the bucket.
func (w *WeeklyUsage) ConversationCount() int {
	return len(w.Conversations)
}

// ModelList returns the distinct models seen in the bucket, sorted.
func (w *WeeklyUsage) ModelList() []string {
	models := make([]string, 0, len(w.Models))
	for m := range w.Models {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}

// RateLimitInfo relates one week's usage to a plan's weekly allowances.
// PercentUsed is computed per end (usage/limit.Min, usage/limit.Max) and is
// deliberately unclamped; values above 1.0 mean over-limit.
type RateLimitInfo struct {
	Plan        string                `json:"plan"`
	WeekStart   string                `json:"week_start"`
	Limits      map[string]TokenRange `json:"limits"`
	Usage       map[string]int        `json:"usage"`
	PercentUsed map[string]Range      `json:"percent_used"`
}

// IngestStats summarizes one ingestion run for observability.
type IngestStats struct {
	FilesFound   int `json:"files_found"`
	FilesFailed  int `json:"files_failed"`
	ValidEntries int `json:"valid_entries"`
	SkippedLines int `json:"skipped_lines"`
	DuplicateIDs int `json:"duplicate_ids"`
}

// Add folds per-file stats into run totals.
func (s *IngestStats) Add(other IngestStats) {
	s.FilesFound += other.FilesFound
	s.FilesFailed += other.FilesFailed
	s.ValidEntries += other.ValidEntries
	s.SkippedLines += other.SkippedLines
	s.DuplicateIDs += other.DuplicateIDs
}
