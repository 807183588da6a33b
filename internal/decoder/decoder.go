package decoder

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/sdpower/tokenflow-go/internal/types"
)

// rawRecord is the wire shape of one log line. Only assistant records that
// carry both a model and a usage block become entries; everything else is
// ignored without counting.
type rawRecord struct {
	Type         string      `json:"type"`
	SessionID    string      `json:"sessionId"`
	SessionIDAlt string      `json:"session_id"`
	RequestID    string      `json:"requestId"`
	Timestamp    string      `json:"timestamp"`
	IsBatchAPI   bool        `json:"isBatchAPI"`
	Cost         *float64    `json:"cost"`
	CostUSD      *float64    `json:"costUSD"`
	Message      *rawMessage `json:"message"`
}

type rawMessage struct {
	ID    string    `json:"id"`
	Model string    `json:"model"`
	Usage *rawUsage `json:"usage"`
}

type rawUsage struct {
	InputTokens         *int `json:"input_tokens"`
	OutputTokens        *int `json:"output_tokens"`
	TotalTokens         *int `json:"total_tokens"`
	CacheCreationTokens *int `json:"cache_creation_input_tokens"`
	CacheReadTokens     *int `json:"cache_read_input_tokens"`
}

func (r *rawRecord) sessionID() string {
	if r.SessionID != "" {
		return r.SessionID
	}
	return r.SessionIDAlt
}

// FileStats counts one file's decode outcomes.
type FileStats struct {
	Valid   int
	Skipped int
}

// Decoder turns one file's raw bytes into schema-valid entries. It reads in
// fixed-size chunks and splits on line boundaries, so arbitrarily large files
// are handled in bounded memory (bounded by the per-line cap).
type Decoder struct {
	log        zerolog.Logger
	diagnostic bool
	now        func() time.Time
}

func New(log zerolog.Logger) *Decoder {
	return &Decoder{
		log: log,
		now: time.Now,
	}
}

// SetDiagnostic enables per-line debug logging. Production mode leaves this
// off; skipped lines are still counted either way.
func (d *Decoder) SetDiagnostic(diagnostic bool) {
	d.diagnostic = diagnostic
}

// SetClock overrides the timestamp-default source.
func (d *Decoder) SetClock(now func() time.Time) {
	d.now = now
}

// DecodeFile produces the valid entries of one file in on-disk line order.
// Malformed lines are skipped and counted, never fatal; only stream-level
// I/O failures return an error, which callers isolate to this file.
func (d *Decoder) DecodeFile(path string) ([]types.UsageEntry, FileStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, FileStats{}, types.LoaderError{Path: path, Err: err}
	}
	defer file.Close()

	var entries []types.UsageEntry
	var stats FileStats

	scanner := bufio.NewScanner(file)
	// 64KB chunks, growing to a 1MB per-line cap. ScanLines strips \r, so
	// CRLF input behaves the same as LF.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if isBlank(line) {
			stats.Skipped++
			continue
		}

		var raw rawRecord
		if err := json.Unmarshal(line, &raw); err != nil {
			stats.Skipped++
			if d.diagnostic {
				perr := types.ParseError{Line: lineNum, Err: err}
				d.log.Debug().Str("file", filepath.Base(path)).Msg(perr.Error())
			}
			continue
		}

		// Only completed assistant responses with a model and a usage block
		// are candidates; other record kinds are not counted as skipped.
		if raw.Type != "assistant" || raw.Message == nil || raw.Message.Model == "" || raw.Message.Usage == nil {
			continue
		}
		if raw.Message.Model == "<synthetic>" {
			continue
		}

		entry, violations := d.buildEntry(&raw, lineNum)
		if len(violations) > 0 {
			stats.Skipped++
			if d.diagnostic {
				verr := types.ValidationError{Line: lineNum, Violations: violations}
				d.log.Debug().Str("file", filepath.Base(path)).Msg(verr.Error())
			}
			continue
		}

		entries = append(entries, entry)
		stats.Valid++
	}

	if err := scanner.Err(); err != nil {
		return nil, FileStats{}, types.LoaderError{Path: path, Err: err}
	}

	d.log.Debug().
		Str("file", filepath.Base(path)).
		Int("valid", stats.Valid).
		Int("skipped", stats.Skipped).
		Msg("decoded file")

	return entries, stats, nil
}

// buildEntry applies defaults to a candidate record, then validates it. A
// non-empty violation list means the line is skipped; no partially-valid
// entry ever enters the stream.
func (d *Decoder) buildEntry(raw *rawRecord, lineNum int) (types.UsageEntry, []string) {
	var violations []string

	entry := types.UsageEntry{
		ConversationID: raw.sessionID(),
		MessageID:      raw.Message.ID,
		Model:          raw.Message.Model,
		IsBatchAPI:     raw.IsBatchAPI,
	}

	entry.ID = raw.RequestID
	if entry.ID == "" {
		if raw.sessionID() == "" {
			violations = append(violations, "id: neither requestId nor sessionId present")
		} else {
			entry.ID = fmt.Sprintf("%s-%d", raw.sessionID(), lineNum)
		}
	}

	if raw.Timestamp == "" {
		entry.Timestamp = d.now()
	} else {
		ts, err := parseTimestamp(raw.Timestamp)
		if err != nil {
			violations = append(violations, fmt.Sprintf("timestamp: %v", err))
		} else {
			entry.Timestamp = ts
		}
	}

	usage := raw.Message.Usage
	entry.InputTokens = intOrZero(usage.InputTokens)
	entry.OutputTokens = intOrZero(usage.OutputTokens)
	entry.CacheCreationTokens = intOrZero(usage.CacheCreationTokens)
	entry.CacheReadTokens = intOrZero(usage.CacheReadTokens)

	// A source-supplied aggregate wins over recomputation.
	if usage.TotalTokens != nil {
		entry.TotalTokens = *usage.TotalTokens
	} else {
		entry.TotalTokens = entry.InputTokens + entry.OutputTokens
	}

	if raw.Cost != nil {
		entry.CostUSD = *raw.Cost
		entry.HasCost = true
	} else if raw.CostUSD != nil {
		entry.CostUSD = *raw.CostUSD
		entry.HasCost = true
	}

	for _, f := range []struct {
		name  string
		value int
	}{
		{"input_tokens", entry.InputTokens},
		{"output_tokens", entry.OutputTokens},
		{"total_tokens", entry.TotalTokens},
		{"cache_creation_input_tokens", entry.CacheCreationTokens},
		{"cache_read_input_tokens", entry.CacheReadTokens},
	} {
		if f.value < 0 {
			violations = append(violations, fmt.Sprintf("%s: negative value %d", f.name, f.value))
		}
	}

	if len(violations) > 0 {
		return types.UsageEntry{}, violations
	}
	return entry, nil
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func isBlank(line []byte) bool {
	for _, b := range line {
		switch b {
		case ' ', '\t', '\r':
		default:
			return false
		}
	}
	return true
}

var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999Z",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, format := range timestampFormats {
		if ts, err := time.Parse(format, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized format %q", s)
}
