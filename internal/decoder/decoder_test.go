package decoder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sdpower/tokenflow-go/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "usage.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const assistantLine = `{"type":"assistant","timestamp":"2024-01-15T10:00:00Z","sessionId":"s1","requestId":"r1","message":{"id":"m1","model":"claude-3-5-sonnet-20241022","usage":{"input_tokens":1000,"output_tokens":500}}}`

func TestDecodeFileValidLine(t *testing.T) {
	d := New(zerolog.Nop())
	entries, stats, err := d.DecodeFile(writeFile(t, assistantLine+"\n"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, stats.Valid)
	assert.Equal(t, 0, stats.Skipped)

	e := entries[0]
	assert.Equal(t, "r1", e.ID)
	assert.Equal(t, "s1", e.ConversationID)
	assert.Equal(t, "m1", e.MessageID)
	assert.Equal(t, "claude-3-5-sonnet-20241022", e.Model)
	assert.Equal(t, 1000, e.InputTokens)
	assert.Equal(t, 500, e.OutputTokens)
	assert.Equal(t, 1500, e.TotalTokens)
	assert.False(t, e.HasCost)
	assert.False(t, e.IsBatchAPI)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), e.Timestamp)
}

func TestDecodeFileMalformedTolerance(t *testing.T) {
	// 2 valid lines, 3 malformed (blank, non-JSON, schema-invalid): exactly
	// 2 entries and a skipped count of 3, never a failure.
	content := assistantLine + "\n" +
		"\n" +
		"not json at all\n" +
		`{"type":"assistant","timestamp":"2024-01-15T11:00:00Z","sessionId":"s1","message":{"id":"m2","model":"claude-3-5-sonnet-20241022","usage":{"input_tokens":-5,"output_tokens":1}}}` + "\n" +
		`{"type":"assistant","timestamp":"2024-01-15T12:00:00Z","sessionId":"s1","requestId":"r2","message":{"id":"m3","model":"claude-3-5-sonnet-20241022","usage":{"input_tokens":10,"output_tokens":20}}}` + "\n"

	d := New(zerolog.Nop())
	entries, stats, err := d.DecodeFile(writeFile(t, content))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 2, stats.Valid)
	assert.Equal(t, 3, stats.Skipped)
}

func TestDecodeFileIgnoresNonCandidates(t *testing.T) {
	// Non-assistant records and assistant records without model or usage are
	// ignored without counting as skipped.
	content := `{"type":"user","message":{"content":"hi"}}` + "\n" +
		`{"type":"summary","summary":"a session"}` + "\n" +
		`{"type":"assistant","timestamp":"2024-01-15T10:00:00Z","sessionId":"s1","message":{"id":"m1","model":"","usage":{"input_tokens":1,"output_tokens":1}}}` + "\n" +
		`{"type":"assistant","timestamp":"2024-01-15T10:00:00Z","sessionId":"s1","message":{"id":"m1","model":"claude-3-5-sonnet-20241022"}}` + "\n" +
		`{"type":"assistant","timestamp":"2024-01-15T10:00:00Z","sessionId":"s1","message":{"id":"m1","model":"<synthetic>","usage":{"input_tokens":1,"output_tokens":1}}}` + "\n"

	d := New(zerolog.Nop())
	entries, stats, err := d.DecodeFile(writeFile(t, content))
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 0, stats.Valid)
	assert.Equal(t, 0, stats.Skipped)
}

func TestDecodeFileIDFallback(t *testing.T) {
	content := `{"type":"assistant","timestamp":"2024-01-15T10:00:00Z","sessionId":"sess","message":{"model":"claude-3-5-sonnet-20241022","usage":{"input_tokens":1,"output_tokens":2}}}` + "\n"

	d := New(zerolog.Nop())
	entries, _, err := d.DecodeFile(writeFile(t, content))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sess-1", entries[0].ID)
}

func TestDecodeFileTimestampDefault(t *testing.T) {
	content := `{"type":"assistant","sessionId":"s1","requestId":"r1","message":{"model":"claude-3-5-sonnet-20241022","usage":{"input_tokens":1,"output_tokens":2}}}` + "\n"

	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	d := New(zerolog.Nop())
	d.SetClock(func() time.Time { return fixed })

	entries, _, err := d.DecodeFile(writeFile(t, content))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fixed, entries[0].Timestamp)
}

func TestDecodeFileTotalTokensPassThrough(t *testing.T) {
	// A source-supplied aggregate wins over input+output recomputation.
	content := `{"type":"assistant","timestamp":"2024-01-15T10:00:00Z","sessionId":"s1","requestId":"r1","message":{"model":"claude-3-5-sonnet-20241022","usage":{"input_tokens":10,"output_tokens":20,"total_tokens":99}}}` + "\n"

	d := New(zerolog.Nop())
	entries, _, err := d.DecodeFile(writeFile(t, content))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 99, entries[0].TotalTokens)
}

func TestDecodeFileCostFields(t *testing.T) {
	testCases := []struct {
		name    string
		line    string
		cost    float64
		hasCost bool
	}{
		{
			name:    "cost field",
			line:    `{"type":"assistant","timestamp":"2024-01-15T10:00:00Z","requestId":"r1","cost":0.25,"message":{"model":"m","usage":{"input_tokens":1,"output_tokens":1}}}`,
			cost:    0.25,
			hasCost: true,
		},
		{
			name:    "costUSD field",
			line:    `{"type":"assistant","timestamp":"2024-01-15T10:00:00Z","requestId":"r1","costUSD":0.5,"message":{"model":"m","usage":{"input_tokens":1,"output_tokens":1}}}`,
			cost:    0.5,
			hasCost: true,
		},
		{
			name:    "absent",
			line:    `{"type":"assistant","timestamp":"2024-01-15T10:00:00Z","requestId":"r1","message":{"model":"m","usage":{"input_tokens":1,"output_tokens":1}}}`,
			hasCost: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := New(zerolog.Nop())
			entries, _, err := d.DecodeFile(writeFile(t, tc.line+"\n"))
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, tc.hasCost, entries[0].HasCost)
			if tc.hasCost {
				assert.Equal(t, tc.cost, entries[0].CostUSD)
			}
		})
	}
}

func TestDecodeFileCRLF(t *testing.T) {
	content := assistantLine + "\r\n" + assistantLine + "\r\n"

	d := New(zerolog.Nop())
	entries, stats, err := d.DecodeFile(writeFile(t, content))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 0, stats.Skipped)
}

func TestDecodeFileOverlongLineFailsFile(t *testing.T) {
	// A line beyond the 1MB cap is a stream-level read failure, not a
	// skippable line: the whole file errors out and contributes nothing,
	// even when valid lines surround it.
	long := `{"type":"assistant","pad":"` + strings.Repeat("a", 2*1024*1024) + `"}`
	content := assistantLine + "\n" + long + "\n" + assistantLine + "\n"

	d := New(zerolog.Nop())
	entries, stats, err := d.DecodeFile(writeFile(t, content))
	require.Error(t, err)
	var lerr types.LoaderError
	require.ErrorAs(t, err, &lerr)
	assert.Empty(t, entries)
	assert.Equal(t, FileStats{}, stats)
}

func TestDecodeFileOpenError(t *testing.T) {
	d := New(zerolog.Nop())
	_, _, err := d.DecodeFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
}
