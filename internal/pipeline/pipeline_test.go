package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sdpower/tokenflow-go/internal/aggregator"
	"github.com/sdpower/tokenflow-go/internal/config"
	"github.com/sdpower/tokenflow-go/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fileA = `{"type":"assistant","timestamp":"2024-01-15T10:00:00Z","sessionId":"session-a","requestId":"req-a","message":{"id":"msg-a","model":"claude-3.5-sonnet-20241022","usage":{"input_tokens":1000,"output_tokens":500}}}
`
	fileB = `{"type":"assistant","timestamp":"2024-01-15T09:00:00Z","sessionId":"session-b","requestId":"req-b","message":{"id":"msg-b","model":"claude-opus-4-20250514","usage":{"input_tokens":800,"output_tokens":400}}}

`
)

func writeCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.jsonl"), []byte(fileA), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.jsonl"), []byte(fileB), 0o644))
	return root
}

func newPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	p, err := New(config.Default(), zerolog.Nop(), opts)
	require.NoError(t, err)
	return p
}

func TestIngestScenario(t *testing.T) {
	// Two files: A holds a 10:00 entry, B a 09:00 entry plus a blank line.
	// The merged sequence is [B, A], the day totals 2700 tokens across two
	// conversations, and exactly the blank line is counted as skipped.
	root := writeCorpus(t)

	p := newPipeline(t, Options{Streaming: true})
	entries, stats, err := p.Ingest(context.Background(), []string{root})
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "req-b", entries[0].ID)
	assert.Equal(t, "req-a", entries[1].ID)
	assert.Equal(t, 1, stats.SkippedLines)
	assert.Equal(t, 2, stats.ValidEntries)

	agg := aggregator.New(config.Default(), zerolog.Nop())
	daily := agg.Daily(entries)
	require.Contains(t, daily, "2024-01-15")
	day := daily["2024-01-15"]
	assert.Equal(t, 2700, day.TotalTokens)
	assert.Equal(t, 2, day.ConversationCount())
}

func TestIngestIdempotence(t *testing.T) {
	root := writeCorpus(t)
	p := newPipeline(t, Options{Streaming: true})

	first, firstStats, err := p.Ingest(context.Background(), []string{root})
	require.NoError(t, err)
	second, secondStats, err := p.Ingest(context.Background(), []string{root})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstStats, secondStats)
}

func TestIngestOrderingWithEqualTimestamps(t *testing.T) {
	// Equal timestamps keep discovery order: file order, then line order.
	root := t.TempDir()
	line := func(req string) string {
		return `{"type":"assistant","timestamp":"2024-01-15T10:00:00Z","sessionId":"s","requestId":"` + req +
			`","message":{"model":"claude-3-5-sonnet-20241022","usage":{"input_tokens":1,"output_tokens":1}}}` + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.jsonl"), []byte(line("a1")+line("a2")), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.jsonl"), []byte(line("b1")), 0o644))

	p := newPipeline(t, Options{Streaming: true})
	entries, _, err := p.Ingest(context.Background(), []string{root})
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "a1", entries[0].ID)
	assert.Equal(t, "a2", entries[1].ID)
	assert.Equal(t, "b1", entries[2].ID)
}

func TestIngestDeduplicatesReplayedRecords(t *testing.T) {
	root := t.TempDir()
	// The same message/request pair replayed in two files counts once.
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.jsonl"), []byte(fileA), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.jsonl"), []byte(fileA), 0o644))

	p := newPipeline(t, Options{Streaming: true})
	entries, stats, err := p.Ingest(context.Background(), []string{root})
	require.NoError(t, err)

	assert.Len(t, entries, 1)
	assert.Equal(t, 1, stats.DuplicateIDs)
}

func TestIngestStreamingOffEquivalence(t *testing.T) {
	root := writeCorpus(t)

	streaming := newPipeline(t, Options{Streaming: true})
	sequential := newPipeline(t, Options{Streaming: false})

	a, aStats, err := streaming.Ingest(context.Background(), []string{root})
	require.NoError(t, err)
	b, bStats, err := sequential.Ingest(context.Background(), []string{root})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, aStats, bStats)
}

func TestIngestBatchSizeInvariance(t *testing.T) {
	root := writeCorpus(t)

	var reference []types.UsageEntry
	for _, batchSize := range []int{1, 2, 50} {
		p := newPipeline(t, Options{Streaming: true, BatchSize: batchSize})
		entries, _, err := p.Ingest(context.Background(), []string{root})
		require.NoError(t, err)
		if reference == nil {
			reference = entries
		} else {
			assert.Equal(t, reference, entries, "batch size %d", batchSize)
		}
	}
}

func TestIngestSequentialCancelledContext(t *testing.T) {
	// Streaming off follows the same cancellation contract as the scheduler:
	// an error, never silent partial results.
	root := writeCorpus(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newPipeline(t, Options{Streaming: false})
	_, _, err := p.Ingest(ctx, []string{root})
	require.ErrorIs(t, err, context.Canceled)
}

func TestIngestTimestampDefault(t *testing.T) {
	// A record without a timestamp takes the current time; the injected
	// clock makes that observable end to end.
	root := t.TempDir()
	line := `{"type":"assistant","sessionId":"s1","requestId":"r1","message":{"model":"claude-3-5-sonnet-20241022","usage":{"input_tokens":1,"output_tokens":2}}}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.jsonl"), []byte(line), 0o644))

	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p := newPipeline(t, Options{Streaming: true})
	p.Decoder().SetClock(func() time.Time { return fixed })

	entries, _, err := p.Ingest(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fixed, entries[0].Timestamp)
}

func TestIngestNoFiles(t *testing.T) {
	p := newPipeline(t, Options{Streaming: true})
	_, _, err := p.Ingest(context.Background(), []string{t.TempDir()})
	require.ErrorIs(t, err, types.ErrDataNotFound)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(config.Config{}, zerolog.Nop(), Options{})
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}
