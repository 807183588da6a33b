package pipeline

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/sdpower/tokenflow-go/internal/config"
	"github.com/sdpower/tokenflow-go/internal/decoder"
	"github.com/sdpower/tokenflow-go/internal/scanner"
	"github.com/sdpower/tokenflow-go/internal/scheduler"
	"github.com/sdpower/tokenflow-go/internal/types"
)

// Options are the collaborator-provided knobs. Streaming selects the batched
// pipeline over the simpler sequential whole-file path; Diagnostic enables
// per-line logging. Neither changes which entries come out.
type Options struct {
	BatchSize  int
	MaxDepth   int
	Streaming  bool
	Diagnostic bool
}

// Pipeline wires enumeration, batched decoding and the chronological merge
// into one ingestion run. Each run owns its own accumulators; the only shared
// resource is the filesystem, accessed read-only.
type Pipeline struct {
	cfg   config.Config
	opts  Options
	log   zerolog.Logger
	scan  *scanner.Scanner
	dec   *decoder.Decoder
	sched *scheduler.Scheduler
}

// New validates the configuration before anything else; a config missing
// required sections fails the run here, not mid-stream.
func New(cfg config.Config, log zerolog.Logger, opts Options) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scan := scanner.New(log)
	if opts.MaxDepth > 0 {
		scan.SetMaxDepth(opts.MaxDepth)
	}

	dec := decoder.New(log)
	dec.SetDiagnostic(opts.Diagnostic)

	sched := scheduler.New(dec, log)
	if opts.BatchSize > 0 {
		sched.SetBatchSize(opts.BatchSize)
	}

	return &Pipeline{
		cfg:   cfg,
		opts:  opts,
		log:   log,
		scan:  scan,
		dec:   dec,
		sched: sched,
	}, nil
}

// Decoder exposes the line decoder for clock injection in tests.
func (p *Pipeline) Decoder() *decoder.Decoder {
	return p.dec
}

// Ingest runs enumeration, decoding and the merge, returning one sequence
// ordered by ascending timestamp. Equal timestamps preserve discovery order
// (file order, then on-disk line order): running twice over an unchanged file
// set yields identical output.
func (p *Pipeline) Ingest(ctx context.Context, roots []string) ([]types.UsageEntry, types.IngestStats, error) {
	files := p.scan.FindLogFiles(roots)
	if len(files) == 0 {
		return nil, types.IngestStats{}, types.ErrDataNotFound
	}

	var perFile [][]types.UsageEntry
	var stats types.IngestStats
	var err error

	if p.opts.Streaming {
		perFile, stats, err = p.sched.Run(ctx, files)
	} else {
		perFile, stats, err = p.loadSequential(ctx, files)
	}
	if err != nil {
		return nil, types.IngestStats{}, err
	}

	entries, duplicates := p.dedupe(perFile)
	stats.ValidEntries = len(entries)
	stats.DuplicateIDs = duplicates

	merge(entries)

	p.log.Info().
		Int("files", stats.FilesFound).
		Int("failed_files", stats.FilesFailed).
		Int("entries", stats.ValidEntries).
		Int("skipped_lines", stats.SkippedLines).
		Int("duplicates", stats.DuplicateIDs).
		Msg("ingestion complete")

	return entries, stats, nil
}

// loadSequential is the non-streaming alternative: one file at a time, no
// batching. Failure and cancellation semantics match the scheduler's.
func (p *Pipeline) loadSequential(ctx context.Context, files []string) ([][]types.UsageEntry, types.IngestStats, error) {
	perFile := make([][]types.UsageEntry, len(files))
	stats := types.IngestStats{FilesFound: len(files)}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, types.IngestStats{}, err
		}
		entries, fileStats, err := p.dec.DecodeFile(file)
		if err != nil {
			p.log.Warn().Str("file", file).Err(err).Msg("failed to decode file")
			stats.FilesFailed++
			continue
		}
		perFile[i] = entries
		stats.SkippedLines += fileStats.Skipped
	}

	return perFile, stats, nil
}

// dedupe concatenates per-file results in discovery order, dropping replayed
// records by message/request key. Walking in discovery order keeps the
// surviving copy deterministic.
func (p *Pipeline) dedupe(perFile [][]types.UsageEntry) ([]types.UsageEntry, int) {
	var entries []types.UsageEntry
	seen := make(map[string]struct{})
	duplicates := 0

	for _, fileEntries := range perFile {
		for _, entry := range fileEntries {
			key := entry.DedupKey()
			if key != "" {
				if _, dup := seen[key]; dup {
					duplicates++
					continue
				}
				seen[key] = struct{}{}
			}
			entries = append(entries, entry)
		}
	}

	return entries, duplicates
}

// merge establishes global chronological order. The sort is stable, so
// entries with equal timestamps keep their relative discovery order; this is
// the tie-break policy, not an accident. Full in-memory sort is the
// documented scaling ceiling of the design.
func merge(entries []types.UsageEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
}
