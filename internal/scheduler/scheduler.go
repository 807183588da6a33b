package scheduler

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sdpower/tokenflow-go/internal/decoder"
	"github.com/sdpower/tokenflow-go/internal/types"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize bounds how many files are decoded concurrently. It caps
// peak open file handles and in-flight memory; it never affects which entries
// come out.
const DefaultBatchSize = 10

// FileDecoder is the per-file stage the scheduler drives.
type FileDecoder interface {
	DecodeFile(path string) ([]types.UsageEntry, decoder.FileStats, error)
}

// Scheduler processes files in fixed-size groups. Batch N+1 does not start
// until every task in batch N has settled, and a failing file resolves to an
// empty contribution without cancelling its siblings.
type Scheduler struct {
	batchSize int
	dec       FileDecoder
	log       zerolog.Logger
}

func New(dec FileDecoder, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		batchSize: DefaultBatchSize,
		dec:       dec,
		log:       log,
	}
}

func (s *Scheduler) SetBatchSize(size int) {
	if size > 0 {
		s.batchSize = size
	}
}

// Run decodes every file and returns per-file entry slices indexed like the
// input, so downstream output is independent of completion order within a
// batch. The returned stats aggregate valid/skipped/failed counts.
func (s *Scheduler) Run(ctx context.Context, files []string) ([][]types.UsageEntry, types.IngestStats, error) {
	perFile := make([][]types.UsageEntry, len(files))
	fileStats := make([]decoder.FileStats, len(files))
	failed := make([]bool, len(files))

	for start := 0; start < len(files); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, types.IngestStats{}, err
		}

		end := start + s.batchSize
		if end > len(files) {
			end = len(files)
		}

		g := new(errgroup.Group)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				entries, stats, err := s.dec.DecodeFile(files[i])
				if err != nil {
					// Isolated: this file contributes nothing, the run continues.
					s.log.Warn().Str("file", files[i]).Err(err).Msg("failed to decode file")
					failed[i] = true
					return nil
				}
				perFile[i] = entries
				fileStats[i] = stats
				return nil
			})
		}
		// Tasks never return errors; Wait is a barrier between batches.
		_ = g.Wait()

		s.log.Debug().
			Int("completed", end).
			Int("total", len(files)).
			Int("percent", end*100/max(len(files), 1)).
			Msg("batch done")
	}

	stats := types.IngestStats{FilesFound: len(files)}
	for i := range files {
		if failed[i] {
			stats.FilesFailed++
			continue
		}
		stats.ValidEntries += fileStats[i].Valid
		stats.SkippedLines += fileStats[i].Skipped
	}

	return perFile, stats, nil
}
