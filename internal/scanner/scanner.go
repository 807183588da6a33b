package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sdpower/tokenflow-go/internal/types"
)

// DefaultMaxDepth bounds recursion below each configured root.
const DefaultMaxDepth = 3

// Scanner discovers candidate log files under configured roots. Output
// ordering is not significant; downstream stages re-establish order.
type Scanner struct {
	maxDepth int
	log      zerolog.Logger
}

func New(log zerolog.Logger) *Scanner {
	return &Scanner{maxDepth: DefaultMaxDepth, log: log}
}

func (s *Scanner) SetMaxDepth(depth int) {
	if depth > 0 {
		s.maxDepth = depth
	}
}

// FindLogFiles returns every *.jsonl file under the given roots, recursing
// up to the depth bound. A root that cannot be scanned is skipped with a
// warning; enumeration never fails the whole run for one bad root.
func (s *Scanner) FindLogFiles(roots []string) []string {
	var files []string

	for _, root := range roots {
		found, err := s.scanRoot(root)
		if err != nil {
			s.log.Warn().Str("root", root).Err(err).Msg("skipping unscannable root")
			continue
		}
		files = append(files, found...)
	}

	return files
}

func (s *Scanner) scanRoot(root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, types.RootScanError{Root: root, Err: err}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree inside a scannable root: skip silently.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if s.depthOf(root, path) > s.maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasSuffix(strings.ToLower(path), ".jsonl") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, types.RootScanError{Root: root, Err: err}
	}

	return files, nil
}

func (s *Scanner) depthOf(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
