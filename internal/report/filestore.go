package report

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// ErrNoReports is returned when the backing file contains no usable records.
var ErrNoReports = errors.New("report store contains no reports")

// maxRecordSize bounds a single JSON line; tracker dumps occasionally carry
// megabyte-scale crash comments.
const maxRecordSize = 16 * 1024 * 1024

// FileStore reads reports from a JSON-lines dump, one record per line.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a store over the given JSON-lines file.
// A nil logger is replaced with a no-op logger.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Reports loads and decodes every record in the file.
// Blank lines are skipped; a malformed line is an error, not a skip, so a
// truncated dump is caught instead of silently shrinking the corpus.
func (s *FileStore) Reports(ctx context.Context) ([]Report, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening report dump: %w", err)
	}
	defer f.Close()

	var reports []Report
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var r Report
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decoding report on line %d: %w", line, err)
		}
		reports = append(reports, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading report dump: %w", err)
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoReports, s.path)
	}

	s.logger.Debug("loaded report dump",
		zap.String("path", s.path),
		zap.Int("reports", len(reports)),
	)
	return reports, nil
}

// SliceStore is an in-memory Store over a fixed report slice.
// It backs tests and programmatic callers that already hold the records.
type SliceStore []Report

// Reports returns the underlying slice.
func (s SliceStore) Reports(ctx context.Context) ([]Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s, nil
}
