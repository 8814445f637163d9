package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/coursechat/coursechat/internal/course"
	"github.com/coursechat/coursechat/internal/knowledge"
)

// Indexer is the slice of the knowledge store the ingestor consumes.
type Indexer interface {
	AddCourse(ctx context.Context, c *course.Course, chunks []course.Chunk) error
	CourseTitles(ctx context.Context) ([]string, error)
}

// IngestResult summarizes one folder ingestion run.
type IngestResult struct {
	CoursesAdded int
	ChunksAdded  int
	FilesSkipped int
	FilesFailed  int
	Duration     time.Duration
}

// Ingestor loads course documents from disk into the knowledge store.
type Ingestor struct {
	store    Indexer
	splitter *course.Splitter
	logger   *slog.Logger
}

// NewIngestor creates an Ingestor. A nil logger falls back to
// slog.Default().
func NewIngestor(store Indexer, splitter *course.Splitter, logger *slog.Logger) (*Ingestor, error) {
	if store == nil {
		return nil, fmt.Errorf("indexer is required")
	}
	if splitter == nil {
		return nil, fmt.Errorf("splitter is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{store: store, splitter: splitter, logger: logger}, nil
}

// AddCourseFolder ingests every .txt document directly under dir, in
// lexicographic filename order. Files already present in the catalog (by
// course title) are skipped unless replace is set. A document that fails
// to parse is counted and skipped; the run continues.
func (ing *Ingestor) AddCourseFolder(ctx context.Context, dir string, replace bool) (*IngestResult, error) {
	start := time.Now()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading course folder %s: %w", dir, err)
	}

	existing := map[string]bool{}
	if !replace {
		titles, err := ing.store.CourseTitles(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing existing courses: %w", err)
		}
		for _, t := range titles {
			existing[t] = true
		}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	result := &IngestResult{}
	for _, name := range names {
		path := filepath.Join(dir, name)

		c, err := course.ParseFile(path)
		if err != nil {
			var perr *course.ParseError
			if errors.As(err, &perr) {
				ing.logger.Warn("skipping malformed course document",
					"file", name, "reason", perr.Reason)
				result.FilesFailed++
				continue
			}
			return nil, fmt.Errorf("reading course document %s: %w", name, err)
		}

		if existing[c.Title] {
			ing.logger.Debug("course already ingested", "title", c.Title, "file", name)
			result.FilesSkipped++
			continue
		}

		chunks := ing.splitter.SplitCourse(c)
		if err := ing.store.AddCourse(ctx, c, chunks); err != nil {
			return nil, fmt.Errorf("ingesting course %q: %w", c.Title, err)
		}

		result.CoursesAdded++
		result.ChunksAdded += len(chunks)
		ing.logger.Info("course ingested", "title", c.Title, "chunks", len(chunks))
	}

	result.Duration = time.Since(start)
	ing.logger.Info("ingestion complete",
		"courses_added", result.CoursesAdded,
		"chunks_added", result.ChunksAdded,
		"files_skipped", result.FilesSkipped,
		"files_failed", result.FilesFailed,
		"duration", result.Duration)
	return result, nil
}

var _ Indexer = (*knowledge.Store)(nil)
