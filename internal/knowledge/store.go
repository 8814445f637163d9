package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/pgvector/pgvector-go"

	"github.com/coursechat/coursechat/internal/course"
)

// DefaultTopK is the number of results returned when WithTopK is not given.
const DefaultTopK int32 = 5

// Similarity floors. Matches below these are treated as noise: the catalog
// floor turns into ErrCourseNotFound, the content floor into an empty
// result set (not an error).
const (
	catalogSimilarityFloor = 0.3
	contentSimilarityFloor = 0.2
)

// ErrCourseNotFound indicates no catalog entry matched a course-name query
// above the similarity floor.
var ErrCourseNotFound = errors.New("course not found")

// Querier defines the database operations Store needs. Interfaces are
// defined by the consumer; the pgx-backed implementation lives in
// queries.go and tests substitute mocks.
type Querier interface {
	// ReplaceCourse atomically upserts the catalog row and replaces all
	// chunks belonging to the course.
	ReplaceCourse(ctx context.Context, c CourseRecord, chunks []ChunkRecord) error

	// BestCourseMatch returns the single nearest catalog entry, or nil
	// when the catalog is empty.
	BestCourseMatch(ctx context.Context, embedding pgvector.Vector) (*CourseMatchRow, error)

	// SearchChunks performs a filtered nearest-neighbor query over chunks.
	SearchChunks(ctx context.Context, arg SearchChunksParams) ([]ChunkSearchRow, error)

	// CountCourses counts catalog entries.
	CountCourses(ctx context.Context) (int64, error)

	// ListCourseTitles lists all catalog titles in insertion order.
	ListCourseTitles(ctx context.Context) ([]string, error)
}

// Store manages the course catalog and chunk index with vector search.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates a Store. A nil logger falls back to slog.Default().
func New(querier Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		queries:  querier,
		embedder: embedder,
		logger:   logger,
	}
}

// AddCourse ingests a course and its chunks. The operation is an idempotent
// upsert: re-ingesting a course with the same title replaces its catalog
// entry and all of its chunks.
func (s *Store) AddCourse(ctx context.Context, c *course.Course, chunks []course.Chunk) error {
	if c == nil || c.Title == "" {
		return fmt.Errorf("course with a non-empty title is required")
	}

	// The catalog document is the title string alone; course attributes
	// ride along as plain columns, never as embedded text.
	titleVec, err := s.embedOne(ctx, c.Title)
	if err != nil {
		return fmt.Errorf("embedding course title %q: %w", c.Title, err)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	chunkVecs, err := s.embedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks for course %q: %w", c.Title, err)
	}

	records := make([]ChunkRecord, len(chunks))
	for i, ch := range chunks {
		records[i] = ChunkRecord{
			ID:           ch.ID,
			CourseTitle:  ch.CourseTitle,
			LessonNumber: ch.LessonNumber,
			ChunkIndex:   ch.Index,
			Content:      ch.Content,
			Embedding:    chunkVecs[i],
		}
	}

	err = s.queries.ReplaceCourse(ctx, CourseRecord{
		Title:       c.Title,
		Link:        c.Link,
		Instructor:  c.Instructor,
		LessonCount: len(c.Lessons),
		Embedding:   titleVec,
	}, records)
	if err != nil {
		return fmt.Errorf("storing course %q: %w", c.Title, err)
	}

	s.logger.Debug("course stored", "title", c.Title, "lessons", len(c.Lessons), "chunks", len(chunks))
	return nil
}

// ResolveCourseName resolves a partial or approximate course name to the
// exact catalog title. Returns ErrCourseNotFound when nothing matches above
// the similarity floor.
//
// Resolution is idempotent: the same partial name against an unchanged
// catalog always yields the same title.
func (s *Store) ResolveCourseName(ctx context.Context, partial string) (string, error) {
	vec, err := s.embedOne(ctx, partial)
	if err != nil {
		return "", fmt.Errorf("embedding course name %q: %w", partial, err)
	}

	match, err := s.queries.BestCourseMatch(ctx, vec)
	if err != nil {
		return "", fmt.Errorf("resolving course name %q: %w", partial, err)
	}
	if match == nil || match.Similarity < catalogSimilarityFloor {
		return "", fmt.Errorf("no course matching %q: %w", partial, ErrCourseNotFound)
	}

	s.logger.Debug("resolved course name",
		"partial", partial, "title", match.Title, "similarity", match.Similarity)
	return match.Title, nil
}

// Search performs semantic search over the chunk index. A course filter is
// resolved against the catalog first; a failed resolution surfaces as
// ErrCourseNotFound. No matches above the similarity floor yields an empty
// slice, not an error.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	var courseTitle string
	if cfg.course != "" {
		title, err := s.ResolveCourseName(ctx, cfg.course)
		if err != nil {
			return nil, err
		}
		courseTitle = title
	}

	vec, err := s.embedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.queries.SearchChunks(ctx, SearchChunksParams{
		Embedding:    vec,
		CourseTitle:  courseTitle,
		LessonNumber: cfg.lesson,
		Limit:        cfg.topK,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		if row.Similarity < contentSimilarityFloor {
			continue
		}
		results = append(results, Result{
			CourseTitle:  row.CourseTitle,
			LessonNumber: row.LessonNumber,
			Content:      row.Content,
			Similarity:   row.Similarity,
		})
	}

	s.logger.Debug("content search",
		"query_length", len(query), "course", courseTitle, "hits", len(results))
	return results, nil
}

// CourseCount returns the number of ingested courses.
func (s *Store) CourseCount(ctx context.Context) (int, error) {
	count, err := s.queries.CountCourses(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting courses: %w", err)
	}
	return int(count), nil
}

// CourseTitles lists all catalog titles.
func (s *Store) CourseTitles(ctx context.Context) ([]string, error) {
	titles, err := s.queries.ListCourseTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	return titles, nil
}

// embedOne embeds a single text.
func (s *Store) embedOne(ctx context.Context, text string) (pgvector.Vector, error) {
	vecs, err := s.embedBatch(ctx, []string{text})
	if err != nil {
		return pgvector.Vector{}, err
	}
	return vecs[0], nil
}

// embedBatch embeds texts in one request. The response must carry one
// embedding per input.
func (s *Store) embedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	docs := make([]*ai.Document, len(texts))
	for i, t := range texts {
		docs[i] = ai.DocumentFromText(t, nil)
	}

	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	vecs := make([]pgvector.Vector, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if len(emb.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		vecs[i] = pgvector.NewVector(emb.Embedding)
	}
	return vecs, nil
}
