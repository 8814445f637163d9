// Package knowledge stores course material in PostgreSQL with pgvector and
// exposes semantic search over it.
//
// Two logical collections back the package:
//   - course_catalog: one row per course, embedding of the title only.
//     Used exclusively for fuzzy course-name resolution.
//   - course_chunks: lesson chunks with content embeddings. Used for
//     content retrieval, optionally filtered by course and lesson.
package knowledge

import "github.com/pgvector/pgvector-go"

// CourseRecord is the catalog row written for each ingested course.
type CourseRecord struct {
	Title       string
	Link        string
	Instructor  string
	LessonCount int
	Embedding   pgvector.Vector
}

// ChunkRecord is a chunk row ready for insertion.
type ChunkRecord struct {
	ID           string
	CourseTitle  string
	LessonNumber int
	ChunkIndex   int
	Content      string
	Embedding    pgvector.Vector
}

// CourseMatchRow is the best catalog match for a name-resolution query.
type CourseMatchRow struct {
	Title      string
	Similarity float32
}

// SearchChunksParams parameterizes a filtered nearest-neighbor query.
// CourseTitle and LessonNumber are optional filters; zero/nil disables them.
type SearchChunksParams struct {
	Embedding    pgvector.Vector
	CourseTitle  string
	LessonNumber *int
	Limit        int32
}

// ChunkSearchRow is one nearest-neighbor hit from the content collection.
type ChunkSearchRow struct {
	CourseTitle  string
	LessonNumber int
	Content      string
	Similarity   float32
}

// Result is a single search hit returned to callers.
type Result struct {
	CourseTitle  string
	LessonNumber int
	Content      string
	Similarity   float32
}

// SearchOption configures Search using the functional options pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK   int32
	course string
	lesson *int
}

// WithTopK sets the maximum number of results to return. Default is 5.
func WithTopK(k int32) SearchOption {
	return func(c *searchConfig) {
		c.topK = k
	}
}

// WithCourse restricts search to a single course. The value may be a partial
// name; it is resolved against the catalog before the content query runs.
func WithCourse(name string) SearchOption {
	return func(c *searchConfig) {
		c.course = name
	}
}

// WithLesson restricts search to one lesson number.
func WithLesson(number int) SearchOption {
	return func(c *searchConfig) {
		c.lesson = &number
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{topK: DefaultTopK}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.topK <= 0 {
		cfg.topK = DefaultTopK
	}
	return cfg
}
