package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgQuerier implements Querier on a pgx connection pool with hand-written
// SQL. All statements are parameterized; the only dynamic SQL is the
// fixed-form filter composition in SearchChunks.
type PgQuerier struct {
	pool *pgxpool.Pool
}

// NewPgQuerier creates a PgQuerier backed by pool.
func NewPgQuerier(pool *pgxpool.Pool) *PgQuerier {
	return &PgQuerier{pool: pool}
}

const upsertCourseSQL = `
INSERT INTO course_catalog (title, link, instructor, lesson_count, embedding)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (title) DO UPDATE SET
    link = EXCLUDED.link,
    instructor = EXCLUDED.instructor,
    lesson_count = EXCLUDED.lesson_count,
    embedding = EXCLUDED.embedding`

const deleteChunksSQL = `DELETE FROM course_chunks WHERE course_title = $1`

const insertChunkSQL = `
INSERT INTO course_chunks (id, course_title, lesson_number, chunk_index, content, embedding)
VALUES ($1, $2, $3, $4, $5, $6)`

// ReplaceCourse upserts the catalog row and replaces the course's chunks in
// a single transaction. Either everything lands or nothing does, so a
// failed re-ingest never leaves a course half-replaced.
func (q *PgQuerier) ReplaceCourse(ctx context.Context, c CourseRecord, chunks []ChunkRecord) error {
	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, upsertCourseSQL,
		c.Title, c.Link, c.Instructor, c.LessonCount, c.Embedding); err != nil {
		return fmt.Errorf("upsert catalog entry: %w", err)
	}

	if _, err := tx.Exec(ctx, deleteChunksSQL, c.Title); err != nil {
		return fmt.Errorf("delete existing chunks: %w", err)
	}

	batch := &pgx.Batch{}
	for _, ch := range chunks {
		batch.Queue(insertChunkSQL,
			ch.ID, ch.CourseTitle, ch.LessonNumber, ch.ChunkIndex, ch.Content, ch.Embedding)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const bestCourseMatchSQL = `
SELECT title, 1 - (embedding <=> $1) AS similarity
FROM course_catalog
ORDER BY embedding <=> $1
LIMIT 1`

// BestCourseMatch returns the nearest catalog entry by cosine similarity,
// or nil when the catalog is empty.
func (q *PgQuerier) BestCourseMatch(ctx context.Context, embedding pgvector.Vector) (*CourseMatchRow, error) {
	var row CourseMatchRow
	err := q.pool.QueryRow(ctx, bestCourseMatchSQL, embedding).Scan(&row.Title, &row.Similarity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}
	return &row, nil
}

// SearchChunks performs a cosine nearest-neighbor query over course_chunks
// with optional course and lesson filters.
func (q *PgQuerier) SearchChunks(ctx context.Context, arg SearchChunksParams) ([]ChunkSearchRow, error) {
	sql := `
SELECT course_title, lesson_number, content, 1 - (embedding <=> $1) AS similarity
FROM course_chunks`
	args := []any{arg.Embedding}

	where := ""
	if arg.CourseTitle != "" {
		args = append(args, arg.CourseTitle)
		where = fmt.Sprintf(" WHERE course_title = $%d", len(args))
	}
	if arg.LessonNumber != nil {
		args = append(args, *arg.LessonNumber)
		if where == "" {
			where = fmt.Sprintf(" WHERE lesson_number = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND lesson_number = $%d", len(args))
		}
	}
	args = append(args, arg.Limit)
	sql += where + fmt.Sprintf(" ORDER BY embedding <=> $1 LIMIT $%d", len(args))

	rows, err := q.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("chunk search: %w", err)
	}
	defer rows.Close()

	var out []ChunkSearchRow
	for rows.Next() {
		var r ChunkSearchRow
		if err := rows.Scan(&r.CourseTitle, &r.LessonNumber, &r.Content, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk rows: %w", err)
	}
	return out, nil
}

const countCoursesSQL = `SELECT count(*) FROM course_catalog`

// CountCourses counts catalog entries.
func (q *PgQuerier) CountCourses(ctx context.Context) (int64, error) {
	var count int64
	if err := q.pool.QueryRow(ctx, countCoursesSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting catalog entries: %w", err)
	}
	return count, nil
}

const listCourseTitlesSQL = `SELECT title FROM course_catalog ORDER BY created_at, title`

// ListCourseTitles lists catalog titles oldest-first.
func (q *PgQuerier) ListCourseTitles(ctx context.Context) ([]string, error) {
	rows, err := q.pool.Query(ctx, listCourseTitlesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing catalog titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning title: %w", err)
		}
		titles = append(titles, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating titles: %w", err)
	}
	return titles, nil
}
