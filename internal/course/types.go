// Package course defines the course document model and provides parsing and
// chunking of structured course text files.
//
// A course file carries a fixed three-line metadata header followed by lesson
// sections introduced by "Lesson N: Title" markers. Lessons are split into
// bounded, overlapping chunks that form the unit of semantic retrieval.
package course

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Course represents a single ingested course. It is created once at ingestion
// time and treated as immutable afterwards. Title is the unique identifier.
type Course struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson
}

// Lesson is one numbered section of a course.
type Lesson struct {
	Number  int
	Title   string
	Content string
}

// Chunk is a bounded text segment tagged with its source course and lesson.
// Chunk order within a lesson matches reading order.
type Chunk struct {
	ID           string
	CourseTitle  string
	LessonNumber int
	Index        int
	Content      string
}

// ParseError reports a malformed course file. It is fatal for that file's
// ingestion but must not abort a batch of files.
type ParseError struct {
	File   string
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File == "" {
		return "parse error: " + e.Reason
	}
	return fmt.Sprintf("parse error in %s: %s", e.File, e.Reason)
}

// chunkID derives a stable chunk identifier from the course title and the
// chunk's position. Re-ingesting the same course produces the same IDs,
// which makes the upsert path idempotent.
func chunkID(courseTitle string, lessonNumber, index int) string {
	hash := sha256.Sum256([]byte(courseTitle))
	return fmt.Sprintf("chunk_%s_%d_%d", hex.EncodeToString(hash[:8]), lessonNumber, index)
}
