package rag

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/coursechat/coursechat/internal/course"
	"github.com/coursechat/coursechat/internal/log"
)

// mockIndexer implements Indexer for testing.
type mockIndexer struct {
	titles   []string
	added    []string
	chunks   int
	addErr   error
	titleErr error
}

func (m *mockIndexer) AddCourse(_ context.Context, c *course.Course, chunks []course.Chunk) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.added = append(m.added, c.Title)
	m.chunks += len(chunks)
	return nil
}

func (m *mockIndexer) CourseTitles(context.Context) ([]string, error) {
	return m.titles, m.titleErr
}

func writeDoc(t *testing.T, dir, name, title string) {
	t.Helper()
	doc := "Course Title: " + title + "\n" +
		"Course Link: https://example.com\n" +
		"Course Instructor: I\n" +
		"Lesson 1: Intro\n" +
		"Some lesson content. With two sentences.\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
}

func newTestIngestor(t *testing.T, idx *mockIndexer) *Ingestor {
	t.Helper()
	ing, err := NewIngestor(idx, course.NewSplitter(800, 100), log.NewNop())
	if err != nil {
		t.Fatalf("NewIngestor() error = %v", err)
	}
	return ing
}

func TestAddCourseFolder(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "Course A")
	writeDoc(t, dir, "b.txt", "Course B")

	idx := &mockIndexer{}
	ing := newTestIngestor(t, idx)

	result, err := ing.AddCourseFolder(context.Background(), dir, false)
	if err != nil {
		t.Fatalf("AddCourseFolder() error = %v", err)
	}

	if result.CoursesAdded != 2 {
		t.Errorf("CoursesAdded = %d, want 2", result.CoursesAdded)
	}
	if result.ChunksAdded != idx.chunks || result.ChunksAdded == 0 {
		t.Errorf("ChunksAdded = %d, indexer saw %d", result.ChunksAdded, idx.chunks)
	}
	if len(idx.added) != 2 || idx.added[0] != "Course A" {
		t.Errorf("ingestion order = %v, want lexicographic by filename", idx.added)
	}
}

func TestAddCourseFolder_SkipsExisting(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "Course A")
	writeDoc(t, dir, "b.txt", "Course B")

	idx := &mockIndexer{titles: []string{"Course A"}}
	ing := newTestIngestor(t, idx)

	result, err := ing.AddCourseFolder(context.Background(), dir, false)
	if err != nil {
		t.Fatalf("AddCourseFolder() error = %v", err)
	}

	if result.CoursesAdded != 1 || result.FilesSkipped != 1 {
		t.Errorf("result = %+v, want 1 added 1 skipped", result)
	}
	if len(idx.added) != 1 || idx.added[0] != "Course B" {
		t.Errorf("added = %v", idx.added)
	}
}

func TestAddCourseFolder_ReplaceReingestsAll(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "Course A")

	idx := &mockIndexer{titles: []string{"Course A"}}
	ing := newTestIngestor(t, idx)

	result, err := ing.AddCourseFolder(context.Background(), dir, true)
	if err != nil {
		t.Fatalf("AddCourseFolder() error = %v", err)
	}
	if result.CoursesAdded != 1 || result.FilesSkipped != 0 {
		t.Errorf("result = %+v, want re-ingest", result)
	}
}

func TestAddCourseFolder_MalformedFileCountedAndSkipped(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "good.txt", "Good Course")
	if err := os.WriteFile(filepath.Join(dir, "bad.txt"), []byte("not a course doc"), 0o600); err != nil {
		t.Fatal(err)
	}

	idx := &mockIndexer{}
	ing := newTestIngestor(t, idx)

	result, err := ing.AddCourseFolder(context.Background(), dir, false)
	if err != nil {
		t.Fatalf("AddCourseFolder() error = %v", err)
	}

	if result.FilesFailed != 1 {
		t.Errorf("FilesFailed = %d, want 1", result.FilesFailed)
	}
	if result.CoursesAdded != 1 {
		t.Errorf("CoursesAdded = %d, want 1", result.CoursesAdded)
	}
}

func TestAddCourseFolder_IgnoresNonTxt(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "Course A")
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignore me"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o750); err != nil {
		t.Fatal(err)
	}

	idx := &mockIndexer{}
	ing := newTestIngestor(t, idx)

	result, err := ing.AddCourseFolder(context.Background(), dir, false)
	if err != nil {
		t.Fatalf("AddCourseFolder() error = %v", err)
	}
	if result.CoursesAdded != 1 || result.FilesFailed != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestAddCourseFolder_MissingDir(t *testing.T) {
	ing := newTestIngestor(t, &mockIndexer{})
	if _, err := ing.AddCourseFolder(context.Background(), "/no/such/dir", false); err == nil {
		t.Error("AddCourseFolder(missing dir) error = nil, want error")
	}
}
