package course

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Header line prefixes, fixed order.
const (
	titlePrefix      = "Course Title:"
	linkPrefix       = "Course Link:"
	instructorPrefix = "Course Instructor:"
)

// lessonMarker matches lesson section headers such as "Lesson 3: Tool Use".
// Lines that merely resemble a marker (e.g. "Lesson three: ...") are treated
// as plain lesson content, not as a hard failure.
var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// ParseFile reads and parses a course document from disk.
func ParseFile(path string) (*Course, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from the operator-configured docs directory
	if err != nil {
		return nil, fmt.Errorf("opening course file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return Parse(f, filepath.Base(path))
}

// Parse parses a course document from r. name is used in error messages only.
//
// Contract: the first three lines must be the Course Title / Course Link /
// Course Instructor header, in that order. The remaining text is segmented
// by "Lesson N: Title" markers; text before the first marker is discarded.
func Parse(r io.Reader, name string) (*Course, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	header := make([]string, 0, 3)
	for len(header) < 3 && scanner.Scan() {
		header = append(header, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading course file %s: %w", name, err)
	}
	if len(header) < 3 {
		return nil, &ParseError{File: name, Reason: "missing three-line metadata header"}
	}

	c := &Course{}
	var err error
	if c.Title, err = headerValue(header[0], titlePrefix); err != nil {
		return nil, &ParseError{File: name, Reason: err.Error()}
	}
	if c.Link, err = headerValue(header[1], linkPrefix); err != nil {
		return nil, &ParseError{File: name, Reason: err.Error()}
	}
	if c.Instructor, err = headerValue(header[2], instructorPrefix); err != nil {
		return nil, &ParseError{File: name, Reason: err.Error()}
	}
	if c.Title == "" {
		return nil, &ParseError{File: name, Reason: "course title is empty"}
	}

	var (
		current *Lesson
		body    []string
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(body, "\n"))
		c.Lessons = append(c.Lessons, *current)
		current = nil
		body = body[:0]
	}

	for scanner.Scan() {
		line := scanner.Text()
		if m := lessonMarker.FindStringSubmatch(line); m != nil {
			flush()
			number, convErr := strconv.Atoi(m[1])
			if convErr != nil {
				// Unreachable with the \d+ pattern, but keep the guard.
				continue
			}
			current = &Lesson{Number: number, Title: strings.TrimSpace(m[2])}
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading course file %s: %w", name, err)
	}
	flush()

	return c, nil
}

// headerValue extracts the value after the expected prefix, or reports why
// the line does not conform.
func headerValue(line, prefix string) (string, error) {
	if !strings.HasPrefix(line, prefix) {
		return "", fmt.Errorf("expected %q header, got %q", prefix, truncate(line, 40))
	}
	return strings.TrimSpace(strings.TrimPrefix(line, prefix)), nil
}

// truncate shortens s for error messages, cutting on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
