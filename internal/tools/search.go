package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/firebase/genkit/go/genkit"

	"github.com/coursechat/coursechat/internal/knowledge"
)

// CourseSearchName is the tool name advertised to the model.
const CourseSearchName = "search_course_content"

// courseSearchDescription tells the model when to reach for the tool.
const courseSearchDescription = "Search course materials using semantic similarity. " +
	"Finds lesson content that is conceptually related to the query. " +
	"Optionally restricts results to one course (partial names are resolved) " +
	"and one lesson number. " +
	"Returns: matching lesson excerpts tagged with course title and lesson number. " +
	"Use this only for questions about specific course content."

// NoResultsMessage is returned to the model when nothing matched. It is a
// plain tool result, not an error, so the model can react to it in natural
// language.
const NoResultsMessage = "No relevant course content found."

// SearchInput defines the arguments the model supplies when invoking the
// course search tool.
type SearchInput struct {
	Query        string `json:"query" jsonschema_description:"What to look for in the course materials"`
	CourseName   string `json:"courseName,omitempty" jsonschema_description:"Course title to restrict the search to (partial names allowed)"`
	LessonNumber *int   `json:"lessonNumber,omitempty" jsonschema_description:"Lesson number to restrict the search to"`
}

// Source is one citation attached to a search hit, later surfaced alongside
// the final answer.
type Source struct {
	Course  string
	Lesson  int
	Snippet string
}

// ContentSearcher is the slice of the knowledge store the search tool
// consumes.
type ContentSearcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// CourseSearch implements the course-content search capability. Beyond
// formatting results for the model, it remembers the most recent result
// set's sources so the orchestrator can attach citations to the final
// answer.
type CourseSearch struct {
	store  ContentSearcher
	topK   int32
	logger *slog.Logger

	mu      sync.Mutex
	sources []Source
}

// NewCourseSearch creates the search tool. topK <= 0 falls back to the
// store default.
func NewCourseSearch(store ContentSearcher, topK int32, logger *slog.Logger) (*CourseSearch, error) {
	if store == nil {
		return nil, fmt.Errorf("content searcher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CourseSearch{store: store, topK: topK, logger: logger}, nil
}

// RegisterCourseSearch wires the search tool into the registry and Genkit.
func RegisterCourseSearch(g *genkit.Genkit, r *Registry, cs *CourseSearch) error {
	if cs == nil {
		return fmt.Errorf("course search tool is required")
	}
	return Define(g, r, CourseSearchName, courseSearchDescription, cs.Run)
}

// Run executes a search and formats the hits as citation-tagged text
// blocks. An empty result set (including an unresolvable course filter)
// yields NoResultsMessage rather than an error; backend failures propagate
// as errors for the caller to downgrade.
func (cs *CourseSearch) Run(ctx context.Context, input SearchInput) (string, error) {
	lesson := 0
	if input.LessonNumber != nil {
		lesson = *input.LessonNumber
	}
	cs.logger.Info("course search invoked",
		"query", input.Query, "course", input.CourseName, "lesson", lesson)

	opts := []knowledge.SearchOption{knowledge.WithTopK(cs.topK)}
	if input.CourseName != "" {
		opts = append(opts, knowledge.WithCourse(input.CourseName))
	}
	if input.LessonNumber != nil {
		opts = append(opts, knowledge.WithLesson(*input.LessonNumber))
	}

	results, err := cs.store.Search(ctx, input.Query, opts...)
	if errors.Is(err, knowledge.ErrCourseNotFound) {
		cs.setSources(nil)
		return fmt.Sprintf("No course found matching %q.", input.CourseName), nil
	}
	if err != nil {
		cs.logger.Warn("course search failed", "query", input.Query, "error", err)
		return "", fmt.Errorf("searching course content: %w", err)
	}

	if len(results) == 0 {
		cs.setSources(nil)
		return NoResultsMessage, nil
	}

	sources := make([]Source, 0, len(results))
	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s - Lesson %d]\n%s", res.CourseTitle, res.LessonNumber, res.Content)
		sources = append(sources, Source{
			Course:  res.CourseTitle,
			Lesson:  res.LessonNumber,
			Snippet: snippet(res.Content, 200),
		})
	}
	cs.setSources(sources)

	cs.logger.Info("course search succeeded", "query", input.Query, "result_count", len(results))
	return b.String(), nil
}

// LastSources returns a copy of the sources captured by the most recent
// Run. Empty when the last search produced no results or no search ran.
func (cs *CourseSearch) LastSources() []Source {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make([]Source, len(cs.sources))
	copy(out, cs.sources)
	return out
}

// Reset clears the captured sources. The orchestrator calls this before
// each query so stale citations never leak across queries.
func (cs *CourseSearch) Reset() {
	cs.setSources(nil)
}

func (cs *CourseSearch) setSources(sources []Source) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.sources = sources
}

// snippet trims content for citation display without splitting a word or
// a multi-byte rune.
func snippet(content string, max int) string {
	if len(content) <= max {
		return content
	}
	for max > 0 && !utf8.RuneStart(content[max]) {
		max--
	}
	cut := content[:max]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
