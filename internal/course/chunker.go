package course

import (
	"strings"
	"unicode"
)

// Default chunking parameters. Sized for sentence-embedding models where
// retrieval quality drops sharply past ~1000 characters per segment.
const (
	DefaultChunkSize = 800
	DefaultOverlap   = 100
)

// Splitter packs lesson text into bounded chunks on sentence boundaries.
//
// Sentences are packed greedily up to the size bound; consecutive chunks
// share trailing sentences from the previous chunk, up to the overlap
// budget, so retrieval never loses context at a chunk border. A single
// sentence longer than the bound becomes its own oversized chunk (the
// unsplittable-unit exception).
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter creates a Splitter. Non-positive values fall back to the
// defaults; overlap is clamped below chunkSize so packing always progresses.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split divides text into overlapping chunks. Whitespace between sentences
// is normalized to a single space; concatenating the chunks with the
// overlapping sentences removed reproduces the normalized text.
func (s *Splitter) Split(text string) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var (
		chunks []string
		cur    []string
		curLen int
	)
	for _, sentence := range sentences {
		if curLen > 0 && curLen+1+len(sentence) > s.chunkSize {
			chunks = append(chunks, strings.Join(cur, " "))
			cur = s.overlapTail(cur)
			curLen = joinedLen(cur)
		}
		if curLen > 0 {
			curLen++
		}
		cur = append(cur, sentence)
		curLen += len(sentence)
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, " "))
	}
	return chunks
}

// SplitCourse chunks every lesson of c, preserving lesson order and
// reading order within each lesson.
func (s *Splitter) SplitCourse(c *Course) []Chunk {
	var chunks []Chunk
	for _, lesson := range c.Lessons {
		for i, content := range s.Split(lesson.Content) {
			chunks = append(chunks, Chunk{
				ID:           chunkID(c.Title, lesson.Number, i),
				CourseTitle:  c.Title,
				LessonNumber: lesson.Number,
				Index:        i,
				Content:      content,
			})
		}
	}
	return chunks
}

// overlapTail returns the trailing sentences of chunk whose joined length
// fits the overlap budget. Never returns the whole chunk, so every new
// chunk contains at least one fresh sentence.
func (s *Splitter) overlapTail(chunk []string) []string {
	if s.overlap <= 0 || len(chunk) < 2 {
		return nil
	}
	total := 0
	start := len(chunk)
	for i := len(chunk) - 1; i > 0; i-- {
		add := len(chunk[i])
		if total > 0 {
			add++
		}
		if total+add > s.overlap {
			break
		}
		total += add
		start = i
	}
	if start == len(chunk) {
		return nil
	}
	tail := make([]string, len(chunk)-start)
	copy(tail, chunk[start:])
	return tail
}

func joinedLen(sentences []string) int {
	if len(sentences) == 0 {
		return 0
	}
	n := len(sentences) - 1
	for _, s := range sentences {
		n += len(s)
	}
	return n
}

// SplitSentences splits text on sentence-ending punctuation followed by
// whitespace. Terminators stay attached to their sentence. Trailing text
// without a terminator is kept as a final sentence.
func SplitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		// Consume a run of terminators ("?!", "...").
		end := i
		for end+1 < len(runes) && isTerminator(runes[end+1]) {
			end++
		}
		if end+1 < len(runes) && !unicode.IsSpace(runes[end+1]) {
			i = end
			continue
		}
		if s := strings.TrimSpace(string(runes[start : end+1])); s != "" {
			sentences = append(sentences, s)
		}
		i = end
		start = end + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
