package course

import (
	"fmt"
	"strings"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "basic",
			text: "First sentence. Second sentence! Third?",
			want: []string{"First sentence.", "Second sentence!", "Third?"},
		},
		{
			name: "terminator runs",
			text: "Really?! Yes... Moving on.",
			want: []string{"Really?!", "Yes...", "Moving on."},
		},
		{
			name: "abbreviation stays joined",
			text: "See section 3.14 for details. Done.",
			want: []string{"See section 3.14 for details.", "Done."},
		},
		{
			name: "trailing unterminated text kept",
			text: "Complete sentence. And a trailing fragment",
			want: []string{"Complete sentence.", "And a trailing fragment"},
		},
		{
			name: "empty",
			text: "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitSentences() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sentence[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplit_RespectsChunkSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "This is test sentence number %d with some padding words. ", i)
	}

	s := NewSplitter(800, 100)
	chunks := s.Split(b.String())
	if len(chunks) < 2 {
		t.Fatalf("len(chunks) = %d, want several", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 800 {
			t.Errorf("chunk[%d] length = %d, exceeds 800", i, len(c))
		}
	}
}

func TestSplit_OverlapSharedBetweenChunks(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Sentence number %02d carries enough words to matter. ", i)
	}

	s := NewSplitter(200, 60)
	chunks := s.Split(b.String())
	if len(chunks) < 2 {
		t.Fatalf("len(chunks) = %d, want several", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev := SplitSentences(chunks[i-1])
		cur := SplitSentences(chunks[i])
		if prev[len(prev)-1] != cur[0] && !strings.Contains(chunks[i-1], cur[0]) {
			t.Errorf("chunk[%d] does not start with overlap from chunk[%d]:\nprev: %q\ncur:  %q",
				i, i-1, chunks[i-1], chunks[i])
		}
	}
}

func TestSplit_NoContentLost(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "Unique marker sentence %03d. ", i)
	}

	s := NewSplitter(150, 40)
	joined := strings.Join(s.Split(b.String()), " ")
	for i := 0; i < 50; i++ {
		marker := fmt.Sprintf("Unique marker sentence %03d.", i)
		if !strings.Contains(joined, marker) {
			t.Errorf("sentence %q missing from chunked output", marker)
		}
	}
}

func TestSplit_OversizedSentence(t *testing.T) {
	long := strings.Repeat("word ", 300) + "end."
	s := NewSplitter(100, 20)
	chunks := s.Split(long)
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1 oversized chunk", len(chunks))
	}
	if len(chunks[0]) <= 100 {
		t.Errorf("oversized sentence was split: len = %d", len(chunks[0]))
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(800, 100)
	chunks := s.Split("Just one short sentence.")
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if chunks[0] != "Just one short sentence." {
		t.Errorf("chunk = %q", chunks[0])
	}
}

func TestNewSplitter_Clamping(t *testing.T) {
	s := NewSplitter(100, 150)
	if s.overlap >= s.chunkSize {
		t.Errorf("overlap %d not clamped below chunk size %d", s.overlap, s.chunkSize)
	}

	s = NewSplitter(0, -1)
	if s.chunkSize != DefaultChunkSize || s.overlap != DefaultOverlap {
		t.Errorf("defaults not applied: size=%d overlap=%d", s.chunkSize, s.overlap)
	}
}

func TestSplitCourse_TwoLongLessons(t *testing.T) {
	// Two lessons of ~2000 characters each at the 800/100 defaults. Each
	// sentence is exactly 49 characters, so packing is fully predictable:
	// 16 sentences per full chunk (799 chars), a 2-sentence overlap tail
	// (99 chars), 14 fresh sentences per follow-up chunk. 40 sentences
	// (1999 chars) therefore yield 3 chunks per lesson, matching
	// ceil((2000-100)/(800-100)).
	sentence := func(i int) string {
		return fmt.Sprintf("Sentence number %02d %s.", i, strings.Repeat("x", 29))
	}
	var sentences []string
	for i := 1; i <= 40; i++ {
		sentences = append(sentences, sentence(i))
	}
	content := strings.Join(sentences, " ")
	if len(content) != 1999 {
		t.Fatalf("lesson content length = %d, want 1999", len(content))
	}

	c := &Course{
		Title: "Long Course",
		Lessons: []Lesson{
			{Number: 1, Title: "One", Content: content},
			{Number: 2, Title: "Two", Content: content},
		},
	}

	s := NewSplitter(800, 100)
	chunks := s.SplitCourse(c)
	if len(chunks) != 6 {
		t.Fatalf("len(chunks) = %d, want 6 (3 per lesson)", len(chunks))
	}

	perLesson := map[int][]Chunk{}
	for _, ch := range chunks {
		perLesson[ch.LessonNumber] = append(perLesson[ch.LessonNumber], ch)
	}
	for _, lesson := range []int{1, 2} {
		got := perLesson[lesson]
		if len(got) != 3 {
			t.Fatalf("lesson %d chunk count = %d, want 3", lesson, len(got))
		}
		for i, ch := range got {
			if ch.Index != i {
				t.Errorf("lesson %d chunk[%d].Index = %d", lesson, i, ch.Index)
			}
			if len(ch.Content) > 800 {
				t.Errorf("lesson %d chunk[%d] length = %d, exceeds 800", lesson, i, len(ch.Content))
			}
		}

		// Consecutive chunks share the two-sentence overlap tail verbatim.
		for i := 1; i < len(got); i++ {
			prev, cur := got[i-1].Content, got[i].Content
			if prev[len(prev)-99:] != cur[:99] {
				t.Errorf("lesson %d chunk[%d] does not open with chunk[%d]'s tail:\ntail: %q\nhead: %q",
					lesson, i, i-1, prev[len(prev)-99:], cur[:99])
			}
		}
	}
}

func TestSplitCourse(t *testing.T) {
	c := &Course{
		Title: "Test Course",
		Lessons: []Lesson{
			{Number: 1, Title: "One", Content: "Lesson one content. More of it."},
			{Number: 2, Title: "Two", Content: "Lesson two content here."},
			{Number: 3, Title: "Empty", Content: ""},
		},
	}

	s := NewSplitter(800, 100)
	chunks := s.SplitCourse(c)
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}

	if chunks[0].CourseTitle != "Test Course" || chunks[0].LessonNumber != 1 || chunks[0].Index != 0 {
		t.Errorf("chunks[0] = %+v", chunks[0])
	}
	if chunks[1].LessonNumber != 2 {
		t.Errorf("chunks[1].LessonNumber = %d, want 2", chunks[1].LessonNumber)
	}

	seen := map[string]bool{}
	for _, ch := range chunks {
		if seen[ch.ID] {
			t.Errorf("duplicate chunk ID %q", ch.ID)
		}
		seen[ch.ID] = true
	}
}
