package ingest

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/tarunagarwal/turbott/internal/models"
)

func TestNewChunker_invalidOverlap(t *testing.T) {
	if _, err := NewChunker(100, 100); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("overlap == size: expected ErrConfiguration, got %v", err)
	}
	if _, err := NewChunker(100, 150); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("overlap > size: expected ErrConfiguration, got %v", err)
	}
	if _, err := NewChunker(0, 0); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("zero size: expected ErrConfiguration, got %v", err)
	}
}

func TestSplit_shortDocumentSingleChunk(t *testing.T) {
	c, err := NewChunker(100, 20)
	if err != nil {
		t.Fatal(err)
	}
	text := "A short document."
	chunks := c.Split([]models.Document{{Content: text}})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != text {
		t.Errorf("chunk should equal the whole document, got %q", chunks[0].Content)
	}
	if chunks[0].ChunkIndex != 0 {
		t.Errorf("ChunkIndex = %d", chunks[0].ChunkIndex)
	}
}

func TestSplit_contiguousCoverage(t *testing.T) {
	c, err := NewChunker(80, 16)
	if err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("sentence number ")
		b.WriteByte(byte('a' + i%26))
		b.WriteString(strings.Repeat("x", i%7))
		b.WriteString(". ")
		if i%5 == 4 {
			b.WriteString("\n\n")
		}
	}
	text := b.String()

	chunks := c.Split([]models.Document{{Content: text}})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Each chunk must be a substring of the source, start no later than the
	// previous chunk's end (no gaps), and the final chunk must reach the end.
	prevEnd := 0
	searchFrom := 0
	for i, ch := range chunks {
		if utf8.RuneCountInString(ch.Content) > 80 {
			t.Errorf("chunk %d exceeds size: %d runes", i, utf8.RuneCountInString(ch.Content))
		}
		pos := strings.Index(text[searchFrom:], ch.Content)
		if pos < 0 {
			t.Fatalf("chunk %d is not a substring of the source: %q", i, ch.Content)
		}
		start := searchFrom + pos
		if start > prevEnd {
			t.Errorf("gap before chunk %d: starts at %d, previous ended at %d", i, start, prevEnd)
		}
		prevEnd = start + len(ch.Content)
		searchFrom = start
	}
	if prevEnd != len(text) {
		t.Errorf("coverage ends at %d, source length %d", prevEnd, len(text))
	}
}

func TestSplit_deterministic(t *testing.T) {
	c, err := NewChunker(50, 10)
	if err != nil {
		t.Fatal(err)
	}
	text := strings.Repeat("alpha beta gamma delta epsilon. ", 20)
	a := c.Split([]models.Document{{Content: text}})
	b := c.Split([]models.Document{{Content: text}})
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Content != b[i].Content {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplit_overlapBetweenConsecutiveChunks(t *testing.T) {
	c, err := NewChunker(40, 12)
	if err != nil {
		t.Fatal(err)
	}
	text := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen"
	chunks := c.Split([]models.Document{{Content: text}})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		first := strings.Fields(chunks[i].Content)[0]
		if !strings.Contains(chunks[i-1].Content, first) {
			t.Errorf("chunk %d does not overlap chunk %d:\n%q\n%q",
				i, i-1, chunks[i-1].Content, chunks[i].Content)
		}
	}
}

func TestSplit_hardCutWithoutSeparators(t *testing.T) {
	c, err := NewChunker(10, 2)
	if err != nil {
		t.Fatal(err)
	}
	text := strings.Repeat("a", 25)
	chunks := c.Split([]models.Document{{Content: text}})
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if utf8.RuneCountInString(ch.Content) > 10 {
			t.Errorf("chunk %d exceeds size: %q", i, ch.Content)
		}
	}
	if chunks[len(chunks)-1].Content[len(chunks[len(chunks)-1].Content)-1] != 'a' {
		t.Error("last chunk should reach the end of the text")
	}
}

func TestSplit_metadataInherited(t *testing.T) {
	c, err := NewChunker(20, 4)
	if err != nil {
		t.Fatal(err)
	}
	meta := map[string]interface{}{"source": "/tmp/doc.txt"}
	chunks := c.Split([]models.Document{{Content: strings.Repeat("word ", 30), Metadata: meta}})
	for i, ch := range chunks {
		if ch.Metadata["source"] != "/tmp/doc.txt" {
			t.Errorf("chunk %d metadata = %v", i, ch.Metadata)
		}
		if ch.DocumentID == "" || ch.ID == "" {
			t.Errorf("chunk %d missing IDs", i)
		}
	}
}
