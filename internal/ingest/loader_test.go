package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tarunagarwal/turbott/internal/models"
)

func newTestIngestor(t *testing.T) *Ingestor {
	t.Helper()
	in, err := NewIngestor(100, 20, nil)
	if err != nil {
		t.Fatal(err)
	}
	return in
}

func TestLoadDocument_missingFile(t *testing.T) {
	in := newTestIngestor(t)
	_, err := in.LoadDocument("nonexistent_file.txt")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadDocument_unsupportedExtension(t *testing.T) {
	in := newTestIngestor(t)
	path := filepath.Join(t.TempDir(), "data.xyz")
	if err := os.WriteFile(path, []byte("test content"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := in.LoadDocument(path)
	if !errors.Is(err, models.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadDocument_textFile(t *testing.T) {
	in := newTestIngestor(t)
	path := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(path, []byte("AI is a broad field of computer science."), 0600); err != nil {
		t.Fatal(err)
	}
	chunks, err := in.LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Metadata["source"] != path {
		t.Errorf("source metadata = %v", chunks[0].Metadata["source"])
	}
}

func TestLoadDocument_configuredExtensionsOnly(t *testing.T) {
	in, err := NewIngestor(100, 20, []string{".txt"})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "readme.md")
	if err := os.WriteFile(path, []byte("# heading"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := in.LoadDocument(path); !errors.Is(err, models.ErrUnsupportedFormat) {
		t.Fatalf("md outside configured set: expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestNewIngestor_unknownConfiguredExtension(t *testing.T) {
	if _, err := NewIngestor(100, 20, []string{".xyz"}); !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestLoadDirectory_missing(t *testing.T) {
	in := newTestIngestor(t)
	_, err := in.LoadDirectory(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadDirectory_recursiveAndPartialTolerance(t *testing.T) {
	in := newTestIngestor(t)
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		filepath.Join(dir, "a.txt"):    "first document body",
		filepath.Join(sub, "b.md"):     "second document body",
		filepath.Join(dir, "skip.xyz"): "ignored",
		// Garbage bytes with a .pdf extension: extraction fails, file is skipped.
		filepath.Join(dir, "broken.pdf"): "not a real pdf",
	}
	for p, content := range files {
		if err := os.WriteFile(p, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}

	chunks, err := in.LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks from the 2 readable documents, got %d", len(chunks))
	}
}

func TestLoadDirectory_emptyIsNotAnError(t *testing.T) {
	in := newTestIngestor(t)
	chunks, err := in.LoadDirectory(t.TempDir())
	if err != nil {
		t.Fatalf("empty directory should not error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestProcessText(t *testing.T) {
	in := newTestIngestor(t)
	chunks, err := in.ProcessText("Machine learning is a subset of AI.")
	if err != nil {
		t.Fatalf("ProcessText: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Metadata["source"] != "raw_text" {
		t.Errorf("source metadata = %v", chunks[0].Metadata["source"])
	}
}

func TestProcessText_blank(t *testing.T) {
	in := newTestIngestor(t)
	chunks, err := in.ProcessText("   \n\t ")
	if err != nil {
		t.Fatalf("ProcessText: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("blank text should yield no chunks, got %d", len(chunks))
	}
}
