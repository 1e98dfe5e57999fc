package gloss

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGlossKnownWords(t *testing.T) {
	t.Parallel()
	g := New()

	res := g.Gloss("Open your book to page five.", "es", 0)
	want := map[string]string{"open": "abrir", "book": "libro", "page": "página"}
	if len(res.Gloss) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(res.Gloss), len(want), res.Gloss)
	}
	for _, e := range res.Gloss {
		if want[e.En] != e.L1 {
			t.Errorf("entry %q = %q, want %q", e.En, e.L1, want[e.En])
		}
	}
}

func TestGlossDeduplicatesAndCaps(t *testing.T) {
	t.Parallel()
	g := New()

	res := g.Gloss("book book book pen paper teacher", "uk", 2)
	if len(res.Gloss) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(res.Gloss), res.Gloss)
	}
	if res.Gloss[0].En != "book" || res.Gloss[1].En != "pen" {
		t.Errorf("entries = %+v", res.Gloss)
	}
}

func TestGlossUnknownLanguage(t *testing.T) {
	t.Parallel()
	g := New()

	res := g.Gloss("open the book", "xx", 0)
	if len(res.Gloss) != 0 {
		t.Errorf("expected empty glossary, got %+v", res.Gloss)
	}
	if !strings.Contains(res.Translation, "not available") {
		t.Errorf("translation = %q", res.Translation)
	}
}

func TestTranslatePreservesPunctuation(t *testing.T) {
	t.Parallel()
	g := New()

	got := g.Translate("Open the book!", "es")
	if got != "abrir the libro!" {
		t.Errorf("translation = %q", got)
	}
}

func TestLoadDirFlatFormat(t *testing.T) {
	t.Parallel()
	g := New()

	dir := t.TempDir()
	path := filepath.Join(dir, "fr.json")
	if err := os.WriteFile(path, []byte(`{"book": "livre", "pen": "stylo"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := g.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	res := g.Gloss("the book", "fr", 0)
	if len(res.Gloss) != 1 || res.Gloss[0].L1 != "livre" {
		t.Errorf("gloss = %+v", res.Gloss)
	}
}

func TestLoadDirEntriesFormat(t *testing.T) {
	t.Parallel()
	g := New()

	dir := t.TempDir()
	path := filepath.Join(dir, "es.json")
	content := `{"entries": [{"en": "Window", "es": "ventana"}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := g.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	// File entries merge with the built-in Spanish dictionary.
	res := g.Gloss("window book", "es", 0)
	if len(res.Gloss) != 2 {
		t.Fatalf("gloss = %+v", res.Gloss)
	}
	if res.Gloss[0].En != "window" || res.Gloss[0].L1 != "ventana" {
		t.Errorf("first entry = %+v", res.Gloss[0])
	}
}

func TestLoadDirBadJSON(t *testing.T) {
	t.Parallel()
	g := New()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := g.LoadDir(dir); err == nil {
		t.Error("expected error for malformed dictionary file")
	}
}
