package script

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speech.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeScript(t, "Signore e signori,\nbenvenuti.\n\n\n  Oggi — parliamo di  traduzione.  \n")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"Signore e signori, benvenuti.", "Oggi — parliamo di traduzione."}
	if !reflect.DeepEqual(s.Paragraphs, want) {
		t.Fatalf("unexpected paragraphs %q", s.Paragraphs)
	}
	if s.Words != 8 {
		t.Fatalf("expected 8 words, got %d", s.Words)
	}
	if s.Title != "speech" {
		t.Fatalf("unexpected title %q", s.Title)
	}
}

func TestLoadEmpty(t *testing.T) {
	path := writeScript(t, "\n  \n - \n")
	if _, err := Load(path); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestWrap(t *testing.T) {
	got := Wrap("the quick brown fox jumps", 10)
	want := []string{"the quick", "brown fox", "jumps"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected wrap %q", got)
	}
}

func TestWrapLongWordAndWideRunes(t *testing.T) {
	got := Wrap("abcdefghij", 4)
	want := []string{"abcd", "efgh", "ij"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected wrap %q", got)
	}
	got = Wrap("日本語のテキスト", 6)
	want = []string{"日本語", "のテキ", "スト"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected wide wrap %q", got)
	}
}

func TestLayoutSpacing(t *testing.T) {
	s := &Script{Paragraphs: []string{"one two", "three"}}
	got := s.Layout(5, 1)
	want := []string{"one", "", "two", "", "", "three", ""}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected layout %q", got)
	}
}
