// Package script loads plain-text scripts for the teleprompter.
package script

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrEmpty is returned for scripts with no words.
var ErrEmpty = errors.New("script is empty")

// Script is a loaded text split into paragraphs.
type Script struct {
	Path       string
	Title      string
	Paragraphs []string
	Words      int
}

// Load reads a UTF-8 text file. Blank lines separate paragraphs; line breaks
// inside a paragraph are treated as spaces.
func Load(path string) (*Script, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only script.
			_ = cerr
		}
	}()

	var paragraphs []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = current[:0]
		}
	}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.Join(strings.Fields(scanner.Text()), " ")
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	flush()

	s := &Script{
		Path:       path,
		Title:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Paragraphs: paragraphs,
	}
	for _, p := range paragraphs {
		s.Words += CountWords(p)
	}
	if s.Words == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return s, nil
}

// CountWords counts whitespace-separated tokens that contain at least one
// letter or digit, so stray dashes and bullets are not counted.
func CountWords(text string) int {
	count := 0
	for _, field := range strings.Fields(text) {
		if isWord(field) {
			count++
		}
	}
	return count
}

func isWord(token string) bool {
	for _, r := range token {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
