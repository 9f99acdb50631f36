package storage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
)

// SourceList is the newline-delimited file of monitored URLs shared with
// the fetch program.
type SourceList struct {
	path string
	mu   sync.Mutex
}

// NewSourceList binds the list to a file path; the file need not exist yet.
func NewSourceList(path string) *SourceList {
	return &SourceList{path: path}
}

// Path returns the backing file.
func (s *SourceList) Path() string { return s.path }

// List returns the non-blank lines in file order.
func (s *SourceList) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Add appends url unless an identical line is already present.
// It reports whether the file changed.
func (s *SourceList) Add(url string) (bool, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return false, errors.New("empty url")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read()
	if err != nil {
		return false, err
	}
	for _, line := range existing {
		if line == url {
			return false, nil
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("open source list: %w", err)
	}
	if _, err := f.WriteString(url + "\n"); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("append source: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close source list: %w", err)
	}
	return true, nil
}

// Remove rewrites the file without url. It reports whether url was present.
func (s *SourceList) Remove(url string) (bool, error) {
	url = strings.TrimSpace(url)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read()
	if err != nil {
		return false, err
	}

	kept := existing[:0]
	removed := false
	for _, line := range existing {
		if line == url {
			removed = true
			continue
		}
		kept = append(kept, line)
	}
	if !removed {
		return false, nil
	}
	return true, s.write(kept)
}

// Clear truncates the list.
func (s *SourceList) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(nil)
}

func (s *SourceList) read() ([]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read source list: %w", err)
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan source list: %w", err)
	}
	return lines, nil
}

func (s *SourceList) write(lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(s.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write source list: %w", err)
	}
	return nil
}
