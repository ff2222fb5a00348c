package shadow

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrAlreadyOpen signals an open event for a document that already has a
	// shadow entry. Never a silent overwrite: it means the driving layer
	// violated protocol ordering.
	ErrAlreadyOpen = errors.New("document already open")

	// ErrNotOpen signals a change, save or close event for a document with no
	// shadow entry.
	ErrNotOpen = errors.New("document not open")
)

// Store owns the shadow copies of all open documents, keyed by URI. Entries
// are independent per document; events for one document are processed
// sequentially.
type Store struct {
	mu   sync.RWMutex
	docs map[string]string
}

func NewStore() *Store {
	return &Store{docs: make(map[string]string)}
}

// Open inserts a new shadow entry.
func (s *Store) Open(uri string, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[uri]; exists {
		return fmt.Errorf("%s: %w", uri, ErrAlreadyOpen)
	}
	s.docs[uri] = text
	return nil
}

// Get returns the current shadow text for an open document.
func (s *Store) Get(uri string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	text, exists := s.docs[uri]
	if !exists {
		return "", fmt.Errorf("%s: %w", uri, ErrNotOpen)
	}
	return text, nil
}

// Replace overwrites the shadow text of an existing entry. The text is
// swapped wholesale; a shadow is never mutated in place.
func (s *Store) Replace(uri string, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[uri]; !exists {
		return fmt.Errorf("%s: %w", uri, ErrNotOpen)
	}
	s.docs[uri] = text
	return nil
}

// Close removes the shadow entry for a document.
func (s *Store) Close(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[uri]; !exists {
		return fmt.Errorf("%s: %w", uri, ErrNotOpen)
	}
	delete(s.docs, uri)
	return nil
}

// Contains reports whether a document has a shadow entry without failing.
func (s *Store) Contains(uri string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.docs[uri]
	return exists
}

// Paths returns the URIs of all open documents, sorted.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		paths = append(paths, uri)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of open documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
