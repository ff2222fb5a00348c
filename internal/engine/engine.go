// Package engine is the production-flavored synchronization engine shipped
// with the module: an incremental buffer with a per-document line index,
// consulted for position lookups instead of rescanning from the top. It is
// the default system under test for the validator; any behavioral gap
// between it and the naive patch oracle is a divergence finding.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var (
	// ErrAlreadyTracked means didOpen arrived for a document this engine has
	// already open.
	ErrAlreadyTracked = errors.New("engine already tracks document")

	// ErrUntracked means an event referenced a document this engine never
	// opened.
	ErrUntracked = errors.New("engine does not track document")

	// ErrBadPosition means a change position does not resolve inside the
	// document.
	ErrBadPosition = errors.New("position out of document bounds")
)

type document struct {
	content string
	version int32
	index   lineIndex
}

func (d *document) reset(content string) {
	d.content = content
	d.index = buildIndex(content)
}

// FaultFunc rewrites the text the engine reports for a document. Installed
// only by tests and the fuzz driver to verify that the validator catches a
// divergent engine.
type FaultFunc func(uri string, text string) string

type Engine struct {
	mu    sync.RWMutex
	docs  map[string]*document
	fault FaultFunc
	log   commonlog.Logger
}

type Option func(*Engine)

// WithFault installs a corruption hook on Text.
func WithFault(f FaultFunc) Option {
	return func(e *Engine) {
		e.fault = f
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		docs: make(map[string]*document),
		log:  commonlog.GetLogger("syncoracle.engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) DidOpen(params *protocol.DidOpenTextDocumentParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	uri := params.TextDocument.URI
	if _, exists := e.docs[uri]; exists {
		return fmt.Errorf("%s: %w", uri, ErrAlreadyTracked)
	}

	doc := &document{version: int32(params.TextDocument.Version)}
	doc.reset(params.TextDocument.Text)
	e.docs[uri] = doc
	e.log.Debugf("tracking %s (%d bytes)", uri, len(doc.content))
	return nil
}

func (e *Engine) DidChange(params *protocol.DidChangeTextDocumentParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	uri := params.TextDocument.URI
	doc, exists := e.docs[uri]
	if !exists {
		return fmt.Errorf("%s: %w", uri, ErrUntracked)
	}

	for _, change := range params.ContentChanges {
		switch event := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			doc.reset(event.Text)

		case protocol.TextDocumentContentChangeEvent:
			if event.Range == nil {
				doc.reset(event.Text)
				continue
			}
			if err := doc.splice(*event.Range, event.Text); err != nil {
				return fmt.Errorf("%s: %w", uri, err)
			}

		default:
			return fmt.Errorf("%s: unsupported content change type %T", uri, change)
		}
	}

	doc.version = int32(params.TextDocument.Version)
	return nil
}

func (d *document) splice(r protocol.Range, text string) error {
	start, err := d.index.offset(d.content, uint32(r.Start.Line), uint32(r.Start.Character))
	if err != nil {
		return err
	}
	end, err := d.index.offset(d.content, uint32(r.End.Line), uint32(r.End.Character))
	if err != nil {
		return err
	}
	if end < start {
		return fmt.Errorf("range ends before it starts: %w", ErrBadPosition)
	}

	var b strings.Builder
	b.Grow(len(d.content) - (end - start) + len(text))
	b.WriteString(d.content[:start])
	b.WriteString(text)
	b.WriteString(d.content[end:])
	d.reset(b.String())
	return nil
}

func (e *Engine) DidSave(params *protocol.DidSaveTextDocumentParams) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	uri := params.TextDocument.URI
	if _, exists := e.docs[uri]; !exists {
		return fmt.Errorf("%s: %w", uri, ErrUntracked)
	}
	return nil
}

func (e *Engine) DidClose(params *protocol.DidCloseTextDocumentParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	uri := params.TextDocument.URI
	if _, exists := e.docs[uri]; !exists {
		return fmt.Errorf("%s: %w", uri, ErrUntracked)
	}
	delete(e.docs, uri)
	return nil
}

// Text returns the engine's current content for a document, after any
// installed fault hook has had its way with it.
func (e *Engine) Text(uri string) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	doc, exists := e.docs[uri]
	if !exists {
		return "", fmt.Errorf("%s: %w", uri, ErrUntracked)
	}
	if e.fault != nil {
		return e.fault(uri, doc.content), nil
	}
	return doc.content, nil
}

// Version returns the last change version seen for a document.
func (e *Engine) Version(uri string) (int32, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	doc, exists := e.docs[uri]
	if !exists {
		return 0, false
	}
	return doc.version, true
}
