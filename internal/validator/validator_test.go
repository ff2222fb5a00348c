package validator_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"syncoracle/internal/patch"
	"syncoracle/internal/shadow"
	"syncoracle/internal/validator"
)

// fakeEngine applies forwarded events faithfully and records what it saw.
// A corrupt hook lets tests inject a deliberately wrong authoritative
// response.
type fakeEngine struct {
	texts     map[string]string
	forwarded []string
	corrupt   func(uri string, text string) string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{texts: make(map[string]string)}
}

func (e *fakeEngine) DidOpen(params *protocol.DidOpenTextDocumentParams) error {
	e.forwarded = append(e.forwarded, "open "+params.TextDocument.URI)
	e.texts[params.TextDocument.URI] = params.TextDocument.Text
	return nil
}

func (e *fakeEngine) DidChange(params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI
	e.forwarded = append(e.forwarded, "change "+uri)

	text := e.texts[uri]
	for _, change := range params.ContentChanges {
		switch event := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = event.Text
		case protocol.TextDocumentContentChangeEvent:
			next, err := patch.Apply(text, []patch.Change{{
				Range: &patch.Range{
					Start: patch.Position{Line: uint32(event.Range.Start.Line), Character: uint32(event.Range.Start.Character)},
					End:   patch.Position{Line: uint32(event.Range.End.Line), Character: uint32(event.Range.End.Character)},
				},
				Text: event.Text,
			}})
			if err != nil {
				return err
			}
			text = next
		default:
			return fmt.Errorf("unsupported change type %T", change)
		}
	}
	e.texts[uri] = text
	return nil
}

func (e *fakeEngine) DidSave(params *protocol.DidSaveTextDocumentParams) error {
	e.forwarded = append(e.forwarded, "save "+params.TextDocument.URI)
	return nil
}

func (e *fakeEngine) DidClose(params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	e.forwarded = append(e.forwarded, "close "+uri)
	delete(e.texts, uri)
	return nil
}

func (e *fakeEngine) Text(uri string) (string, error) {
	text, exists := e.texts[uri]
	if !exists {
		return "", fmt.Errorf("no text for %s", uri)
	}
	if e.corrupt != nil {
		return e.corrupt(uri, text), nil
	}
	return text, nil
}

func openParams(uri string, text string) *protocol.DidOpenTextDocumentParams {
	return &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "plaintext", Version: 1, Text: text},
	}
}

func changeParams(uri string, changes ...interface{}) *protocol.DidChangeTextDocumentParams {
	return &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: changes,
	}
}

func spliceEvent(startLine, startChar, endLine, endChar uint32, text string) protocol.TextDocumentContentChangeEvent {
	return protocol.TextDocumentContentChangeEvent{
		Range: &protocol.Range{
			Start: protocol.Position{Line: startLine, Character: startChar},
			End:   protocol.Position{Line: endLine, Character: endChar},
		},
		Text: text,
	}
}

func TestEndToEndSession(t *testing.T) {
	eng := newFakeEngine()
	v := validator.New(eng)

	if err := v.DidOpen(openParams("file:///d1.txt", "abc\ndef")); err != nil {
		t.Fatalf("DidOpen failed: %v", err)
	}
	if text, _ := v.Store().Get("file:///d1.txt"); text != "abc\ndef" {
		t.Errorf("shadow after open = %q, want %q", text, "abc\ndef")
	}

	if err := v.DidChange(changeParams("file:///d1.txt", spliceEvent(0, 1, 0, 2, "X"))); err != nil {
		t.Fatalf("DidChange failed: %v", err)
	}
	if text, _ := v.Store().Get("file:///d1.txt"); text != "aXc\ndef" {
		t.Errorf("shadow after splice = %q, want %q", text, "aXc\ndef")
	}

	whole := protocol.TextDocumentContentChangeEventWhole{Text: "zzz"}
	if err := v.DidChange(changeParams("file:///d1.txt", whole)); err != nil {
		t.Fatalf("DidChange (full replace) failed: %v", err)
	}
	if text, _ := v.Store().Get("file:///d1.txt"); text != "zzz" {
		t.Errorf("shadow after replace = %q, want %q", text, "zzz")
	}

	if err := v.DidSave(&protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///d1.txt"},
	}); err != nil {
		t.Fatalf("DidSave failed: %v", err)
	}

	if err := v.DidClose(&protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///d1.txt"},
	}); err != nil {
		t.Fatalf("DidClose failed: %v", err)
	}
	if _, err := v.Store().Get("file:///d1.txt"); !errors.Is(err, shadow.ErrNotOpen) {
		t.Errorf("Get after close: got %v, want ErrNotOpen", err)
	}

	want := []string{
		"open file:///d1.txt",
		"change file:///d1.txt",
		"change file:///d1.txt",
		"save file:///d1.txt",
		"close file:///d1.txt",
	}
	if strings.Join(eng.forwarded, ",") != strings.Join(want, ",") {
		t.Errorf("forwarded events %v, want %v", eng.forwarded, want)
	}
}

func TestDuplicateOpenNotForwarded(t *testing.T) {
	eng := newFakeEngine()
	v := validator.New(eng)

	if err := v.DidOpen(openParams("file:///d1.txt", "one")); err != nil {
		t.Fatalf("DidOpen failed: %v", err)
	}
	err := v.DidOpen(openParams("file:///d1.txt", "two"))
	if !errors.Is(err, shadow.ErrAlreadyOpen) {
		t.Fatalf("got %v, want ErrAlreadyOpen", err)
	}
	if len(eng.forwarded) != 1 {
		t.Errorf("engine saw %d events, want 1 (the failed open must not forward)", len(eng.forwarded))
	}
}

func TestChangeForUnopenedDocument(t *testing.T) {
	eng := newFakeEngine()
	v := validator.New(eng)

	if err := v.DidOpen(openParams("file:///d2.txt", "hello")); err != nil {
		t.Fatalf("DidOpen failed: %v", err)
	}

	err := v.DidChange(changeParams("file:///d3.txt", spliceEvent(0, 0, 0, 1, "x")))
	if !errors.Is(err, shadow.ErrNotOpen) {
		t.Fatalf("got %v, want ErrNotOpen", err)
	}
	// The error fires before any patch attempt or forwarding.
	for _, ev := range eng.forwarded {
		if ev == "change file:///d3.txt" {
			t.Error("change for unopened document was forwarded")
		}
	}
}

func TestSaveForUnopenedDocument(t *testing.T) {
	v := validator.New(newFakeEngine())

	err := v.DidSave(&protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///ghost.txt"},
	})
	if !errors.Is(err, shadow.ErrNotOpen) {
		t.Fatalf("got %v, want ErrNotOpen", err)
	}
}

func TestInvalidRangeRejectedBeforeForwarding(t *testing.T) {
	eng := newFakeEngine()
	v := validator.New(eng)

	if err := v.DidOpen(openParams("file:///d1.txt", "abc")); err != nil {
		t.Fatalf("DidOpen failed: %v", err)
	}

	err := v.DidChange(changeParams("file:///d1.txt", spliceEvent(5, 0, 5, 0, "x")))
	if !errors.Is(err, patch.ErrInvalidRange) {
		t.Fatalf("got %v, want ErrInvalidRange", err)
	}
	if len(eng.forwarded) != 1 {
		t.Errorf("engine saw %d events, want 1 (invalid change must not forward)", len(eng.forwarded))
	}
}

func TestDivergenceRaisesInconsistency(t *testing.T) {
	eng := newFakeEngine()
	eng.corrupt = func(uri string, text string) string {
		return text + "!"
	}
	v := validator.New(eng)

	if err := v.DidOpen(openParams("file:///d1.txt", "abc")); err != nil {
		t.Fatalf("DidOpen failed: %v", err)
	}

	err := v.DidChange(changeParams("file:///d1.txt", spliceEvent(0, 0, 0, 1, "A")))
	var inconsistency *validator.InconsistencyError
	if !errors.As(err, &inconsistency) {
		t.Fatalf("got %v, want InconsistencyError", err)
	}
	if inconsistency.Shadow != "Abc" {
		t.Errorf("Shadow = %q, want %q", inconsistency.Shadow, "Abc")
	}
	if inconsistency.Engine != "Abc!" {
		t.Errorf("Engine = %q, want %q", inconsistency.Engine, "Abc!")
	}
	if inconsistency.Diff() == "" {
		t.Error("Diff() is empty for diverged texts")
	}
}

func TestKindClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"Inconsistency", &validator.InconsistencyError{URI: "u"}, validator.KindInconsistency},
		{"AlreadyOpen", fmt.Errorf("u: %w", shadow.ErrAlreadyOpen), validator.KindProtocol},
		{"NotOpen", fmt.Errorf("u: %w", shadow.ErrNotOpen), validator.KindProtocol},
		{"Range", fmt.Errorf("u: %w", patch.ErrInvalidRange), validator.KindRange},
		{"Other", errors.New("boom"), validator.KindEngine},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := validator.Kind(tc.err); got != tc.want {
				t.Errorf("Kind() = %q, want %q", got, tc.want)
			}
		})
	}
}
