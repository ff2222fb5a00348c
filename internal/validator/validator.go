// Package validator cross-checks a text-document synchronization engine
// against a deliberately naive shadow copy of every open document. Each
// lifecycle event is first applied to the shadow, then forwarded to the
// engine; after a change event the engine's text must match the shadow
// scalar for scalar. Any divergence or protocol-ordering violation is a
// finding and aborts the session.
package validator

import (
	"fmt"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"syncoracle/internal/patch"
	"syncoracle/internal/shadow"
)

// Validator processes one lifecycle event at a time: shadow mutation, then
// forwarding, then (for changes) fetch-and-compare. There is no recovery
// path; every error it returns is a finding about the engine or the driver.
type Validator struct {
	store  *shadow.Store
	engine Engine
	log    commonlog.Logger
}

func New(engine Engine) *Validator {
	return &Validator{
		store:  shadow.NewStore(),
		engine: engine,
		log:    commonlog.GetLogger("syncoracle.validator"),
	}
}

// Store exposes the shadow store for harness assertions and stats.
func (v *Validator) Store() *shadow.Store {
	return v.store
}

// DidOpen creates the shadow entry and forwards the event. An open for an
// already tracked document is a protocol violation by the driving layer.
func (v *Validator) DidOpen(params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	if err := v.store.Open(uri, params.TextDocument.Text); err != nil {
		v.log.Errorf("open event for tracked document %s", uri)
		return err
	}
	return v.engine.DidOpen(params)
}

// DidChange applies the event's content changes to the shadow in list order,
// forwards the event, then compares the engine's text against the shadow.
func (v *Validator) DidChange(params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	current, err := v.store.Get(uri)
	if err != nil {
		v.log.Errorf("change event for untracked document %s", uri)
		return err
	}

	changes, err := decodeChanges(params.ContentChanges)
	if err != nil {
		return fmt.Errorf("document %s: %w", uri, err)
	}

	updated, err := patch.Apply(current, changes)
	if err != nil {
		v.log.Errorf("rejected change for %s: %s", uri, err.Error())
		return fmt.Errorf("document %s: %w", uri, err)
	}
	if err := v.store.Replace(uri, updated); err != nil {
		return err
	}

	if err := v.engine.DidChange(params); err != nil {
		return fmt.Errorf("engine rejected change for %s: %w", uri, err)
	}

	actual, err := v.engine.Text(uri)
	if err != nil {
		return fmt.Errorf("engine text for %s: %w", uri, err)
	}
	if actual != updated {
		v.log.Errorf("document %s diverged at version %d", uri, params.TextDocument.Version)
		return &InconsistencyError{URI: uri, Shadow: updated, Engine: actual}
	}
	return nil
}

// DidSave checks that the document is tracked and forwards the event. Save
// never mutates or removes the shadow.
func (v *Validator) DidSave(params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI
	if !v.store.Contains(uri) {
		v.log.Errorf("save event for untracked document %s", uri)
		return fmt.Errorf("%s: %w", uri, shadow.ErrNotOpen)
	}
	return v.engine.DidSave(params)
}

// DidClose removes the shadow entry and forwards the event.
func (v *Validator) DidClose(params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	if err := v.store.Close(uri); err != nil {
		v.log.Errorf("close event for untracked document %s", uri)
		return err
	}
	return v.engine.DidClose(params)
}

// decodeChanges converts protocol content changes into patch operations.
// glsp decodes an incremental change as TextDocumentContentChangeEvent and a
// whole-document change as TextDocumentContentChangeEventWhole.
func decodeChanges(raw []interface{}) ([]patch.Change, error) {
	changes := make([]patch.Change, 0, len(raw))
	for _, c := range raw {
		switch event := c.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, patch.Change{Text: event.Text})

		case protocol.TextDocumentContentChangeEvent:
			if event.Range == nil {
				changes = append(changes, patch.Change{Text: event.Text})
				continue
			}
			changes = append(changes, patch.Change{
				Range: &patch.Range{
					Start: patch.Position{
						Line:      uint32(event.Range.Start.Line),
						Character: uint32(event.Range.Start.Character),
					},
					End: patch.Position{
						Line:      uint32(event.Range.End.Line),
						Character: uint32(event.Range.End.Character),
					},
				},
				Text: event.Text,
			})

		default:
			return nil, fmt.Errorf("unsupported content change type %T", c)
		}
	}
	return changes, nil
}
