package harness

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"syncoracle/internal/patch"
	"syncoracle/internal/validator"
)

// Result summarizes one session run.
type Result struct {
	Steps int // steps executed, including the failing one
	Err   error
}

// Run drives the script through the validator step by step, stopping at the
// first finding. Events are strictly sequential; there is no overlap between
// a shadow update and the engine's processing of the same event.
func Run(script Script, v *validator.Validator) Result {
	for i, step := range script.Steps {
		var err error
		switch step.Kind {
		case StepOpen:
			err = v.DidOpen(&protocol.DidOpenTextDocumentParams{
				TextDocument: protocol.TextDocumentItem{
					URI:        step.URI,
					LanguageID: "plaintext",
					Version:    0,
					Text:       step.Text,
				},
			})
		case StepChange:
			err = v.DidChange(&protocol.DidChangeTextDocumentParams{
				TextDocument: protocol.VersionedTextDocumentIdentifier{
					TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: step.URI},
					Version:                int32(i),
				},
				ContentChanges: encodeChanges(step.Changes),
			})
		case StepSave:
			err = v.DidSave(&protocol.DidSaveTextDocumentParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: step.URI},
			})
		case StepClose:
			err = v.DidClose(&protocol.DidCloseTextDocumentParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: step.URI},
			})
		}
		if err != nil {
			return Result{Steps: i + 1, Err: err}
		}
	}
	return Result{Steps: len(script.Steps)}
}

// encodeChanges converts patch operations into the shapes glsp would have
// decoded off the wire.
func encodeChanges(changes []patch.Change) []interface{} {
	encoded := make([]interface{}, 0, len(changes))
	for _, c := range changes {
		if c.Range == nil {
			encoded = append(encoded, protocol.TextDocumentContentChangeEventWhole{Text: c.Text})
			continue
		}
		encoded = append(encoded, protocol.TextDocumentContentChangeEvent{
			Range: &protocol.Range{
				Start: protocol.Position{Line: c.Range.Start.Line, Character: c.Range.Start.Character},
				End:   protocol.Position{Line: c.Range.End.Line, Character: c.Range.End.Character},
			},
			Text: c.Text,
		})
	}
	return encoded
}
