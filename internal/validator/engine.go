package validator

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Engine is the narrow capability surface of the synchronization engine under
// test: one method per lifecycle event kind, plus a fetch of its current text
// for a document. The text returned by Text must reflect every event
// previously forwarded for that URI.
type Engine interface {
	DidOpen(params *protocol.DidOpenTextDocumentParams) error
	DidChange(params *protocol.DidChangeTextDocumentParams) error
	DidSave(params *protocol.DidSaveTextDocumentParams) error
	DidClose(params *protocol.DidCloseTextDocumentParams) error
	Text(uri string) (string, error)
}
