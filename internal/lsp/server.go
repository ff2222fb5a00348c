// Package lsp exposes the validator as a stdio language server: lifecycle
// notifications route through the consistency check before reaching the
// engine, everything else is delegated untouched.
package lsp

import (
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"syncoracle/internal/journal"
	"syncoracle/internal/validator"
)

const lsName = "syncoracle"

var version = "0.1.0"

type Server struct {
	validator *validator.Validator
	journal   *journal.Journal
	handler   *protocol.Handler
	log       commonlog.Logger
}

// NewServer wires the validator into a glsp handler. The journal is
// optional; pass nil to skip persistence.
func NewServer(v *validator.Validator, jnl *journal.Journal) *server.Server {
	ls := &Server{
		validator: v,
		journal:   jnl,
		log:       commonlog.GetLogger("syncoracle.lsp"),
	}

	ls.handler = &protocol.Handler{
		Initialize:  ls.initialize,
		Initialized: ls.initialized,
		Shutdown:    ls.shutdown,
		Exit:        ls.exit,
		SetTrace:    ls.setTrace,

		TextDocumentDidOpen:   ls.textDocumentDidOpen,
		TextDocumentDidChange: ls.textDocumentDidChange,
		TextDocumentDidSave:   ls.textDocumentDidSave,
		TextDocumentDidClose:  ls.textDocumentDidClose,

		CancelRequest:                      ls.cancelRequest,
		WorkspaceDidChangeConfiguration:    ls.workspaceDidChangeConfiguration,
		WorkspaceDidChangeWatchedFiles:     ls.workspaceDidChangeWatchedFiles,
		WorkspaceDidChangeWorkspaceFolders: ls.workspaceDidChangeWorkspaceFolders,
	}

	return server.NewServer(ls.handler, lsName, false)
}
