package lsp

import (
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"syncoracle/internal/journal"
	"syncoracle/internal/validator"
)

func (ls *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &version,
		},
	}, nil
}

func (ls *Server) initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	ls.log.Info("client session started")
	return nil
}

func (ls *Server) shutdown(context *glsp.Context) error {
	ls.log.Info("client session shutting down")
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (ls *Server) exit(context *glsp.Context) error {
	return nil
}

func (ls *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	ls.record(params.TextDocument.URI, journal.EventOpen, "")
	return ls.check(params.TextDocument.URI, ls.validator.DidOpen(params))
}

func (ls *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	ls.record(params.TextDocument.URI, journal.EventChange, "")
	return ls.check(params.TextDocument.URI, ls.validator.DidChange(params))
}

func (ls *Server) textDocumentDidSave(
	context *glsp.Context,
	params *protocol.DidSaveTextDocumentParams,
) error {
	ls.record(params.TextDocument.URI, journal.EventSave, "")
	return ls.check(params.TextDocument.URI, ls.validator.DidSave(params))
}

func (ls *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	ls.record(params.TextDocument.URI, journal.EventClose, "")
	return ls.check(params.TextDocument.URI, ls.validator.DidClose(params))
}

// Non-lifecycle notifications pass through with no shadow interaction.

func (ls *Server) cancelRequest(context *glsp.Context, params *protocol.CancelParams) error {
	return nil
}

func (ls *Server) workspaceDidChangeConfiguration(
	context *glsp.Context,
	params *protocol.DidChangeConfigurationParams,
) error {
	return nil
}

func (ls *Server) workspaceDidChangeWatchedFiles(
	context *glsp.Context,
	params *protocol.DidChangeWatchedFilesParams,
) error {
	return nil
}

func (ls *Server) workspaceDidChangeWorkspaceFolders(
	context *glsp.Context,
	params *protocol.DidChangeWorkspaceFoldersParams,
) error {
	return nil
}

func (ls *Server) record(uri string, kind string, detail string) {
	if ls.journal == nil {
		return
	}
	if err := ls.journal.RecordEvent(journal.Event{URI: uri, Kind: kind, Detail: detail}); err != nil {
		ls.log.Errorf("failed to journal event: %s", err.Error())
	}
}

// check journals a validator error as a finding before handing it back to the
// transport. The error still propagates; the session is over either way.
func (ls *Server) check(uri string, err error) error {
	if err == nil {
		return nil
	}

	finding := journal.Finding{
		URI:    uri,
		Kind:   validator.Kind(err),
		Detail: err.Error(),
	}
	var inconsistency *validator.InconsistencyError
	if errors.As(err, &inconsistency) {
		finding.ShadowText = inconsistency.Shadow
		finding.EngineText = inconsistency.Engine
	}

	if ls.journal != nil {
		if jerr := ls.journal.RecordFinding(finding); jerr != nil {
			ls.log.Errorf("failed to journal finding: %s", jerr.Error())
		}
	}
	ls.log.Errorf("finding (%s) for %s: %s", finding.Kind, uri, err.Error())
	return err
}
