// Package api serves journal queries over JSON RPC so findings from a long
// fuzz run can be inspected while the run is still going.
package api

import (
	"syncoracle/internal/journal"
)

// Findings answers queries about recorded validation failures.
type Findings struct {
	jnl *journal.Journal
}

type FindingsParams struct {
	URI string `json:"uri"`
}

type FindingsResult struct {
	Findings []journal.Finding `json:"findings"`
	Error    string            `json:"error"`
}

func (f *Findings) GetAll(params *FindingsParams, result *FindingsResult) error {
	findings, err := f.jnl.Findings()
	result.Findings = findings
	if err != nil {
		result.Error = err.Error()
	}
	return nil
}

func (f *Findings) GetForDocument(params *FindingsParams, result *FindingsResult) error {
	findings, err := f.jnl.FindingsFor(params.URI)
	result.Findings = findings
	if err != nil {
		result.Error = err.Error()
	}
	return nil
}

// Events answers queries about the recorded notification trail.
type Events struct {
	jnl *journal.Journal
}

type EventsParams struct {
	Limit int `json:"limit"`
}

type EventsResult struct {
	Events []journal.Event `json:"events"`
	Error  string          `json:"error"`
}

func (e *Events) Recent(params *EventsParams, result *EventsResult) error {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	events, err := e.jnl.RecentEvents(limit)
	result.Events = events
	if err != nil {
		result.Error = err.Error()
	}
	return nil
}
