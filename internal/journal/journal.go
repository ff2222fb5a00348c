// Package journal persists the event trail and findings of validation
// sessions to SQLite, so a divergence caught during a long fuzz run survives
// the process for post-mortem analysis. Document content only ever enters
// the journal as part of a finding snapshot.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Event kinds recorded per lifecycle notification.
const (
	EventOpen   = "open"
	EventChange = "change"
	EventSave   = "save"
	EventClose  = "close"
)

// Event is one recorded lifecycle notification.
type Event struct {
	Seq        int64
	URI        string
	Kind       string
	Detail     string
	ReceivedAt int64
}

// Finding is one recorded validation failure. ShadowText and EngineText are
// populated for inconsistency findings only.
type Finding struct {
	ID         int64
	URI        string
	Kind       string
	Detail     string
	ShadowText string
	EngineText string
	CreatedAt  int64
}

type Journal struct {
	db *sql.DB
}

func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// Enable foreign keys and WAL mode
	if _, err := db.Exec(`
        PRAGMA foreign_keys = ON;
        PRAGMA journal_mode = WAL;
    `); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set PRAGMA: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordEvent appends one lifecycle notification to the trail.
func (j *Journal) RecordEvent(event Event) error {
	if event.ReceivedAt == 0 {
		event.ReceivedAt = time.Now().Unix()
	}
	_, err := j.db.Exec(`
        INSERT INTO events (uri, kind, detail, received_at)
        VALUES (?, ?, ?, ?)
    `, event.URI, event.Kind, event.Detail, event.ReceivedAt)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// RecordFinding appends one validation failure.
func (j *Journal) RecordFinding(finding Finding) error {
	if finding.CreatedAt == 0 {
		finding.CreatedAt = time.Now().Unix()
	}
	_, err := j.db.Exec(`
        INSERT INTO findings (uri, kind, detail, shadow_text, engine_text, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, finding.URI, finding.Kind, finding.Detail, finding.ShadowText, finding.EngineText, finding.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record finding: %w", err)
	}
	return nil
}

// Findings returns all recorded findings, oldest first.
func (j *Journal) Findings() ([]Finding, error) {
	return j.queryFindings(`
        SELECT id, uri, kind, detail, shadow_text, engine_text, created_at
        FROM findings ORDER BY id
    `)
}

// FindingsFor returns the findings recorded for one document.
func (j *Journal) FindingsFor(uri string) ([]Finding, error) {
	return j.queryFindings(`
        SELECT id, uri, kind, detail, shadow_text, engine_text, created_at
        FROM findings WHERE uri = ? ORDER BY id
    `, uri)
}

func (j *Journal) queryFindings(query string, args ...interface{}) ([]Finding, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var findings []Finding
	for rows.Next() {
		var f Finding
		if err := rows.Scan(&f.ID, &f.URI, &f.Kind, &f.Detail, &f.ShadowText, &f.EngineText, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// RecentEvents returns the latest events, newest first.
func (j *Journal) RecentEvents(limit int) ([]Event, error) {
	rows, err := j.db.Query(`
        SELECT seq, uri, kind, detail, received_at
        FROM events ORDER BY seq DESC LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.URI, &e.Kind, &e.Detail, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
