package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// Tx batches journal writes so a whole session's trail commits atomically.
type Tx struct {
	tx *sql.Tx
}

func (j *Journal) WithTx(fn func(*Tx) error) error {
	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *Tx) RecordEvent(event Event) error {
	if event.ReceivedAt == 0 {
		event.ReceivedAt = time.Now().Unix()
	}
	_, err := t.tx.Exec(`
        INSERT INTO events (uri, kind, detail, received_at)
        VALUES (?, ?, ?, ?)
    `, event.URI, event.Kind, event.Detail, event.ReceivedAt)
	if err != nil {
		return fmt.Errorf("failed to record event in transaction: %w", err)
	}
	return nil
}

func (t *Tx) RecordFinding(finding Finding) error {
	if finding.CreatedAt == 0 {
		finding.CreatedAt = time.Now().Unix()
	}
	_, err := t.tx.Exec(`
        INSERT INTO findings (uri, kind, detail, shadow_text, engine_text, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, finding.URI, finding.Kind, finding.Detail, finding.ShadowText, finding.EngineText, finding.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record finding in transaction: %w", err)
	}
	return nil
}
