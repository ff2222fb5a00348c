package harness

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"

	"syncoracle/internal/engine"
	"syncoracle/internal/journal"
	"syncoracle/internal/scheduler"
	"syncoracle/internal/validator"
)

// Campaign runs many random sessions, each against a fresh validator and
// engine pair. Sessions are independent; a finding in one never stops the
// others.
type Campaign struct {
	Seed     int64
	Sessions int
	Docs     int
	Changes  int

	// Fault, when set, is installed on every session's engine so the
	// campaign demonstrates divergence detection.
	Fault engine.FaultFunc

	// Journal, when set, receives a finding record per failed session.
	Journal *journal.Journal
}

// Run executes the campaign and returns the number of sessions that produced
// findings, along with the first finding observed.
func (c *Campaign) Run() (int, error) {
	log := commonlog.GetLogger("syncoracle.harness")

	sched := scheduler.NewScheduler(c.Sessions)
	sched.RunScheduler()

	var mu sync.Mutex
	var findings int
	var first error

	for i := 0; i < c.Sessions; i++ {
		seed := c.Seed + int64(i)
		name := fmt.Sprintf("session-%d", i)
		sched.Schedule(scheduler.Task{
			Name: name,
			Execute: func() error {
				script := NewGenerator(seed).Script(c.Docs, c.Changes)
				script.Seed = seed

				opts := []engine.Option{}
				if c.Fault != nil {
					opts = append(opts, engine.WithFault(c.Fault))
				}
				result := Run(script, validator.New(engine.New(opts...)))
				if result.Err == nil {
					return nil
				}

				log.Errorf("%s (seed %d) failed at step %d: %s", name, seed, result.Steps, result.Err.Error())
				c.report(seed, script, result)

				mu.Lock()
				findings++
				if first == nil {
					first = result.Err
				}
				mu.Unlock()
				return result.Err
			},
		})
	}

	sched.StopScheduler()
	return findings, first
}

// report journals the failed session: the event trail up to the failing step
// and the finding itself, committed atomically.
func (c *Campaign) report(seed int64, script Script, result Result) {
	if c.Journal == nil {
		return
	}

	finding := journal.Finding{
		Kind:   validator.Kind(result.Err),
		Detail: fmt.Sprintf("seed %d: %s", seed, result.Err.Error()),
	}
	var inconsistency *validator.InconsistencyError
	if errors.As(result.Err, &inconsistency) {
		finding.URI = inconsistency.URI
		finding.ShadowText = inconsistency.Shadow
		finding.EngineText = inconsistency.Engine
	}

	err := c.Journal.WithTx(func(tx *journal.Tx) error {
		for i := 0; i < result.Steps && i < len(script.Steps); i++ {
			step := script.Steps[i]
			event := journal.Event{
				URI:    step.URI,
				Kind:   string(step.Kind),
				Detail: fmt.Sprintf("seed %d step %d", seed, i),
			}
			if err := tx.RecordEvent(event); err != nil {
				return err
			}
		}
		return tx.RecordFinding(finding)
	})
	if err != nil {
		commonlog.GetLogger("syncoracle.harness").Errorf("failed to journal finding: %s", err.Error())
	}
}
