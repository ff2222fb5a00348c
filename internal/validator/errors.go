package validator

import (
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"

	"syncoracle/internal/patch"
	"syncoracle/internal/shadow"
)

// InconsistencyError reports that the shadow copy and the engine's text
// diverged after a change event. It carries both snapshots so the finding can
// be diagnosed without replaying the session. Document state is unverifiable
// past this point; the session must not continue.
type InconsistencyError struct {
	URI    string
	Shadow string
	Engine string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("document %s diverged after change (-shadow +engine):\n%s", e.URI, e.Diff())
}

// Diff renders the divergence between the two snapshots.
func (e *InconsistencyError) Diff() string {
	return cmp.Diff(e.Shadow, e.Engine)
}

// Finding kinds, used to classify validator errors in journals and reports.
const (
	KindInconsistency = "inconsistency"
	KindProtocol      = "protocol"
	KindRange         = "range"
	KindEngine        = "engine"
)

// Kind classifies an error returned by the validator.
func Kind(err error) string {
	var inconsistency *InconsistencyError
	switch {
	case errors.As(err, &inconsistency):
		return KindInconsistency
	case errors.Is(err, shadow.ErrAlreadyOpen), errors.Is(err, shadow.ErrNotOpen):
		return KindProtocol
	case errors.Is(err, patch.ErrInvalidRange):
		return KindRange
	default:
		return KindEngine
	}
}
