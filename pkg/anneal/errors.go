package anneal

import (
	"fmt"

	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
	"github.com/matzehuels/flamecast/pkg/neighbor"
)

// Stage names the part of a run in which an error occurred.
type Stage string

const (
	StageInitialEmbedding Stage = "initial embedding"
	StageSearch           Stage = "neighbor search"
	StageApply            Stage = "neighbor apply"
	StageReplay           Stage = "replay"
	StageFinalEmbedding   Stage = "final embedding"
)

// SolveError carries the (iteration, neighbor, kind) triple of a failure so
// that the failing state can be reproduced from the log.
type SolveError struct {
	Stage     Stage
	Iteration int
	Neighbor  *neighbor.Neighbor
	Kind      fcerrors.Code
	Err       error
}

func newSolveError(stage Stage, iteration int, n *neighbor.Neighbor, err error) *SolveError {
	kind := fcerrors.GetCode(err)
	if kind == "" {
		kind = fcerrors.ErrCodeInternal
	}
	return &SolveError{Stage: stage, Iteration: iteration, Neighbor: n, Kind: kind, Err: err}
}

func (e *SolveError) Error() string {
	if e.Neighbor != nil {
		return fmt.Sprintf("anneal: %s failed at iteration %d (%v) [%s]: %v", e.Stage, e.Iteration, *e.Neighbor, e.Kind, e.Err)
	}
	return fmt.Sprintf("anneal: %s failed at iteration %d [%s]: %v", e.Stage, e.Iteration, e.Kind, e.Err)
}

func (e *SolveError) Unwrap() error { return e.Err }
