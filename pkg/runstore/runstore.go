// Package runstore records solve runs so that they can be listed and
// inspected after the fact.
//
// Backends:
//   - memory: in-process storage for the HTTP server and tests
//   - file: one JSON document per run for CLI batch jobs
//   - mongo: shared storage for multi-instance server deployments
//
// A [Run] is a summary. The full annealing log lives in the result cache
// under [Run.CacheKey].
package runstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is the stored summary of one solve.
type Run struct {
	ID            string    `json:"id" bson:"_id"`
	Status        Status    `json:"status" bson:"status"`
	InstanceHash  string    `json:"instance_hash" bson:"instance_hash"`
	CacheKey      string    `json:"cache_key" bson:"cache_key"`
	Initial       string    `json:"initial" bson:"initial"`
	Seed          uint64    `json:"seed" bson:"seed"`
	NumSources    int       `json:"num_sources" bson:"num_sources"`
	NumDrains     int       `json:"num_drains" bson:"num_drains"`
	InitialCost   float64   `json:"initial_cost,omitempty" bson:"initial_cost,omitempty"`
	FinalCost     float64   `json:"final_cost,omitempty" bson:"final_cost,omitempty"`
	BestIteration int       `json:"best_iteration,omitempty" bson:"best_iteration,omitempty"`
	Accepted      int       `json:"accepted,omitempty" bson:"accepted,omitempty"`
	CacheHit      bool      `json:"cache_hit" bson:"cache_hit"`
	Error         string    `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	FinishedAt    time.Time `json:"finished_at,omitzero" bson:"finished_at,omitempty"`
}

// NewRun returns a running record with a fresh identifier.
func NewRun() *Run {
	return &Run{ID: uuid.NewString(), Status: StatusRunning, CreatedAt: time.Now().UTC()}
}

// Finish marks the run done, failed when err is non-nil.
func (r *Run) Finish(err error) {
	r.FinishedAt = time.Now().UTC()
	if err != nil {
		r.Status, r.Error = StatusFailed, err.Error()
		return
	}
	r.Status = StatusSucceeded
}

// Duration returns the wall time of a finished run, or zero.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.CreatedAt)
}

// ListOptions filters and bounds List.
type ListOptions struct {
	Status Status
	Limit  int
}

// DefaultListLimit bounds List when ListOptions.Limit is zero.
const DefaultListLimit = 50

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

// Store is the interface for run storage backends.
type Store interface {
	// Create stores a new run.
	Create(ctx context.Context, run *Run) error
	// Update replaces an existing run; it returns ErrNotFound for unknown IDs.
	Update(ctx context.Context, run *Run) error
	// Get returns the run with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Run, error)
	// List returns runs newest first.
	List(ctx context.Context, opts ListOptions) ([]*Run, error)
	Close() error
}

// selectRuns applies ListOptions to an unordered set of runs.
func selectRuns(all []*Run, opts ListOptions) []*Run {
	out := make([]*Run, 0, len(all))
	for _, r := range all {
		if opts.Status == "" || r.Status == opts.Status {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > opts.limit() {
		out = out[:opts.limit()]
	}
	return out
}
