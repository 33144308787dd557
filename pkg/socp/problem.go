package socp

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// ErrShape is returned when q, A, b and the cones disagree on dimensions.
	ErrShape = errors.New("problem dimensions are inconsistent")

	// ErrUnsupportedEquality is returned when a zero-cone row touches more
	// than one variable; only coordinate pinning rows are supported.
	ErrUnsupportedEquality = errors.New("zero-cone rows must pin a single variable")

	// ErrInconsistentEquality is returned when two zero-cone rows pin the
	// same variable to different values.
	ErrInconsistentEquality = errors.New("zero-cone rows pin a variable to different values")

	// ErrUnbounded is returned when a free variable with a non-zero cost
	// appears in no cone.
	ErrUnbounded = errors.New("objective is unbounded below")

	// ErrInfeasibleStart is returned when no strictly feasible starting point
	// can be constructed for a cone.
	ErrInfeasibleStart = errors.New("cannot construct a strictly feasible start")

	// ErrNotConverged is returned when the Newton iteration budget is
	// exhausted before the duality-gap bound reaches the tolerance.
	ErrNotConverged = errors.New("interior-point method did not converge")

	// ErrTimeLimit is returned when the solve exceeds its time limit.
	ErrTimeLimit = errors.New("interior-point method exceeded its time limit")

	// ErrNumerical is returned when the normal matrix loses positive
	// definiteness or a line search cannot make progress.
	ErrNumerical = errors.New("numerical breakdown in interior-point method")
)

// ConeKind distinguishes the supported cone families.
type ConeKind int

const (
	// ZeroCone constrains its slack rows to zero (equalities).
	ZeroCone ConeKind = iota
	// SecondOrderCone constrains its rows (t, u) to ‖u‖₂ ≤ t.
	SecondOrderCone
)

// Cone is one factor of K and covers Dim consecutive rows of A.
type Cone struct {
	Kind ConeKind
	Dim  int
}

// Zero returns a zero cone of dimension d.
func Zero(d int) Cone { return Cone{Kind: ZeroCone, Dim: d} }

// SOC returns a second-order cone of dimension d (one t row plus d−1 rows).
func SOC(d int) Cone { return Cone{Kind: SecondOrderCone, Dim: d} }

// Problem is a conic program in standard form.
type Problem struct {
	Q     []float64
	A     *CSC
	B     []float64
	Cones []Cone

	// X0 optionally seeds the free variables; nil starts from zero.
	X0 []float64
}

// Validate checks that the dimensions of q, A, b and the cones agree.
func (p *Problem) Validate() error {
	if p.A == nil {
		return fmt.Errorf("%w: nil constraint matrix", ErrShape)
	}
	if len(p.Q) != p.A.N {
		return fmt.Errorf("%w: len(q)=%d, A has %d columns", ErrShape, len(p.Q), p.A.N)
	}
	if len(p.B) != p.A.M {
		return fmt.Errorf("%w: len(b)=%d, A has %d rows", ErrShape, len(p.B), p.A.M)
	}
	rows := 0
	for i, c := range p.Cones {
		if c.Dim < 1 || (c.Kind == SecondOrderCone && c.Dim < 2) {
			return fmt.Errorf("%w: cone %d has dimension %d", ErrShape, i, c.Dim)
		}
		rows += c.Dim
	}
	if rows != p.A.M {
		return fmt.Errorf("%w: cones cover %d rows, A has %d", ErrShape, rows, p.A.M)
	}
	if p.X0 != nil && len(p.X0) != p.A.N {
		return fmt.Errorf("%w: len(x0)=%d, want %d", ErrShape, len(p.X0), p.A.N)
	}
	return nil
}

// Settings bounds the effort of a solve.
type Settings struct {
	// MaxIter caps the total number of Newton steps.
	MaxIter int
	// TimeLimit caps wall-clock time; zero means no limit.
	TimeLimit time.Duration
	// Tolerance is the target relative duality-gap bound.
	Tolerance float64
	// Verbose logs one line per centering round at debug level.
	Verbose bool
	// Logger receives verbose output; log.Default() when nil.
	Logger *log.Logger
}

// DefaultSettings returns the settings used when callers pass a zero value.
func DefaultSettings() Settings {
	return Settings{MaxIter: 200, Tolerance: 1e-9}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.MaxIter <= 0 {
		s.MaxIter = d.MaxIter
	}
	if s.Tolerance <= 0 {
		s.Tolerance = d.Tolerance
	}
	if s.Logger == nil {
		s.Logger = log.Default()
	}
	return s
}

// Solution is the result of a successful solve.
type Solution struct {
	X          []float64     // full primal vector, pinned variables included
	Objective  float64       // qᵀx
	Gap        float64       // final duality-gap bound, 2·#cones/τ on the path
	Iterations int           // Newton steps taken
	Elapsed    time.Duration // wall-clock time
}
