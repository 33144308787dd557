package topology

import (
	"fmt"
	"math/rand/v2"
	"strings"

	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
	"github.com/matzehuels/flamecast/pkg/layered"
)

// InitialSolution selects the initial-topology constructor.
type InitialSolution int

const (
	// Matching is the preferred constructor.
	Matching InitialSolution = iota
	Random
	LowConnectivity
)

var initialNames = map[InitialSolution]string{
	Matching:        "matching",
	Random:          "random",
	LowConnectivity: "low-connectivity",
}

// String returns the canonical lower-case name.
func (s InitialSolution) String() string {
	if n, ok := initialNames[s]; ok {
		return n
	}
	return fmt.Sprintf("InitialSolution(%d)", int(s))
}

// ParseInitialSolution accepts the canonical names, case-insensitively, and
// "lowconnectivity" / "low_connectivity" as spellings of low-connectivity.
func ParseInitialSolution(s string) (InitialSolution, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	if norm == "lowconnectivity" {
		norm = "low-connectivity"
	}
	for k, n := range initialNames {
		if n == norm {
			return k, nil
		}
	}
	return 0, fcerrors.New(fcerrors.ErrCodeInvalidOptions, "unknown initial solution %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s InitialSolution) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *InitialSolution) UnmarshalText(b []byte) error {
	v, err := ParseInitialSolution(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Build runs the constructor selected by kind. The problem is validated
// first; the returned graph satisfies every structural invariant for the
// problem's capacities.
func Build(kind InitialSolution, p *Problem, rng *rand.Rand) (*layered.Graph, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var g *layered.Graph
	var err error
	switch kind {
	case Random:
		g = buildRandom(p, rng)
	case Matching:
		g, err = buildMatching(p, rng)
	case LowConnectivity:
		g, err = buildLowConnectivity(p)
	default:
		return nil, fcerrors.New(fcerrors.ErrCodeInvalidOptions, "unknown initial solution %d", int(kind))
	}
	if err != nil {
		return nil, err
	}
	if err := g.Validate(p.Capacities, len(p.Sources), len(p.Drains)); err != nil {
		return nil, fcerrors.Wrap(fcerrors.ErrCodeInternal, err, "%s constructor produced an invalid topology", kind)
	}
	return g, nil
}
