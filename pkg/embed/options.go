package embed

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// SearchDepth selects the precision of an embedding solve. Each depth maps to
// an interior-point iteration budget.
type SearchDepth int

const (
	Shallow SearchDepth = iota
	Middle
	Deep
	VeryDeep
)

var depthNames = [...]string{"shallow", "middle", "deep", "very_deep"}
var depthIterations = [...]int{100, 200, 500, 1000}

// Iterations returns the Newton step budget of the depth.
func (d SearchDepth) Iterations() int {
	if d < Shallow || d > VeryDeep {
		return depthIterations[Middle]
	}
	return depthIterations[d]
}

// Next returns the next deeper setting. The boolean is false at VeryDeep.
func (d SearchDepth) Next() (SearchDepth, bool) {
	if d >= VeryDeep {
		return VeryDeep, false
	}
	return d + 1, true
}

func (d SearchDepth) String() string {
	if d < Shallow || d > VeryDeep {
		return fmt.Sprintf("SearchDepth(%d)", int(d))
	}
	return depthNames[d]
}

// ParseSearchDepth accepts the names printed by String, case-insensitively,
// with "-" and "_" treated alike.
func ParseSearchDepth(s string) (SearchDepth, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, n := range depthNames {
		if n == norm || strings.ReplaceAll(n, "_", "") == norm {
			return SearchDepth(i), nil
		}
	}
	return Middle, fmt.Errorf("unknown search depth %q", s)
}

func (d SearchDepth) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *SearchDepth) UnmarshalText(b []byte) error {
	v, err := ParseSearchDepth(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Options controls one embedding solve.
type Options struct {
	SearchDepth SearchDepth   `json:"search_depth" toml:"search_depth"`
	TimeLimit   time.Duration `json:"time_limit" toml:"time_limit"`

	// Verbose forwards interior-point progress to the logger at debug level.
	Verbose bool `json:"verbose" toml:"verbose"`
	// PrintEmbeddingInfos logs solve statistics after every embedding.
	PrintEmbeddingInfos bool `json:"print_embedding_infos" toml:"print_embedding_infos"`
	// ShowDiff logs how far vertices moved relative to Previous.
	ShowDiff bool `json:"show_diff" toml:"show_diff"`

	// Previous, when it has the graph's shape, seeds the solver and is the
	// reference for ShowDiff.
	Previous VertexEmbeddings `json:"-" toml:"-"`
	Logger   *log.Logger      `json:"-" toml:"-"`
}

// DefaultOptions returns Middle depth with a 10 s time limit.
func DefaultOptions() Options {
	return Options{SearchDepth: Middle, TimeLimit: 10 * time.Second}
}

// WithDepth returns a copy of o with a different search depth.
func (o Options) WithDepth(d SearchDepth) Options {
	o.SearchDepth = d
	return o
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}
