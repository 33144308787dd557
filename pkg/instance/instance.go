package instance

import (
	"fmt"

	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
	"github.com/matzehuels/flamecast/pkg/geom"
	"github.com/matzehuels/flamecast/pkg/topology"
)

// Coord is a point in its persisted [x, y] form.
type Coord [2]float64

// Point converts c to a geom.Point.
func (c Coord) Point() geom.Point { return geom.Pt(c[0], c[1]) }

// Instance is a persisted test instance.
type Instance struct {
	Alpha                   float64   `json:"alpha" yaml:"alpha"`
	NumLayers               int       `json:"num_layers" yaml:"num_layers"`
	Capacities              []int     `json:"capacities" yaml:"capacities"`
	SourcesDrainsEmbeddings [][]Coord `json:"sources_drains_embeddings" yaml:"sources_drains_embeddings"`
}

// FromProblem converts a problem to its persisted form.
func FromProblem(p *topology.Problem) *Instance {
	layers := make([][]Coord, p.NumLayers)
	for l := range layers {
		layers[l] = []Coord{}
	}
	for _, s := range p.Sources {
		layers[0] = append(layers[0], Coord{s.X, s.Y})
	}
	for _, d := range p.Drains {
		layers[p.NumLayers-1] = append(layers[p.NumLayers-1], Coord{d.X, d.Y})
	}
	return &Instance{
		Alpha:                   p.Alpha,
		NumLayers:               p.NumLayers,
		Capacities:              append([]int(nil), p.Capacities...),
		SourcesDrainsEmbeddings: layers,
	}
}

// Problem converts the instance to a validated problem. Interior layers must
// be empty.
func (inst *Instance) Problem() (*topology.Problem, error) {
	if len(inst.SourcesDrainsEmbeddings) != inst.NumLayers || inst.NumLayers < 2 {
		return nil, fcerrors.New(fcerrors.ErrCodeInvalidInstance,
			"sources_drains_embeddings has %d layers, num_layers is %d", len(inst.SourcesDrainsEmbeddings), inst.NumLayers)
	}
	last := inst.NumLayers - 1
	for l := 1; l < last; l++ {
		if n := len(inst.SourcesDrainsEmbeddings[l]); n != 0 {
			return nil, fcerrors.New(fcerrors.ErrCodeInvalidInstance, "interior layer %d lists %d points", l, n)
		}
	}
	p := &topology.Problem{
		Alpha:      inst.Alpha,
		NumLayers:  inst.NumLayers,
		Capacities: append([]int(nil), inst.Capacities...),
		Sources:    points(inst.SourcesDrainsEmbeddings[0]),
		Drains:     points(inst.SourcesDrainsEmbeddings[last]),
	}
	if err := p.Validate(); err != nil {
		return nil, fcerrors.Wrap(fcerrors.ErrCodeInvalidInstance, err, "instance")
	}
	return p, nil
}

// String summarises the instance.
func (inst *Instance) String() string {
	ns, nd := 0, 0
	if n := len(inst.SourcesDrainsEmbeddings); n > 0 {
		ns, nd = len(inst.SourcesDrainsEmbeddings[0]), len(inst.SourcesDrainsEmbeddings[n-1])
	}
	return fmt.Sprintf("instance(alpha=%g, layers=%d, sources=%d, drains=%d)", inst.Alpha, inst.NumLayers, ns, nd)
}

func points(cs []Coord) []geom.Point {
	out := make([]geom.Point, len(cs))
	for i, c := range cs {
		out[i] = c.Point()
	}
	return out
}
