package neighbor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/flamecast/pkg/layered"
)

// Kind identifies a move.
type Kind int

const (
	Recable Kind = iota
	Swap
	Merge
	Split
)

var kindNames = [...]string{"recable", "swap", "merge", "split"}

func (k Kind) String() string {
	if k < Recable || k > Split {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	i := slices.Index(kindNames[:], strings.ToLower(string(b)))
	if i < 0 {
		return fmt.Errorf("unknown neighbor kind %q", b)
	}
	*k = Kind(i)
	return nil
}

// Neighbor describes one move. Field use depends on Kind:
//
//	Recable  Vertex moves under Target (an index in Vertex.Layer+1)
//	Swap     Vertex and Other (same layer) exchange parents
//	Merge    Other's children move under Vertex; Other is removed
//	Split    Subset (indices in Vertex.Layer-1, all children of Vertex)
//	         moves under a new sibling of Vertex
type Neighbor struct {
	Kind   Kind             `json:"kind" yaml:"kind"`
	Vertex layered.VertexID `json:"vertex" yaml:"vertex"`
	Other  int              `json:"other,omitempty" yaml:"other,omitempty"`
	Target int              `json:"target,omitempty" yaml:"target,omitempty"`
	Subset []int            `json:"subset,omitempty" yaml:"subset,omitempty"`
}

// NewRecable redirects v's outgoing edge to target in the layer above.
func NewRecable(v layered.VertexID, target int) Neighbor {
	return Neighbor{Kind: Recable, Vertex: v, Target: target}
}

// NewSwap exchanges the parents of (layer, a) and (layer, b).
func NewSwap(layer, a, b int) Neighbor {
	if b < a {
		a, b = b, a
	}
	return Neighbor{Kind: Swap, Vertex: layered.ID(layer, a), Other: b}
}

// NewMerge folds w's children under u.
func NewMerge(layer, u, w int) Neighbor {
	return Neighbor{Kind: Merge, Vertex: layered.ID(layer, u), Other: w}
}

// NewSplit moves subset, a non-empty proper subset of p's children, under a
// new sibling of p. A single child is a valid subset.
func NewSplit(p layered.VertexID, subset []int) Neighbor {
	return Neighbor{Kind: Split, Vertex: p, Subset: slices.Clone(subset)}
}

func (n Neighbor) String() string {
	switch n.Kind {
	case Recable:
		return fmt.Sprintf("recable %v -> %d", n.Vertex, n.Target)
	case Swap:
		return fmt.Sprintf("swap %v <-> %d", n.Vertex, n.Other)
	case Merge:
		return fmt.Sprintf("merge %d into %v", n.Other, n.Vertex)
	case Split:
		return fmt.Sprintf("split %v %v", n.Vertex, n.Subset)
	default:
		return n.Kind.String()
	}
}

// Clone returns a copy that shares no memory with n.
func (n Neighbor) Clone() Neighbor {
	n.Subset = slices.Clone(n.Subset)
	return n
}

// Equal reports whether n and m describe the same move.
func (n Neighbor) Equal(m Neighbor) bool {
	return n.Kind == m.Kind && n.Vertex == m.Vertex && n.Other == m.Other &&
		n.Target == m.Target && slices.Equal(n.Subset, m.Subset)
}

// key identifies the move for de-duplication during enumeration.
func (n Neighbor) key() string { return n.String() }
