package layered

// Flows is the derived flow table: Flows[l][i] is the number of sources in
// the subtree of vertex (l, i). The flow on the edge from (l, i) to its
// parent is the same number.
type Flows [][]int

// ComputeFlows derives the flow table bottom-up in O(V).
func ComputeFlows(g *Graph) Flows {
	f := make(Flows, len(g.Layers))
	for l, layer := range g.Layers {
		f[l] = make([]int, len(layer))
		if l == 0 {
			for i := range f[l] {
				f[l][i] = 1
			}
			continue
		}
		for i, v := range layer {
			for _, c := range v.Children {
				f[l][i] += f[l-1][c]
			}
		}
	}
	return f
}

// Vertex returns the flow through id.
func (f Flows) Vertex(id VertexID) int { return f[id.Layer][id.Index] }

// Edge returns the flow on the edge from id to its parent.
func (f Flows) Edge(id VertexID) int { return f[id.Layer][id.Index] }

// Clone returns a deep copy of the table.
func (f Flows) Clone() Flows {
	out := make(Flows, len(f))
	for l := range f {
		out[l] = append([]int(nil), f[l]...)
	}
	return out
}

// DrainTotal returns the summed flow of the drain layer.
func (f Flows) DrainTotal() int {
	total := 0
	for _, v := range f[len(f)-1] {
		total += v
	}
	return total
}
