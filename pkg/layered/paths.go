package layered

// Ancestors returns the indices of id's ancestors, starting with its parent
// (in layer id.Layer+1) and ending at the drain.
func (g *Graph) Ancestors(id VertexID) []int {
	var out []int
	for l, i := id.Layer, id.Index; l < g.DrainLayer(); l++ {
		i = g.Layers[l][i].Parent
		out = append(out, i)
	}
	return out
}

// DivergingPaths walks up from a and b, two vertices of the same layer, until
// their ancestor chains meet. It returns the vertices visited on each side
// before the meeting point (starting with a and b themselves) and the layer
// of the lowest common ancestor. When the chains reach different drains, the
// paths include those drains and lcaLayer is -1.
//
// A vertex in pathA at position k lives in layer a.Layer+k.
func (g *Graph) DivergingPaths(a, b VertexID) (pathA, pathB []int, lcaLayer int) {
	drain := g.DrainLayer()
	i, j := a.Index, b.Index
	for l := a.Layer; ; l++ {
		if i == j {
			return pathA, pathB, l
		}
		pathA = append(pathA, i)
		pathB = append(pathB, j)
		if l == drain {
			return pathA, pathB, -1
		}
		i = g.Layers[l][i].Parent
		j = g.Layers[l][j].Parent
	}
}

// Permute renumbers layer l so that the vertex at old index i moves to index
// perm[i]. Parent and children links of the neighbouring layers are patched
// so that the topology is unchanged; only the labelling differs.
func (g *Graph) Permute(l int, perm []int) {
	old := g.Layers[l]
	next := make(Layer, len(old))
	for i, v := range old {
		next[perm[i]] = v
	}
	g.Layers[l] = next
	if l > 0 {
		for _, v := range next {
			for _, c := range v.Children {
				g.Layers[l-1][c].Parent = perm[g.Layers[l-1][c].Parent]
			}
		}
	}
	if l < g.DrainLayer() {
		for pi := range g.Layers[l+1] {
			ch := g.Layers[l+1][pi].Children
			for k, c := range ch {
				ch[k] = perm[c]
			}
		}
	}
}
