package socp

import (
	"container/heap"
	"slices"
)

// symbolic is the result of ordering and symbolic factorisation of a
// symmetric pattern. Indices in colRows and rowRefs are permuted.
type symbolic struct {
	n     int
	perm  []int // perm[k] is the original index eliminated k-th
	iperm []int // iperm[perm[k]] == k

	// colRows[k] lists the strictly-below-diagonal rows of column k of L in
	// increasing order.
	colRows [][]int

	// rowRefs[k] lists, for every column j < k with L[k][j] ≠ 0, the position
	// of row k inside colRows[j].
	rowRefs [][]rowRef
}

type rowRef struct {
	col, pos int
}

// analyze orders the graph with adjacency lists adj by minimum degree and
// records the fill pattern of the Cholesky factor. The elimination is exact:
// when vertex v is eliminated its remaining neighbours become a clique, and
// that neighbour set is exactly the pattern of v's column in L.
func analyze(adj [][]int) *symbolic {
	n := len(adj)
	nbrs := make([]map[int]struct{}, n)
	for v := range n {
		nbrs[v] = make(map[int]struct{}, len(adj[v]))
		for _, u := range adj[v] {
			if u != v {
				nbrs[v][u] = struct{}{}
			}
		}
	}

	pq := make(degreeQueue, 0, n)
	for v := range n {
		pq = append(pq, degreeItem{vertex: v, degree: len(nbrs[v])})
	}
	heap.Init(&pq)

	eliminated := make([]bool, n)
	pattern := make([][]int, n)
	perm := make([]int, 0, n)

	for pq.Len() > 0 {
		it := heap.Pop(&pq).(degreeItem)
		v := it.vertex
		if eliminated[v] || it.degree != len(nbrs[v]) {
			continue // stale entry
		}
		eliminated[v] = true
		perm = append(perm, v)

		clique := make([]int, 0, len(nbrs[v]))
		for u := range nbrs[v] {
			clique = append(clique, u)
		}
		slices.Sort(clique)
		pattern[v] = clique

		for _, u := range clique {
			delete(nbrs[u], v)
		}
		for i, a := range clique {
			for _, b := range clique[i+1:] {
				nbrs[a][b] = struct{}{}
				nbrs[b][a] = struct{}{}
			}
		}
		for _, u := range clique {
			heap.Push(&pq, degreeItem{vertex: u, degree: len(nbrs[u])})
		}
		nbrs[v] = nil
	}

	s := &symbolic{
		n:       n,
		perm:    perm,
		iperm:   make([]int, n),
		colRows: make([][]int, n),
		rowRefs: make([][]rowRef, n),
	}
	for k, v := range perm {
		s.iperm[v] = k
	}
	for k, v := range perm {
		rows := make([]int, len(pattern[v]))
		for i, u := range pattern[v] {
			rows[i] = s.iperm[u]
		}
		slices.Sort(rows)
		s.colRows[k] = rows
		for p, r := range rows {
			s.rowRefs[r] = append(s.rowRefs[r], rowRef{col: k, pos: p})
		}
	}
	return s
}

// fill returns the number of off-diagonal entries in L.
func (s *symbolic) fill() int {
	total := 0
	for _, rows := range s.colRows {
		total += len(rows)
	}
	return total
}

// slot locates entry (i, j) of the permuted lower triangle, i ≥ j. It
// returns pos = -1 for the diagonal.
func (s *symbolic) slot(i, j int) (col, pos int, ok bool) {
	if i < j {
		i, j = j, i
	}
	if i == j {
		return j, -1, true
	}
	p, found := slices.BinarySearch(s.colRows[j], i)
	return j, p, found
}

type degreeItem struct {
	vertex, degree int
}

// degreeQueue is a min-heap on degree with ties broken by vertex index so
// that the ordering is deterministic.
type degreeQueue []degreeItem

func (q degreeQueue) Len() int { return len(q) }
func (q degreeQueue) Less(i, j int) bool {
	if q[i].degree != q[j].degree {
		return q[i].degree < q[j].degree
	}
	return q[i].vertex < q[j].vertex
}
func (q degreeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *degreeQueue) Push(x any)   { *q = append(*q, x.(degreeItem)) }
func (q *degreeQueue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}
