// Package layered provides the layered forest that carries a Flamecast topology.
//
// # Overview
//
// A Flamecast network routes every source (layer 0) through a fixed number of
// intermediate layers to exactly one drain (the last layer). Every non-drain
// vertex has exactly one parent in the next layer up, so the topology is a
// forest rooted at the drains. [Graph] stores it as an ordered sequence of
// [Layer] values; a vertex is identified by its position inside its layer and
// a [VertexID] pairs that position with the layer number.
//
// Parents are stored as indices, not pointers. Structural edits (merging two
// vertices, splitting one) renumber vertices inside the touched layer, and
// index-based links keep those edits local: only the neighbours of the moved
// vertices need patching.
//
// # Invariants
//
// [Graph.Validate] checks the structural invariants every topology must
// satisfy:
//
//   - every non-drain vertex has exactly one parent in the next layer;
//   - parent and children links agree in both directions;
//   - drains account for every source exactly once;
//   - the flow through each vertex respects its layer capacity;
//   - layer 0 holds one vertex per source and the last layer one per drain;
//   - every interior vertex has at least one child, so every edge carries
//     positive flow.
//
// # Flows
//
// [ComputeFlows] derives the number of sources routed through each vertex in
// a single bottom-up pass. The flow on the edge from a vertex to its parent
// equals the vertex flow, so one table serves both purposes.
//
// # Concurrency
//
// Graph is a plain value with no internal synchronisation. A solve owns its
// graph exclusively; independent solves never share one.
package layered
