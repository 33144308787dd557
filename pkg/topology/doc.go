// Package topology builds the initial Flamecast topology for a problem.
//
// Three constructors are available, selected by the [InitialSolution] enum:
//
//   - [Random] assigns sources to drains at random and packs each layer into
//     parents by random first-fit, respecting every layer capacity.
//   - [Matching] assigns sources to drain slots with a minimum-cost
//     assignment on Euclidean distance, then builds every drain's subtree
//     top-down with capacity-bounded k-means on the source coordinates.
//   - [LowConnectivity] uses the same drain assignment but gives every
//     source its own chain of single-child vertices.
//
// All constructors return graphs that satisfy [layered.Graph.Validate] for
// the problem's capacities. [Problem.Validate] rejects inputs for which no
// valid topology exists before any construction is attempted.
package topology
