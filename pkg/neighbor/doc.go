// Package neighbor implements the local moves of the annealing search on a
// [layered.Graph]: Recable, Swap, Merge and Split.
//
// Every move has a pure possibility predicate ([IsPossible]), an [Apply] that
// returns an [Undo] token, and [Undo.Revert], which restores the graph to a
// bit-identical state. Predicates use the strong capacity check: flow
// changes are validated along both ancestor paths up to their lowest common
// ancestor.
//
// Merge removes a vertex by moving the last vertex of the layer into its
// slot; Split appends the new vertex at the end of the layer. Handles of
// vertices outside these two slots stay valid.
//
// Candidate generation ([Enumerate]) and ranking ([Estimator]) live here as
// well, combined by [Searcher] according to a [SearchOption].
package neighbor
