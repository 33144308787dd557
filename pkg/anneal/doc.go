// Package anneal drives the topology search: simulated annealing over the
// moves of package neighbor, with every accepted topology re-embedded by
// package embed.
//
// One iteration enumerates and costs candidates ([neighbor.Searcher]),
// samples one with weight exp(10·(1 − cost/current)), embeds it at the
// neighbour-cost precision and accepts it by the Metropolis rule at the
// temperature of the [CoolingSchedule]. Rejected moves are reverted through
// their undo token and the previous placement is kept.
//
// Accepted moves are recorded in the [SolutionState]; replaying them from the
// initial topology rebuilds any intermediate state, which is how the best
// topology is recovered after the last iteration. The final topology is then
// embedded at the final precision.
//
// A run is single-threaded and consumes randomness only from the *rand.Rand
// passed to [New], so equal seeds and options reproduce the same run.
package anneal
