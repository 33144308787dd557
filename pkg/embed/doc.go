// Package embed computes the cost-optimal placement of a fixed Flamecast
// topology.
//
// Sources and drains are pinned at their input coordinates; every interior
// vertex is free. The cost of a placement is
//
//	Σ over edges e = (v, parent(v)) of flow(v)^α · ‖p(v) − p(parent(v))‖
//
// which is convex in the free positions. [Embed] poses it as a second-order
// cone program: one length variable tₑ per edge with ‖Δₑ‖ ≤ tₑ, objective
// Σ flowₑ^α·tₑ, and zero-cone rows pinning sources and drains. The program is
// handed to [socp.Solve] with an iteration budget taken from [SearchDepth].
//
// The barrier solver converges to the analytic centre of the optimal face, so
// placements are deterministic even when the optimum is not unique (for
// example along a chain of single-child vertices).
package embed
