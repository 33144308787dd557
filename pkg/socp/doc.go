// Package socp solves second-order cone programs in the standard conic form
//
//	minimise    qᵀx
//	subject to  Ax + s = b,  s ∈ K
//
// where K is a product of zero cones (equality rows) and second-order cones
// {(t, u) : ‖u‖₂ ≤ t}. There is no quadratic term; the package never
// allocates a P matrix.
//
// # Matrix layout
//
// A is held in compressed sparse column form ([CSC]); row indices are sorted
// within every column. Rows are grouped by cone in the order of
// [Problem.Cones].
//
// # Algorithm
//
// [Solve] runs a primal log-barrier path-following method:
//
//  1. Presolve: every zero-cone row must be a singleton (aᵢⱼxⱼ = bᵢ); such
//     rows pin xⱼ and remove it from the problem.
//  2. Start: positions come from the caller's initial point (or zero) and the
//     cone slack is made strictly feasible by lifting each cone's leading
//     variable when it has one.
//  3. Centering: damped Newton steps on τqᵀx + Σ −log(s₀² − ‖s̄‖²); the normal
//     matrix AᵀWA is factorised by a sparse Cholesky whose fill pattern and
//     minimum-degree ordering are computed once per solve.
//  4. Path following: τ grows geometrically until the duality-gap bound
//     2·#cones/τ falls below the tolerance.
//
// Every Newton step counts against [Settings.MaxIter]; exhausting it returns
// [ErrNotConverged]. [Settings.TimeLimit] bounds wall-clock time and returns
// [ErrTimeLimit].
package socp
