// Package cluster provides the clustering and matching helpers used to build
// initial Flamecast topologies.
//
// [KMeans] is a seeded two-dimensional k-means (k-means++ seeding followed by
// Lloyd iterations). [BoundedPartition] builds on it to split a point set
// into groups no larger than a capacity. [Assign] solves the rectangular
// minimum-cost assignment problem with the Kuhn–Munkres algorithm.
//
// Every stochastic choice draws from the *rand.Rand supplied by the caller,
// so results are reproducible for a fixed seed.
package cluster
