// Package pkg provides the core libraries of Flamecast, a heuristic designer
// of capacitated layered flow networks.
//
// # Overview
//
// Flow enters at sources on layer 0 and leaves at drains on the last layer.
// Every non-drain vertex forwards its whole flow to one parent on the next
// layer, so the network is a forest rooted at the drains. The cost of a
// network is the sum over edges of flow^alpha times edge length, minimised
// over the positions of the interior vertices. The pkg directory is
// organized into these areas:
//
//  1. [layered], [geom], [cluster] - graph model and geometry helpers
//  2. [topology] - problem definition and initial topologies
//  3. [socp], [embed] - optimal vertex positions for a fixed topology
//  4. [neighbor], [anneal] - local moves and the simulated annealer
//  5. [instance] - persisted instances and logs
//  6. [pipeline], [cache], [runstore], [observability] - orchestration
//
// # Architecture
//
// The typical data flow through Flamecast:
//
//	Instance file
//	     ↓
//	[topology] package (validate, build initial network)
//	     ↓
//	[embed] package (second-order cone program over vertex positions)
//	     ↓
//	[anneal] package (neighbor moves, Metropolis acceptance)
//	     ↓
//	Annealing log (JSON/YAML)
//
// # Quick Start
//
//	import (
//	    "context"
//	    "math/rand/v2"
//
//	    "github.com/matzehuels/flamecast/pkg/anneal"
//	    "github.com/matzehuels/flamecast/pkg/instance"
//	    "github.com/matzehuels/flamecast/pkg/topology"
//	)
//
//	inst, _ := instance.Load(afero.NewOsFs(), "instance.json")
//	p, _ := inst.Problem()
//
//	rng := rand.New(rand.NewPCG(42, 42))
//	g, _ := topology.Build(topology.Matching, p, rng)
//
//	a, _ := anneal.New(p, g, anneal.DefaultOptions(), rng, nil)
//	res, _ := a.Run(context.Background())
//	fmt.Println(res.Cost)
//
// Most callers go through [pipeline.Runner], which adds caching and run
// records on top of these steps.
package pkg
