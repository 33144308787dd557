// Package instance reads and writes the durable artefacts of a Flamecast
// run: test instances and annealing logs.
//
// Both are stored as JSON or YAML, chosen by file extension. All file access
// goes through an [afero.Fs], so callers can persist to disk with
// afero.NewOsFs or keep everything in memory with afero.NewMemMapFs.
//
// An instance stores its terminals as one list of [x, y] pairs per layer,
// with only the first (sources) and last (drains) layers populated:
//
//	{
//	  "alpha": 0.5,
//	  "num_layers": 3,
//	  "capacities": [1, 2, 4],
//	  "sources_drains_embeddings": [[[0.1, 0.2], [0.3, 0.4]], [], [[0.5, 0.5]]]
//	}
package instance
