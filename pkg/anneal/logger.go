package anneal

import (
	"github.com/matzehuels/flamecast/pkg/embed"
	"github.com/matzehuels/flamecast/pkg/stopwatch"
)

// IterationLog is the per-iteration record of a run.
type IterationLog struct {
	TimeNeeded         stopwatch.Duration `json:"time_needed" yaml:"time_needed"`
	CurrentCost        float64            `json:"current_cost" yaml:"current_cost"`
	CurrentBestCost    float64            `json:"current_best_cost" yaml:"current_best_cost"`
	CurrentAmountNodes int                `json:"current_amount_nodes" yaml:"current_amount_nodes"`
}

// Logger is the durable record of a run: enough to reproduce its course and
// inspect its result.
type Logger struct {
	InitialSolution    embed.GraphEmbedding `json:"initial_solution" yaml:"initial_solution"`
	FinalSolution      embed.GraphEmbedding `json:"final_solution" yaml:"final_solution"`
	InitialCost        float64              `json:"initial_cost" yaml:"initial_cost"`
	FinalCost          float64              `json:"final_cost" yaml:"final_cost"`
	Iterations         []IterationLog       `json:"iterations" yaml:"iterations"`
	AcceptedNeighbors  []NeighborChange     `json:"accepted_neighbors" yaml:"accepted_neighbors"`
	BestIteration      BestIteration        `json:"best_iteration" yaml:"best_iteration"`
	MaxIterations      int                  `json:"max_iterations" yaml:"max_iterations"`
	InitialTemperature float64              `json:"initial_temperature" yaml:"initial_temperature"`
	CoolingSchedule    CoolingSchedule      `json:"cooling_schedule" yaml:"cooling_schedule"`
	TotalTime          stopwatch.Duration   `json:"total_time" yaml:"total_time"`
	InitTime           stopwatch.Duration   `json:"init_time" yaml:"init_time"`
}

// BestCosts returns the running best cost after every iteration.
func (l *Logger) BestCosts() []float64 {
	out := make([]float64, len(l.Iterations))
	for i, it := range l.Iterations {
		out[i] = it.CurrentBestCost
	}
	return out
}
