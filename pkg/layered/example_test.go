package layered_test

import (
	"fmt"

	"github.com/matzehuels/flamecast/pkg/layered"
)

func Example() {
	// Two sources share one interior vertex that feeds a single drain.
	g := layered.New(3)
	g.AddVertex(2, layered.NoParent)
	g.AddVertex(1, 0)
	g.AddVertex(0, 0)
	g.AddVertex(0, 0)

	if err := g.Validate([]int{1, 2, 2}, 2, 1); err != nil {
		fmt.Println("invalid:", err)
		return
	}
	flows := layered.ComputeFlows(g)
	fmt.Println("drain flow:", flows.Vertex(layered.ID(2, 0)))
	// Output: drain flow: 2
}
