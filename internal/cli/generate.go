package cli

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flamecast/pkg/instance"
)

// generateCommand creates the generate command for random instances.
func (c *CLI) generateCommand() *cobra.Command {
	opts := instance.DefaultGenerateOptions()
	var output string
	var seed uint64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random instance",
		Long: `Generate draws sources and drains uniformly from the unit square. Without
--capacities the layer capacities ramp geometrically from 1 to the number of
sources per drain.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = fmt.Sprintf("instance_%d_%d.json", opts.NumSources, seed)
			}
			rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
			inst, err := instance.Generate(rng, opts)
			if err != nil {
				return err
			}
			if err := instance.Save(c.Fs, output, inst); err != nil {
				return err
			}
			printSuccess("Generated %s", inst)
			printDetail("capacities %v", inst.Capacities)
			printFile(output)
			printNextStep("Solve it", "flamecast solve "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "instance file, .json or .yaml (default: instance_<sources>_<seed>.json)")
	cmd.Flags().IntVarP(&opts.NumSources, "sources", "s", opts.NumSources, "number of sources")
	cmd.Flags().IntVarP(&opts.NumDrains, "drains", "d", opts.NumDrains, "number of drains")
	cmd.Flags().IntVarP(&opts.NumLayers, "layers", "l", opts.NumLayers, "number of layers including sources and drains")
	cmd.Flags().Float64Var(&opts.Alpha, "alpha", opts.Alpha, "cost exponent in [0, 1]")
	cmd.Flags().IntSliceVar(&opts.Capacities, "capacities", nil, "per-layer capacities (comma-separated)")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")

	return cmd
}
