package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"map-helper/internal/image"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe FRAME",
		Short: "Rank maps by matching only the first cell",
		Long: `Probe is a quick hint: it matches cell 0 of every map and ranks the maps
by that single confidence. It does not identify anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			id, release, err := ctx.engine()
			if err != nil {
				return err
			}
			defer release()

			frame, err := image.Load(args[0])
			if err != nil {
				return err
			}
			defer frame.Close()

			candidates, err := id.Probe(cmd.Context(), frame)
			if err != nil {
				return err
			}

			if len(candidates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No map matched the first cell")
				return nil
			}

			rows := make([][]string, 0, len(candidates))
			for i, c := range candidates {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					c.Map,
					fmt.Sprintf("%d%%", c.Confidence),
					c.Grid.String(),
					displayNames(cfg, c.Map).Display(c.Location),
					fmt.Sprintf("%d°", c.Rotation),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Map", "Confidence", "Grid", "Location", "Rotation"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}
