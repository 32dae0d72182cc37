package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"map-helper/internal/image"
	"map-helper/internal/locate"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var mapName string

	cmd := &cobra.Command{
		Use:   "detect --map NAME FRAME",
		Short: "Locate every cell of a frame on a known map, with progress",
		Args:  cobra.ExactArgs(1),
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

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			events, err := id.Detect(runCtx, frame, mapName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			p := newPainter(out)
			names := displayNames(cfg, mapName)
			for ev := range events {
				switch ev.Kind {
				case locate.EventCellMatched:
					fmt.Fprintf(out, "  cell %d: %s %d° %d%%\n",
						ev.Cell, names.Display(ev.Result.Location), ev.Result.Rotation, ev.Result.Confidence)
				case locate.EventProgress:
					fmt.Fprintln(out, ev.Status)
				case locate.EventComplete:
					fmt.Fprintln(out, p.good("%s", ev.Status))
					fmt.Fprintln(out, renderCells(ev.Snapshot, names))
				case locate.EventCancelled:
					fmt.Fprintln(out, p.warn("%s", ev.Status))
					fmt.Fprintln(out, renderCells(ev.Snapshot, names))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mapName, "map", "m", "", "Map folder name")
	_ = cmd.MarkFlagRequired("map")
	return cmd
}
