package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"slices"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"map-helper/internal/config"
	"map-helper/internal/image"
	"map-helper/internal/locate"
	"map-helper/internal/maps"
	"map-helper/internal/session"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "identify FRAME...",
		Short: "Identify the map of each frame and locate its cells",
		Long: `Identify runs every frame through one identification session. The first
frame searches all maps; later frames reuse the identified map and the
cached cell results until the session expires.`,
		Args: cobra.MinimumNArgs(1),
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

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			p := newPainter(out)
			for _, path := range args {
				if err := identifyFrame(runCtx, out, p, cfg, id, path); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func identifyFrame(ctx context.Context, out io.Writer, p painter, cfg *config.Config, id *locate.Identifier, path string) error {
	frame, err := image.Load(path)
	if err != nil {
		return err
	}
	defer frame.Close()

	if id.IsExpired() {
		fmt.Fprintln(out, p.warn("session expired, starting over"))
		id.Reset()
	}

	res, err := id.Identify(ctx, frame)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n", path)
	if !res.Identified {
		if res.Map == "" {
			fmt.Fprintln(out, p.bad("  no map identified"))
		} else {
			fmt.Fprintln(out, p.bad("  no map identified (best %s at %d%%)", res.Map, res.Confidence))
		}
		return nil
	}

	route := "full search"
	if res.FastPath {
		route = "fast path"
	}
	fmt.Fprintf(out, "  map %s  confidence %s  grid %s  (%s)\n",
		res.Map, p.good("%d%%", res.Confidence), res.Grid, route)

	names := displayNames(cfg, res.Map)
	fmt.Fprintln(out, renderCells(res.Cells, names))
	return nil
}

func displayNames(cfg *config.Config, mapName string) maps.Names {
	folder, err := maps.Find(cfg.MapsRoot, mapName)
	if err != nil {
		return maps.Names{}
	}
	return maps.LoadNames(folder.Path, cfg.Language)
}

func renderCells(cells map[int]session.CellResult, names maps.Names) string {
	keys := make([]int, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		r := cells[k]
		rows = append(rows, []string{
			strconv.Itoa(k),
			names.Display(r.Location),
			fmt.Sprintf("%d°", r.Rotation),
			fmt.Sprintf("%d%%", r.Confidence),
			r.Kind.String(),
		})
	}
	return renderTable(
		[]string{"Cell", "Location", "Rotation", "Confidence", "Method"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
	)
}
