// Command matchtest scores one cell image against one template at every
// rotation and prints both matcher stages.
package main

import (
	"flag"
	"fmt"
	"os"

	"map-helper/internal/confidence"
	"map-helper/internal/image"
	"map-helper/internal/match"
)

func main() {
	cellPath := flag.String("c", "", "Path to cell image")
	tplPath := flag.String("t", "", "Path to template image")
	minInliers := flag.Int("min", match.DefaultMinInliers, "Minimum inliers for a geometric match")
	structural := flag.Bool("structural", false, "Use structural preprocessing")
	flag.Parse()

	if *cellPath == "" || *tplPath == "" {
		fmt.Println("Usage: matchtest -c <cell> -t <template> [-min N] [-structural]")
		os.Exit(1)
	}

	cell, err := image.Load(*cellPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load cell: %v\n", err)
		os.Exit(1)
	}
	defer cell.Close()

	tpl, err := image.Load(*tplPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load template: %v\n", err)
		os.Exit(1)
	}
	defer tpl.Close()

	opts := match.DefaultOptions()
	opts.MinInliers = *minInliers
	if *structural {
		opts.Preprocessing = match.Structural
	}
	m := match.New(opts)
	eff := m.Options()

	fmt.Printf("cell %dx%d, template %dx%d\n", cell.Cols(), cell.Rows(), tpl.Cols(), tpl.Rows())
	fmt.Printf("preprocessing %s, %d features, ratio %.2f, min inliers %d\n\n",
		eff.Preprocessing, eff.Features, eff.RatioTest, eff.MinInliers)
	feats := m.Extract(tpl)
	defer feats.Close()

	fmt.Printf("=== Stage A (geometric, %d template descriptors) ===\n", feats.Len())
	for _, rot := range match.Rotations {
		s := confidence.GeometricScore(m.GeometricFeatures(cell, feats, rot))
		fmt.Printf("  %3d°: %4d inliers -> %3d%%\n", rot, s.Inliers(), s.Normalize())
	}

	fmt.Println("\n=== Stage B (appearance) ===")
	for _, rot := range match.Rotations {
		s := confidence.AppearanceScore(m.Appearance(cell, tpl, rot))
		fmt.Printf("  %3d°: %6.1f -> %3d%%\n", rot, s.Raw(), s.Normalize())
	}
}
