// Command gennames writes a names.json with humanized location names into
// every map folder that lacks one.
package main

import (
	"flag"
	"fmt"
	"os"

	"map-helper/internal/maps"
)

func main() {
	root := flag.String("d", "./maps", "Maps root directory")
	overwrite := flag.Bool("overwrite", false, "Replace existing names.json files")
	flag.Parse()

	folders, err := maps.List(*root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	written := 0
	for _, f := range folders {
		names, err := maps.GenerateNames(f.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", f.Name, err)
			continue
		}
		if names == nil {
			fmt.Printf("%s: no tiles, skipped\n", f.Name)
			continue
		}

		ok, err := maps.WriteNames(f.Path, names, *overwrite)
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "%s: %v\n", f.Name, err)
		case ok:
			fmt.Printf("%s: wrote %d names\n", f.Name, len(names["en"]))
			written++
		default:
			fmt.Printf("%s: names.json exists, skipped\n", f.Name)
		}
	}
	fmt.Printf("\nDone! Wrote %d of %d folders.\n", written, len(folders))
}
