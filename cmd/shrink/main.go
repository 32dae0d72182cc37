// Command shrink resizes every template under a maps root to 256x256 so
// matching runs on images of one size.
package main

import (
	"flag"
	"fmt"
	"os"

	"map-helper/internal/logging"
	"map-helper/internal/templates"
)

func main() {
	root := flag.String("d", "./maps", "Maps root directory")
	size := flag.Int("size", templates.ShrinkSize, "Target edge length in pixels")
	flag.Parse()

	if info, err := os.Stat(*root); err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "Error: '%s' directory not found\n", *root)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{Level: "info"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Template Image Optimizer ===")
	fmt.Printf("Processing all images in '%s'...\n", *root)
	fmt.Printf("Target size: %dx%d\n\n", *size, *size)

	count, err := templates.Shrink(*root, *size, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nDone! Optimized %d images.\n", count)
	if count == 0 {
		fmt.Println("All images are already optimized.")
	}
}
