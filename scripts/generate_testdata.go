//go:build ignore

// generate_testdata.go creates synthetic data directories for benchmarking
// and demos.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/synthetic/small/   (50 countries)
//	testdata/synthetic/medium/  (200 countries, 5% blank cells)
//	testdata/synthetic/large/   (1000 countries, 10% blank cells)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/gapview/pkg/loader"
	"github.com/vanderheijden86/gapview/pkg/testutil"
)

type datasetSpec struct {
	name      string
	size      int
	blankRate float64
}

var datasets = []datasetSpec{
	{"small", 50, 0},
	{"medium", 200, 0.05},
	{"large", 1000, 0.10},
}

func years(from, to int) []string {
	var out []string
	for y := from; y <= to; y++ {
		out = append(out, fmt.Sprint(y))
	}
	return out
}

func main() {
	outputDir := filepath.Join("testdata", "synthetic")

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d countries)...\n", ds.name, ds.size)

		gen := testutil.New(testutil.GeneratorConfig{
			Seed:      int64(ds.size), // Reproducible per-size
			Years:     years(1990, 2010),
			BlankRate: ds.blankRate,
		})
		dir := filepath.Join(outputDir, ds.name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", dir, err)
			os.Exit(1)
		}
		if err := gen.Generate(ds.size).WriteDir(dir, loader.DefaultFileNames); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", dir, err)
			os.Exit(1)
		}
		fmt.Printf("  -> %s\n", dir)
	}

	fmt.Println("\nRun: gv --data-dir testdata/synthetic/medium")
}
