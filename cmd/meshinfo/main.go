// Command meshinfo inspects a binary STL file produced by the pipeline and
// prints its header, triangle count, bounds, and the measurements re-derived
// from its vertices.
package main

import (
	"flag"
	"fmt"
	"os"

	"legcast/internal/cloud"
	"legcast/internal/measure"
	"legcast/internal/stl"
)

func main() {
	path := flag.String("stl", "", "Path to a binary STL file")
	remeasure := flag.Bool("measure", false, "Re-derive leg measurements from the mesh vertices")
	flag.Parse()

	if *path == "" {
		fmt.Println("Usage: meshinfo -stl <file> [-measure]")
		os.Exit(1)
	}

	f, err := os.Open(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open STL: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	m, header, err := stl.ReadBinary(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse STL: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Header:    %q\n", header)
	fmt.Printf("Triangles: %d\n", m.Size())

	min, max := m.Bounds()
	fmt.Printf("Bounds:    (%.1f, %.1f, %.1f) .. (%.1f, %.1f, %.1f) mm\n",
		min.X, min.Y, min.Z, max.X, max.Y, max.Z)
	fmt.Printf("Height:    %.1f mm\n", max.Y-min.Y)

	if *remeasure {
		c := cloud.New()
		for _, t := range m.Triangles {
			for _, v := range t.Vertices() {
				c.Add(v)
			}
		}
		// Coincident strip vertices would skew radius means; thin the
		// cloud the same way the pipeline does.
		c = cloud.Downsample(c, 2.0)

		meas := measure.Estimate(c, measure.DefaultParams())
		fmt.Printf("\nRe-derived measurements (%d unique points):\n", c.Size())
		fmt.Printf("  Ankle circumference: %.1f mm\n", meas.AnkleCircumferenceMm)
		fmt.Printf("  Calf circumference:  %.1f mm\n", meas.CalfCircumferenceMm)
		fmt.Printf("  Total length:        %.1f mm\n", meas.TotalLengthMm)
	}
}
