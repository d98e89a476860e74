package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/charlie0129/phmeter/pkg/classifier"
	"github.com/charlie0129/phmeter/pkg/meter"
	"github.com/charlie0129/phmeter/pkg/phscale"
)

// cellWidth is the number of terminal columns per scale point.
const cellWidth = 3

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

// swatch draws a block in the given colour.
func swatch(r, g, b uint8, width int) string {
	return color.BgRGB(int(r), int(g), int(b)).Sprint(strings.Repeat(" ", width))
}

// pointColor is bold text in the colour of p.
func pointColor(p phscale.CalibrationPoint) *color.Color {
	return color.New(color.Bold).AddRGB(int(p.R), int(p.G), int(p.B))
}

// gradient draws the scale as adjacent swatches, one cell per point.
func gradient(points []phscale.CalibrationPoint) string {
	var sb strings.Builder
	for _, p := range points {
		sb.WriteString(swatch(p.R, p.G, p.B, cellWidth))
	}
	return sb.String()
}

// scaleLabels puts each pH value under its cell.
func scaleLabels(points []phscale.CalibrationPoint) string {
	var sb strings.Builder
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("%-*d", cellWidth, p.PH))
	}
	return strings.TrimRight(sb.String(), " ")
}

// markerColumn maps a position in [0,1] to the column under the middle of the
// matching cell of a gradient with n cells.
func markerColumn(position float64, n int) int {
	if position < 0 {
		position = 0
	}
	if position > 1 {
		position = 1
	}
	span := float64((n - 1) * cellWidth)
	return int(math.Round(position*span)) + cellWidth/2
}

func marker(position float64, n int) string {
	return strings.Repeat(" ", markerColumn(position, n)) + "▲"
}

func printScale(cmd *cobra.Command, points []phscale.CalibrationPoint) {
	cmd.Println(bold("Reference scale:"))
	for _, p := range points {
		cmd.Printf("  %s %s  %-3s %s\n", swatch(p.R, p.G, p.B, 4), p.Hex(), fmt.Sprint(p.PH), p.Label)
	}
	cmd.Println()
	cmd.Println("  " + gradient(points))
	cmd.Println("  " + scaleLabels(points))
}

func printResult(cmd *cobra.Command, res classifier.Result) {
	points := phscale.Points()

	cmd.Printf("  pH: %s\n", pointColor(res.Point).Sprintf("%d (%s)", res.Point.PH, res.Point.Label))
	cmd.Printf("  Sampled colour: %s %s\n", swatch(res.Sampled.R, res.Sampled.G, res.Sampled.B, 4), res.Sampled.Hex())
	cmd.Printf("  Closest reference: %s %s\n", swatch(res.Point.R, res.Point.G, res.Point.B, 4), res.Point.Hex())
	cmd.Printf("  Distance (%s): %s\n", res.Metric, bold("%.2f", res.Distance))
	cmd.Println()
	cmd.Println("  " + gradient(points))
	cmd.Println("  " + marker(res.Position, len(points)))
}

func printMeasurement(cmd *cobra.Command, m meter.Measurement) {
	cmd.Println(bold("Measurement %s:", m.ID))
	cmd.Printf("  Taken at: %s\n", m.Time.Local().Format(time.DateTime))
	cmd.Printf("  Sampled window: %s centred on (%d, %d)\n", bold("%dx%d", m.WindowSize, m.WindowSize), m.Center.X, m.Center.Y)
	printResult(cmd, m.Result)
}
