package services

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"

	"clinical-note-cleaner/models"
)

const chartTitle = "Replacement Frequency"

// FrequencyChart draws a bar chart of replacement counts
type FrequencyChart struct {
	// MaxBars caps the number of bars; 0 draws every shorthand
	MaxBars  int
	Height   int
	BarWidth int
}

// NewFrequencyChart creates a chart renderer
func NewFrequencyChart(maxBars int) *FrequencyChart {
	return &FrequencyChart{MaxBars: maxBars, Height: 600, BarWidth: 40}
}

// Render implements ChartRenderer. counts must already be sorted, highest first.
func (c *FrequencyChart) Render(w io.Writer, counts []models.FrequencyCount) error {
	if len(counts) == 0 {
		return fmt.Errorf("no replacements to chart")
	}
	if c.MaxBars > 0 && len(counts) > c.MaxBars {
		counts = counts[:c.MaxBars]
	}

	bars := make([]chart.Value, len(counts))
	highest := 0
	for i, count := range counts {
		bars[i] = chart.Value{Label: count.Shorthand, Value: float64(count.Count)}
		if count.Count > highest {
			highest = count.Count
		}
	}

	spacing := c.BarWidth / 2
	width := len(bars)*(c.BarWidth+spacing) + 200
	if width < 800 {
		width = 800
	}

	graph := chart.BarChart{
		Title:      chartTitle,
		Width:      width,
		Height:     c.Height,
		BarWidth:   c.BarWidth,
		BarSpacing: spacing,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Bottom: 40},
		},
		XAxis: chart.Style{
			TextRotationDegrees: 45,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(highest) + 1},
		},
		Bars: bars,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
