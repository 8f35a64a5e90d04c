package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

func (g *Generator) generateDiscoveryChart(ctx context.Context, outputDir string, hours int) error {
	points, err := g.db.DiscoveryCounts(ctx, hours)
	if err != nil {
		return err
	}
	if len(points) < 2 {
		return fmt.Errorf("not enough data for a chart (%d hours recorded)", len(points))
	}

	var (
		timestamps = make([]time.Time, 0, len(points))
		discovered = make([]float64, 0, len(points))
	)
	for _, p := range points {
		timestamps = append(timestamps, p.Hour)
		discovered = append(discovered, float64(p.Reachable))
	}

	graph := chart.Chart{
		Title: "Servers Discovered per Hour",
		TitleStyle: chart.Style{
			FontSize: 16,
		},
		Background: chart.Style{
			Padding: chart.Box{
				Top:    20,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:  1200,
		Height: 400,
		XAxis: chart.XAxis{
			Name: "Time",
			NameStyle: chart.Style{
				FontSize: 12,
			},
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			ValueFormatter: chart.TimeHourValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Reachable servers",
			NameStyle: chart.Style{
				FontSize: 12,
			},
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			GridMajorStyle: chart.Style{
				StrokeColor: drawing.Color{R: 200, G: 200, B: 200, A: 255},
				StrokeWidth: 1.0,
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: "discovered",
				Style: chart.Style{
					StrokeColor: chart.GetDefaultColor(0),
					StrokeWidth: 2,
				},
				XValues: timestamps,
				YValues: discovered,
			},
		},
	}

	filename := filepath.Join(outputDir, "discoveries.png")
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := graph.Render(chart.PNG, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
