// Package plot renders quick-look charts of a single trial: a static gaze
// scatter through gonum/plot and an interactive HTML timeline through
// go-echarts.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
)

// ErrNoData is returned when a trial has nothing to draw.
var ErrNoData = errors.New("trial has no samples to plot")

var (
	leftColor     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	rightColor    = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	fixationColor = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

func eyePoints(samples []experiment.Sample, pick func(experiment.Sample) *experiment.EyeSampleData) plotter.XYs {
	pts := make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		if e := pick(s); e != nil {
			pts = append(pts, plotter.XY{X: e.Position.X().InexactFloat64(), Y: e.Position.Y().InexactFloat64()})
		}
	}
	return pts
}

func leftEye(s experiment.Sample) *experiment.EyeSampleData  { return s.Left }
func rightEye(s experiment.Sample) *experiment.EyeSampleData { return s.Right }

// Gaze builds a scatter of both eyes' gaze positions with fixation centres
// overlaid. The Y axis is inverted to match screen coordinates.
func Gaze(t *experiment.Trial) (*plot.Plot, error) {
	left := eyePoints(t.Samples, leftEye)
	right := eyePoints(t.Samples, rightEye)
	if len(left)+len(right) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Trial %d - Gaze", t.ID)
	p.X.Label.Text = "X (px)"
	p.Y.Label.Text = "Y (px)"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}

	series := []struct {
		name  string
		pts   plotter.XYs
		color color.Color
	}{
		{"left", left, leftColor},
		{"right", right, rightColor},
	}
	for _, s := range series {
		if len(s.pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(s.pts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = s.color
		sc.GlyphStyle.Radius = vg.Points(1)
		p.Add(sc)
		p.Legend.Add(s.name, sc)
	}

	var fix plotter.XYs
	for _, ev := range t.Events {
		if f := ev.Info.Fixation; f != nil {
			fix = append(fix, plotter.XY{X: f.AveragePosition.X().InexactFloat64(), Y: f.AveragePosition.Y().InexactFloat64()})
		}
	}
	if len(fix) > 0 {
		sc, err := plotter.NewScatter(fix)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = fixationColor
		sc.GlyphStyle.Radius = vg.Points(4)
		sc.GlyphStyle.Shape = draw.RingGlyph{}
		p.Add(sc)
		p.Legend.Add("fixation", sc)
	}
	return p, nil
}

// WriteGaze renders the gaze scatter of t to w. format is one of the image
// formats gonum/plot supports, e.g. "png" or "svg".
func WriteGaze(w io.Writer, t *experiment.Trial, format string) error {
	p, err := Gaze(t)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, strings.ToLower(format))
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// missing marks a gap in an echarts series.
const missing = "-"

func lineValue(v *experiment.EyeSampleData, y bool) opts.LineData {
	if v == nil {
		return opts.LineData{Value: missing}
	}
	if y {
		return opts.LineData{Value: v.Position.Y().InexactFloat64()}
	}
	return opts.LineData{Value: v.Position.X().InexactFloat64()}
}

// Timeline builds a line chart of gaze coordinates over sample time.
func Timeline(t *experiment.Trial) (*charts.Line, error) {
	if len(t.Samples) == 0 {
		return nil, ErrNoData
	}
	times := make([]string, len(t.Samples))
	series := make([][]opts.LineData, 4)
	for i, s := range t.Samples {
		times[i] = experiment.FormatDecimal(s.Time)
		series[0] = append(series[0], lineValue(s.Left, false))
		series[1] = append(series[1], lineValue(s.Left, true))
		series[2] = append(series[2], lineValue(s.Right, false))
		series[3] = append(series[3], lineValue(s.Right, true))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: fmt.Sprintf("Trial %d", t.ID), Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Trial %d - Gaze timeline", t.ID), Subtitle: fmt.Sprintf("samples=%d events=%d", len(t.Samples), len(t.Events))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time (ms)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "px"}),
	)
	line.SetXAxis(times)
	for i, name := range []string{"left x", "left y", "right x", "right y"} {
		line.AddSeries(name, series[i], charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	}
	return line, nil
}

// WriteTimeline renders the timeline of t as a standalone HTML page.
func WriteTimeline(w io.Writer, t *experiment.Trial) error {
	line, err := Timeline(t)
	if err != nil {
		return err
	}
	return line.Render(w)
}
