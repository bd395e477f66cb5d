package report

import (
	"bytes"
	"fmt"
	"html"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/gradebook"
)

type Kind string

const (
	Bar  Kind = "bar"
	Line Kind = "line"
	Pie  Kind = "pie"
)

// Kinds lists every chart in display order.
var Kinds = []Kind{Bar, Line, Pie}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Bar, Line, Pie:
		return k, nil
	}
	return "", ErrUnknownChart
}

type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return SVG, nil
	case SVG, PNG:
		return f, nil
	}
	return "", ErrUnknownFormat
}

func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() chart.RendererProvider {
	if f == PNG {
		return chart.PNG
	}
	return chart.SVG
}

// label prepares a subject for a chart label. The SVG renderer writes text
// nodes verbatim, so markup in a subject is escaped there.
func (f Format) label(s string) string {
	if f == PNG {
		return s
	}
	return html.EscapeString(s)
}

var lineStyle = chart.Style{
	StrokeWidth: 2,
	StrokeColor: chart.ColorBlue,
	DotWidth:    4,
	DotColor:    chart.ColorBlue,
}

// markRange is per chart: rendering sets its domain.
func markRange() *chart.ContinuousRange {
	return &chart.ContinuousRange{Min: gradebook.MinMark, Max: gradebook.MaxMark}
}

// RenderChart draws one chart of the gradebook.
func RenderChart(gb gradebook.Gradebook, kind Kind, format Format, width, height int) ([]byte, error) {
	if gb.IsEmpty() {
		return nil, gradebook.ErrNotFound
	}

	var buf bytes.Buffer
	var err error
	rp := format.provider()
	switch kind {
	case Bar:
		err = barChart(gb, format, width, height).Render(rp, &buf)
	case Line:
		err = lineChart(gb, format, width, height).Render(rp, &buf)
	case Pie:
		if gb.Total() == 0 {
			return nil, core.NewFieldError("marks", "a pie chart needs at least one mark above zero")
		}
		err = pieChart(gb, format, width, height).Render(rp, &buf)
	default:
		return nil, ErrUnknownChart
	}
	if err != nil {
		return nil, errors.Wrapf(err, "rendering %s chart", kind)
	}
	return buf.Bytes(), nil
}

// barChart has one bar per subject, height = mark.
func barChart(gb gradebook.Gradebook, format Format, width, height int) chart.BarChart {
	bars := make([]chart.Value, 0, len(gb.Entries))
	for _, e := range gb.Entries {
		bars = append(bars, chart.Value{Label: format.label(e.Subject), Value: float64(e.Mark)})
	}
	return chart.BarChart{
		Title:      "Marks per Subject",
		Width:      width,
		Height:     height,
		BarWidth:   40,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis:      chart.YAxis{Name: "Marks", Range: markRange()},
		Bars:       bars,
	}
}

// lineChart joins the marks in gradebook order, subjects on the x-axis.
func lineChart(gb gradebook.Gradebook, format Format, width, height int) chart.Chart {
	n := len(gb.Entries)
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	ticks := make([]chart.Tick, 0, n)
	for i, e := range gb.Entries {
		xs = append(xs, float64(i))
		ys = append(ys, float64(e.Mark))
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: format.label(e.Subject)})
	}
	return chart.Chart{
		Title:      "Marks Line Chart",
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16}},
		XAxis: chart.XAxis{
			Name:  "Subject",
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(n-1) + 0.5},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{Name: "Marks", Range: markRange()},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "Marks", XValues: xs, YValues: ys, Style: lineStyle},
		},
	}
}

// pieChart sizes each slice by mark / total. Zero marks have no area and are left out.
func pieChart(gb gradebook.Gradebook, format Format, width, height int) chart.PieChart {
	values := make([]chart.Value, 0, len(gb.Entries))
	for _, s := range PieSlices(gb) {
		if s.Mark == 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", format.label(s.Subject), s.Percent),
			Value: float64(s.Mark),
		})
	}
	return chart.PieChart{
		Title:  "Marks Distribution",
		Width:  width,
		Height: height,
		Values: values,
	}
}
