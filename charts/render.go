// Package charts draws the three arrival views as SVG using go-chart.
package charts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/you/subwayviz/models"
)

// Kind names one of the three chart views
type Kind string

const (
	KindBar    Kind = "bar"
	KindBubble Kind = "bubble"
	KindLine   Kind = "line"
)

// ParseKind validates a chart name taken from a URL
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindBar, KindBubble, KindLine:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown chart kind: %q", s)
}

const (
	chartWidth  = 800
	chartHeight = 400
)

var (
	barColor       = drawing.Color{R: 75, G: 192, B: 192, A: 153}
	lineStroke     = drawing.Color{R: 153, G: 102, B: 255, A: 255}
	lineFill       = drawing.Color{R: 153, G: 102, B: 255, A: 51}
	errEmptySeries = errors.New("series has no values")
)

// labelReplacer drops characters with markup meaning from upstream labels
// before they are drawn into SVG text nodes.
var labelReplacer = strings.NewReplacer("<", "", ">", "", "&", "", `"`, "")

func safeLabel(s string) string {
	return labelReplacer.Replace(s)
}

// yRange returns a zero-based range that always has a non-zero delta, so
// all-zero series still render.
func yRange(values []int) *chart.ContinuousRange {
	top := 1
	for _, v := range values {
		top = max(top, v)
	}
	return &chart.ContinuousRange{Min: 0, Max: float64(top) * 1.1}
}

// RenderBar draws minutes to arrival per record
func RenderBar(w io.Writer, s models.BarSeries) error {
	if len(s.Values) == 0 {
		return fmt.Errorf("bar chart: %w", errEmptySeries)
	}

	bars := make([]chart.Value, len(s.Values))
	for i, v := range s.Values {
		bars[i] = chart.Value{
			Label: safeLabel(s.Labels[i]),
			Value: float64(v),
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor},
		}
	}

	bc := chart.BarChart{
		Title:      "도착까지 남은 시간",
		Width:      max(chartWidth, len(bars)*120),
		Height:     chartHeight,
		BarWidth:   60,
		BarSpacing: 40,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 40},
		},
		YAxis: chart.YAxis{
			Name:  "남은 시간 (분)",
			Range: yRange(s.Values),
		},
		Bars: bars,
	}
	// BarChart has no x-axis name, so the caption is drawn as an element
	bc.Elements = []chart.Renderable{xAxisCaption(barXAxisName, bc.Height)}

	return bc.Render(chart.SVG, w)
}

const barXAxisName = "열차 노선"

// xAxisCaption centres text under the canvas, in the bottom padding
func xAxisCaption(text string, height int) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, defaults chart.Style) {
		r.SetFont(defaults.GetFont())
		r.SetFontSize(10)
		r.SetFontColor(drawing.ColorBlack)
		tb := r.MeasureText(text)
		x := canvasBox.Left + (canvasBox.Width()-tb.Width())/2
		r.Text(text, x, height-12)
	}
}

// RenderBubble draws one bubble per line, sized by BubblePoint.R
func RenderBubble(w io.Writer, s models.BubbleSeries) error {
	if len(s.Points) == 0 {
		return fmt.Errorf("bubble chart: %w", errEmptySeries)
	}

	xs := make([]float64, len(s.Points))
	ys := make([]float64, len(s.Points))
	counts := make([]int, len(s.Points))
	ticks := make([]chart.Tick, 0, len(s.Points)+2)
	ticks = append(ticks, chart.Tick{Value: 0, Label: ""})
	for i, p := range s.Points {
		xs[i] = float64(p.X)
		ys[i] = float64(p.Y)
		counts[i] = p.Y
		ticks = append(ticks, chart.Tick{Value: float64(p.X), Label: safeLabel(p.Label)})
	}
	ticks = append(ticks, chart.Tick{Value: float64(len(s.Points) + 1), Label: ""})

	points := s.Points
	c := chart.Chart{
		Title:  "노선별 열차 도착 분포",
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "노선 (인덱스)",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(len(s.Points) + 1)},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "열차 수",
			Range: yRange(counts),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "lines",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth:      chart.Disabled,
					DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
						return float64(points[index].R)
					},
					DotColorProvider: func(_, _ chart.Range, index int, _, _ float64) drawing.Color {
						return bubbleColor(index)
					},
				},
			},
		},
	}

	return c.Render(chart.SVG, w)
}

// bubbleColor mirrors aggregate.BubbleColor as a drawing.Color
func bubbleColor(i int) drawing.Color {
	return drawing.Color{R: uint8((i * 50) % 255), G: uint8((i * 100) % 255), B: 192, A: 153}
}

// RenderLine draws the arrival-time histogram as a filled line
func RenderLine(w io.Writer, s models.LineSeries) error {
	if len(s.Values) == 0 {
		return fmt.Errorf("line chart: %w", errEmptySeries)
	}

	xs := make([]float64, len(s.Values))
	ys := make([]float64, len(s.Values))
	ticks := make([]chart.Tick, len(s.Values))
	for i, v := range s.Values {
		xs[i] = float64(i)
		ys[i] = float64(v)
		ticks[i] = chart.Tick{Value: float64(i), Label: safeLabel(s.Labels[i])}
	}

	c := chart.Chart{
		Title:  "도착 예정 시간 분포 (5분 단위, 최대 20분)",
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 40, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "도착 예정 시간 구간 (분)",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(max(len(s.Values)-1, 1))},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "열차 수",
			Range: yRange(s.Values),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    s.Label,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: lineStroke,
					StrokeWidth: 2,
					FillColor:   lineFill,
					DotColor:    lineStroke,
					DotWidth:    4,
				},
			},
		},
	}

	return c.Render(chart.SVG, w)
}

// Render draws the chart of the given kind from views
func Render(w io.Writer, kind Kind, views models.Views) error {
	switch kind {
	case KindBar:
		return RenderBar(w, views.Bar)
	case KindBubble:
		return RenderBubble(w, views.Bubble)
	case KindLine:
		return RenderLine(w, views.Line)
	}
	return fmt.Errorf("unknown chart kind: %q", kind)
}

// Rendered holds the three charts as inline SVG markup
type Rendered struct {
	Bar    template.HTML
	Bubble template.HTML
	Line   template.HTML
}

// RenderAll draws the three charts concurrently. The first error cancels
// the remaining renders and is returned.
func RenderAll(ctx context.Context, views models.Views) (*Rendered, error) {
	var out Rendered
	targets := []struct {
		kind Kind
		dst  *template.HTML
	}{
		{KindBar, &out.Bar},
		{KindBubble, &out.Bubble},
		{KindLine, &out.Line},
	}

	p := pool.New().WithMaxGoroutines(len(targets)).WithContext(ctx).WithCancelOnError().WithFirstError()
	for _, t := range targets {
		t := t // per-iteration copy; go.mod targets go 1.21 loop semantics
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := Render(&buf, t.kind, views); err != nil {
				return fmt.Errorf("render %s chart: %w", t.kind, err)
			}
			*t.dst = template.HTML(buf.String())
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
