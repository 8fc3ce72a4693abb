package charts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"evdash/pkg/contracts/domain"
)

// Image size in pixels.
const (
	ImageWidth  = 1024
	ImageHeight = 512
)

// Format is an image encoding.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ErrUnknownFormat is returned for formats other than svg and png.
var ErrUnknownFormat = errors.New("unknown image format")

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// ParseFormat maps a file extension onto a Format.
func ParseFormat(ext string) (Format, error) {
	switch Format(ext) {
	case FormatSVG, FormatPNG:
		return Format(ext), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// Render draws the panel. Panels without drawable data, and panels the
// charting library refuses (a zero value range), are drawn as a titled
// placeholder so an empty filter result never fails the request.
func Render(panel domain.Panel, format Format, w io.Writer) error {
	provider, err := providerFor(format)
	if err != nil {
		return err
	}

	if !drawable(panel) {
		return renderPlaceholder(provider, panel.Title, w)
	}

	var buf bytes.Buffer
	if err := renderPanel(panel, provider, &buf); err != nil {
		return renderPlaceholder(provider, panel.Title, w)
	}
	_, err = buf.WriteTo(w)
	return err
}

func providerFor(format Format) (chart.RendererProvider, error) {
	switch format {
	case FormatSVG:
		return chart.SVG, nil
	case FormatPNG:
		return chart.PNG, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// drawable reports whether the panel has points and at least one is non-zero.
func drawable(panel domain.Panel) bool {
	if panel.IsEmpty() {
		return false
	}
	for _, s := range panel.Series {
		for _, p := range s.Points {
			if p.Value != 0 {
				return true
			}
		}
	}
	return false
}

func renderPanel(panel domain.Panel, provider chart.RendererProvider, w io.Writer) error {
	switch panel.Kind {
	case domain.PanelPie:
		return renderPie(panel, provider, w)
	case domain.PanelLine:
		return renderLine(panel, provider, w)
	default:
		if len(panel.Series) > 1 && panel.Stacked && nonNegative(panel) {
			return renderStacked(panel, provider, w)
		}
		return renderBars(panel, provider, w)
	}
}

func renderBars(panel domain.Panel, provider chart.RendererProvider, w io.Writer) error {
	multi := len(panel.Series) > 1
	var bars []chart.Value
	for i, s := range panel.Series {
		for _, p := range s.Points {
			label := p.Label
			if multi {
				label = s.Name + " " + p.Label
			}
			bars = append(bars, chart.Value{
				Label: label,
				Value: p.Value,
				Style: chart.Style{
					FillColor:   chart.GetDefaultColor(i),
					StrokeColor: chart.GetDefaultColor(i),
				},
			})
		}
	}

	graph := chart.BarChart{
		Title:        panel.Title,
		Width:        ImageWidth,
		Height:       ImageHeight,
		Background:   chart.Style{Padding: chart.Box{Top: 40}},
		BarWidth:     barWidth(len(bars)),
		UseBaseValue: true,
		BaseValue:    0,
		Bars:         bars,
	}
	return graph.Render(provider, w)
}

func renderStacked(panel domain.Panel, provider chart.RendererProvider, w io.Writer) error {
	labels, values := stackColumns(panel)

	bars := make([]chart.StackedBar, 0, len(labels))
	for col, label := range labels {
		var stack []chart.Value
		for i, s := range panel.Series {
			if v := values[col][i]; v != 0 {
				stack = append(stack, chart.Value{
					Label: s.Name,
					Value: v,
					Style: chart.Style{
						FillColor:   chart.GetDefaultColor(i),
						StrokeColor: chart.GetDefaultColor(i),
					},
				})
			}
		}
		if len(stack) == 0 {
			continue
		}
		bars = append(bars, chart.StackedBar{Name: label, Values: stack})
	}

	graph := chart.StackedBarChart{
		Title:      panel.Title,
		Width:      ImageWidth,
		Height:     ImageHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Bars:       bars,
	}
	return graph.Render(provider, w)
}

func renderPie(panel domain.Panel, provider chart.RendererProvider, w io.Writer) error {
	var values []chart.Value
	for _, s := range panel.Series {
		for _, p := range s.Points {
			if p.Value <= 0 {
				continue
			}
			values = append(values, chart.Value{Label: p.Label, Value: p.Value})
		}
	}

	graph := chart.PieChart{
		Title:  panel.Title,
		Width:  ImageHeight,
		Height: ImageHeight,
		Values: values,
	}
	return graph.Render(provider, w)
}

func renderLine(panel domain.Panel, provider chart.RendererProvider, w io.Writer) error {
	var series []chart.Series
	var ticks []chart.Tick
	for i, s := range panel.Series {
		xs := make([]float64, 0, len(s.Points))
		ys := make([]float64, 0, len(s.Points))
		for _, p := range s.Points {
			x, err := strconv.ParseFloat(p.Label, 64)
			if err != nil {
				return fmt.Errorf("line panel %s: label %q is not numeric", panel.ID, p.Label)
			}
			xs = append(xs, x)
			ys = append(ys, p.Value)
			if i == 0 {
				ticks = append(ticks, chart.Tick{Value: x, Label: p.Label})
			}
		}
		style := chart.Style{
			StrokeColor: chart.GetDefaultColor(i),
			StrokeWidth: 2,
		}
		if panel.Markers {
			style.DotColor = chart.GetDefaultColor(i)
			style.DotWidth = 4
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   style,
		})
	}

	graph := chart.Chart{
		Title:      panel.Title,
		Width:      ImageWidth,
		Height:     ImageHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		XAxis:      chart.XAxis{Name: panel.XLabel, Ticks: ticks},
		YAxis:      chart.YAxis{Name: panel.YLabel},
		Series:     series,
	}
	return graph.Render(provider, w)
}

func renderPlaceholder(provider chart.RendererProvider, title string, w io.Writer) error {
	r, err := provider(ImageWidth, ImageHeight)
	if err != nil {
		return err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return err
	}

	r.SetFillColor(drawing.ColorWhite)
	r.SetStrokeColor(drawing.ColorWhite)
	r.MoveTo(0, 0)
	r.LineTo(ImageWidth, 0)
	r.LineTo(ImageWidth, ImageHeight)
	r.LineTo(0, ImageHeight)
	r.Close()
	r.FillStroke()

	r.SetFont(font)
	r.SetFontColor(drawing.ColorBlack)
	r.SetFontSize(16)
	r.Text(title, 24, 40)
	r.SetFontColor(chart.ColorAlternateGray)
	r.SetFontSize(12)
	r.Text("No data for the current filters", 24, ImageHeight/2)

	return r.Save(w)
}

// stackColumns aligns every series on the union of labels. Columns follow
// panel.Categories, then any remaining labels in first-seen order.
func stackColumns(panel domain.Panel) ([]string, [][]float64) {
	var labels []string
	col := make(map[string]int)
	for _, c := range panel.Categories {
		if _, ok := col[c]; !ok {
			col[c] = len(labels)
			labels = append(labels, c)
		}
	}
	for _, s := range panel.Series {
		for _, p := range s.Points {
			if _, ok := col[p.Label]; !ok {
				col[p.Label] = len(labels)
				labels = append(labels, p.Label)
			}
		}
	}

	values := make([][]float64, len(labels))
	for i := range values {
		values[i] = make([]float64, len(panel.Series))
	}
	for i, s := range panel.Series {
		for _, p := range s.Points {
			values[col[p.Label]][i] += p.Value
		}
	}
	return labels, values
}

func nonNegative(panel domain.Panel) bool {
	for _, s := range panel.Series {
		for _, p := range s.Points {
			if p.Value < 0 {
				return false
			}
		}
	}
	return true
}

func barWidth(n int) int {
	switch {
	case n <= 5:
		return 80
	case n <= 15:
		return 40
	default:
		return 16
	}
}
