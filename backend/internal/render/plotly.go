package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"friendmap/backend/internal/socialgraph"
)

// PlotlyCDN is the script the generated pages load plotly from
const PlotlyCDN = "https://cdn.plot.ly/plotly-latest.min.js"

// LineColor maps an edge weight to its line color
func LineColor(weight int) string {
	switch {
	case weight <= 1:
		return "#ff0000"
	case weight == 2:
		return "#ffbf00"
	case weight <= 5:
		return "#80ff00"
	case weight < 10:
		return "#00ff40"
	case weight < 20:
		return "#00ffff"
	case weight < 25:
		return "#0040ff"
	default:
		return "#8000ff"
	}
}

// Title is the heading used for a rendered community
func Title(serverName string, at time.Time) string {
	return fmt.Sprintf("%s %s Network graph", at.UTC().Format("2006-01-02"), serverName)
}

// Trace is one plotly scatter trace
type Trace struct {
	Type      string   `json:"type"`
	X         []any    `json:"x"`
	Y         []any    `json:"y"`
	Mode      string   `json:"mode"`
	HoverInfo string   `json:"hoverinfo"`
	Text      []string `json:"text,omitempty"`
	Line      *Line    `json:"line,omitempty"`
	Marker    *Marker  `json:"marker,omitempty"`
}

// Line styles an edge trace
type Line struct {
	Width int    `json:"width"`
	Color string `json:"color,omitempty"`
}

// Marker styles the node trace; Color holds node degrees
type Marker struct {
	ShowScale    bool     `json:"showscale"`
	ColorScale   string   `json:"colorscale"`
	ReverseScale bool     `json:"reversescale"`
	Color        []int    `json:"color"`
	Size         int      `json:"size"`
	ColorBar     ColorBar `json:"colorbar"`
	Line         Line     `json:"line"`
}

// ColorBar is the degree legend next to the node trace
type ColorBar struct {
	Thickness int    `json:"thickness"`
	Title     string `json:"title"`
	XAnchor   string `json:"xanchor"`
	TitleSide string `json:"titleside"`
}

// Axis configures the plotly axis decorations
type Axis struct {
	ShowGrid       bool `json:"showgrid"`
	ZeroLine       bool `json:"zeroline"`
	ShowTickLabels bool `json:"showticklabels"`
}

// FigureLayout is the plotly page layout
type FigureLayout struct {
	Title      string         `json:"title"`
	TitleFont  map[string]int `json:"titlefont"`
	ShowLegend bool           `json:"showlegend"`
	HoverMode  string         `json:"hovermode"`
	Margin     map[string]int `json:"margin"`
	XAxis      Axis           `json:"xaxis"`
	YAxis      Axis           `json:"yaxis"`
}

// Figure is the plotly document: one line trace per edge followed by the
// node marker trace
type Figure struct {
	Data   []Trace      `json:"data"`
	Layout FigureLayout `json:"layout"`
}

// BuildFigure lays out g and assembles its plotly figure
func BuildFigure(g *socialgraph.Graph, layout, title string) (*Figure, error) {
	pos, err := Positions(layout, g)
	if err != nil {
		return nil, err
	}

	data := make([]Trace, 0, g.EdgeCount()+1)
	for _, e := range g.Edges() {
		from, to := pos[e.Source], pos[e.Target]
		data = append(data, Trace{
			Type:      "scatter",
			X:         []any{from.X, to.X, nil},
			Y:         []any{from.Y, to.Y, nil},
			Mode:      "lines",
			HoverInfo: "none",
			Line:      &Line{Width: 2, Color: LineColor(e.Weight)},
		})
	}

	nodes := Trace{
		Type:      "scatter",
		Mode:      "markers",
		HoverInfo: "text",
		Marker: &Marker{
			ShowScale:    true,
			ColorScale:   "Rainbow",
			ReverseScale: true,
			Size:         10,
			ColorBar: ColorBar{
				Thickness: 15,
				Title:     "Node Connections",
				XAnchor:   "left",
				TitleSide: "right",
			},
			Line: Line{Width: 2},
		},
	}
	for _, n := range g.Nodes() {
		p := pos[n.ID]
		nodes.X = append(nodes.X, p.X)
		nodes.Y = append(nodes.Y, p.Y)
		nodes.Marker.Color = append(nodes.Marker.Color, g.Degree(n.ID))
		nodes.Text = append(nodes.Text, hoverText(g, n))
	}
	data = append(data, nodes)

	return &Figure{
		Data: data,
		Layout: FigureLayout{
			Title:      title,
			TitleFont:  map[string]int{"size": 16},
			ShowLegend: false,
			HoverMode:  "closest",
			Margin:     map[string]int{"b": 20, "l": 5, "r": 5, "t": 40},
		},
	}, nil
}

func hoverText(g *socialgraph.Graph, n socialgraph.Node) string {
	succ := g.Successors(n.ID)
	var b strings.Builder
	fmt.Fprintf(&b, "%s<br>Connections (%d):<br>", n.Name, len(succ))
	for _, id := range succ {
		target, _ := g.Node(id)
		fmt.Fprintf(&b, "   %s<br> ", target.Name)
	}
	return b.String()
}

var pageTemplate = template.Must(template.New("graph").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <script src="{{.PlotlyURL}}"></script>
</head>
<body>
  <div id="graph" style="width:100%;height:95vh;"></div>
  <script type="application/json" id="figure">{{.Figure}}</script>
  <script>
    var figure = JSON.parse(document.getElementById("figure").textContent);
    Plotly.newPlot("graph", figure.data, figure.layout);
  </script>
</body>
</html>
`))

// HTML renders g as a standalone plotly page titled with today's date
func HTML(g *socialgraph.Graph, layout string) ([]byte, error) {
	return HTMLWithTitle(g, layout, Title(g.Name, time.Now()))
}

// HTMLWithTitle renders g as a standalone plotly page
func HTMLWithTitle(g *socialgraph.Graph, layout, title string) ([]byte, error) {
	fig, err := BuildFigure(g, layout, title)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(fig)
	if err != nil {
		return nil, fmt.Errorf("failed to encode figure: %w", err)
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, struct {
		Title     string
		PlotlyURL string
		Figure    template.JS
	}{
		Title:     title,
		PlotlyURL: PlotlyCDN,
		Figure:    template.JS(raw),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return buf.Bytes(), nil
}
