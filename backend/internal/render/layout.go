// Package render turns an aggregated social graph into artifacts people can
// look at: positioned plotly pages and Graphviz documents.
package render

import (
	"math"
	"math/rand/v2"
	"sort"

	"friendmap/backend/internal/socialgraph"
	apperrors "friendmap/backend/pkg/errors"
)

const (
	// LayoutReingold is the force directed default
	LayoutReingold = "reingold"
	LayoutRandom   = "random"
	LayoutCircular = "circular"
	LayoutEades    = "eades"

	// DefaultLayout is used when no layout is requested
	DefaultLayout = LayoutReingold

	layoutSeed      = 20
	springK         = 0.25
	forceIterations = 50
	minDistance     = 0.01
	eadesUpdates    = 100
)

// Point is a node position in layout space
type Point struct {
	X float64
	Y float64
}

// LayoutFunc positions every node of g, keyed by node id
type LayoutFunc func(g *socialgraph.Graph) map[string]Point

var layouts = map[string]LayoutFunc{
	LayoutReingold: reingold,
	LayoutRandom:   randomLayout,
	LayoutCircular: circular,
	LayoutEades:    eades,
}

// Layouts lists the registered layout names
func Layouts() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Positions runs the named layout. An empty name selects DefaultLayout.
func Positions(name string, g *socialgraph.Graph) (map[string]Point, error) {
	if name == "" {
		name = DefaultLayout
	}
	layout, ok := layouts[name]
	if !ok {
		return nil, apperrors.NewUnknownLayout(name)
	}
	return layout(g), nil
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(layoutSeed, layoutSeed))
}

func randomLayout(g *socialgraph.Graph) map[string]Point {
	rng := newRand()
	pos := make(map[string]Point, g.NodeCount())
	for _, n := range g.Nodes() {
		pos[n.ID] = Point{X: rng.Float64(), Y: rng.Float64()}
	}
	return pos
}

func circular(g *socialgraph.Graph) map[string]Point {
	nodes := g.Nodes()
	pos := make(map[string]Point, len(nodes))
	if len(nodes) == 1 {
		pos[nodes[0].ID] = Point{}
		return pos
	}
	for i, n := range nodes {
		theta := 2 * math.Pi * float64(i) / float64(len(nodes))
		pos[n.ID] = Point{X: math.Cos(theta), Y: math.Sin(theta)}
	}
	return pos
}

// reingold is a Fruchterman-Reingold spring layout. Attraction is weighted by
// the interaction count in both directions; the result is centered on the
// origin and scaled into [-1, 1].
func reingold(g *socialgraph.Graph) map[string]Point {
	nodes := g.Nodes()
	n := len(nodes)
	pos := make(map[string]Point, n)
	switch n {
	case 0:
		return pos
	case 1:
		pos[nodes[0].ID] = Point{}
		return pos
	}

	index := make(map[string]int, n)
	for i, node := range nodes {
		index[node.ID] = i
	}
	attraction := make([][]float64, n)
	for i := range attraction {
		attraction[i] = make([]float64, n)
	}
	for _, e := range g.Edges() {
		s, t := index[e.Source], index[e.Target]
		if s == t {
			continue
		}
		attraction[s][t] += float64(e.Weight)
		attraction[t][s] += float64(e.Weight)
	}

	rng := newRand()
	xs := make([]Point, n)
	for i := range xs {
		xs[i] = Point{X: rng.Float64(), Y: rng.Float64()}
	}

	temperature := 0.1
	cooling := temperature / float64(forceIterations+1)
	disp := make([]Point, n)
	for range forceIterations {
		for i := range disp {
			disp[i] = Point{}
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				dx := xs[i].X - xs[j].X
				dy := xs[i].Y - xs[j].Y
				dist := math.Max(math.Hypot(dx, dy), minDistance)
				force := springK*springK/(dist*dist) - attraction[i][j]*dist/springK
				disp[i].X += dx * force
				disp[i].Y += dy * force
			}
		}
		for i := range xs {
			length := math.Max(math.Hypot(disp[i].X, disp[i].Y), minDistance)
			xs[i].X += disp[i].X * temperature / length
			xs[i].Y += disp[i].Y * temperature / length
		}
		temperature -= cooling
	}

	rescale(xs)
	for i, node := range nodes {
		pos[node.ID] = xs[i]
	}
	return pos
}

func rescale(xs []Point) {
	var cx, cy float64
	for _, p := range xs {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(xs))
	cy /= float64(len(xs))

	var limit float64
	for i := range xs {
		xs[i].X -= cx
		xs[i].Y -= cy
		limit = math.Max(limit, math.Max(math.Abs(xs[i].X), math.Abs(xs[i].Y)))
	}
	if limit == 0 {
		return
	}
	for i := range xs {
		xs[i].X /= limit
		xs[i].Y /= limit
	}
}
