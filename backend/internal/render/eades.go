package render

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"friendmap/backend/internal/socialgraph"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/simple"
)

// orderedGraph iterates nodes and neighbours by id so the optimizer sees the
// same order on every run
type orderedGraph struct {
	*simple.UndirectedGraph
}

func (g orderedGraph) Nodes() graph.Nodes {
	return sortedNodes(g.UndirectedGraph.Nodes())
}

func (g orderedGraph) From(id int64) graph.Nodes {
	return sortedNodes(g.UndirectedGraph.From(id))
}

func sortedNodes(it graph.Nodes) graph.Nodes {
	nodes := graph.NodesOf(it)
	slices.SortFunc(nodes, func(a, b graph.Node) int { return cmp.Compare(a.ID(), b.ID()) })
	return iterator.NewOrderedNodes(nodes)
}

// eades is Eades' spring embedder from gonum, run on the undirected
// interaction graph with a fixed seed and rescaled into [-1, 1]
func eades(g *socialgraph.Graph) map[string]Point {
	nodes := g.Nodes()
	pos := make(map[string]Point, len(nodes))
	switch len(nodes) {
	case 0:
		return pos
	case 1:
		pos[nodes[0].ID] = Point{}
		return pos
	}

	index := make(map[string]int64, len(nodes))
	ug := simple.NewUndirectedGraph()
	for i, n := range nodes {
		index[n.ID] = int64(i)
		ug.AddNode(simple.Node(i))
	}
	for _, e := range g.Edges() {
		s, t := index[e.Source], index[e.Target]
		if s == t {
			continue
		}
		ug.SetEdge(simple.Edge{F: simple.Node(s), T: simple.Node(t)})
	}

	cfg := &layout.EadesR2{
		Updates:   eadesUpdates,
		Repulsion: 1,
		Rate:      0.05,
		Theta:     0.2,
		Src:       rand.NewPCG(layoutSeed, layoutSeed),
	}
	optimizer := layout.NewOptimizerR2(orderedGraph{ug}, cfg.Update)
	for optimizer.Update() {
	}

	xs := make([]Point, len(nodes))
	for i := range nodes {
		v := optimizer.Coord2(int64(i))
		xs[i] = Point{X: v.X, Y: v.Y}
	}
	rescale(xs)
	for i, n := range nodes {
		pos[n.ID] = xs[i]
	}
	return pos
}
