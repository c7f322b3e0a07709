package render

import (
	"strconv"

	"friendmap/backend/internal/socialgraph"

	"github.com/emicklei/dot"
)

// DOT exports g as a Graphviz digraph. Edge labels carry the weight.
func DOT(g *socialgraph.Graph) string {
	out := dot.NewGraph(dot.Directed)
	if g.Name != "" {
		out.Attr("labelloc", "t")
		out.Attr("label", g.Name+" Network graph")
		out.Attr("fontname", "Helvetica")
	}

	nodes := make(map[string]dot.Node, g.NodeCount())
	for _, n := range g.Nodes() {
		nodes[n.ID] = out.Node(n.ID).Attr("label", n.Name)
	}
	for _, e := range g.Edges() {
		weight := strconv.Itoa(e.Weight)
		out.Edge(nodes[e.Source], nodes[e.Target], weight).
			Attr("weight", weight).
			Attr("color", LineColor(e.Weight))
	}
	return out.String()
}
