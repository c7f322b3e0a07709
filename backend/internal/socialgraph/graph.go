package socialgraph

import "slices"

// Node is a graph vertex keyed by author id
type Node struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Edge is a directed, weighted author pair. Weight counts occurrences.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

type edgeKey struct {
	source string
	target string
}

// Graph is a simple directed weighted graph over author ids.
// Nodes and edges are only ever added; listing order is insertion order.
// A Graph is not safe for concurrent writers.
type Graph struct {
	ID   string
	Name string

	nodes     map[string]*Node
	nodeOrder []string
	edges     map[edgeKey]*Edge
	edgeOrder []edgeKey
	succ      map[string][]string
}

// NewGraph creates an empty graph for a community
func NewGraph(id, name string) *Graph {
	return &Graph{
		ID:    id,
		Name:  name,
		nodes: make(map[string]*Node),
		edges: make(map[edgeKey]*Edge),
		succ:  make(map[string][]string),
	}
}

// AddNode registers an author. The first name seen for an id is kept.
func (g *Graph) AddNode(a Author) {
	if _, ok := g.nodes[a.ID]; ok {
		return
	}
	g.nodes[a.ID] = &Node{ID: a.ID, Name: a.Name}
	g.nodeOrder = append(g.nodeOrder, a.ID)
}

// AddEdge records one occurrence of source → target and returns the new weight
func (g *Graph) AddEdge(source, target Author) int {
	return g.addWeight(source, target, 1)
}

// AddWeightedEdge records weight occurrences at once, for rebuilding stored
// graphs. Non-positive weights are ignored.
func (g *Graph) AddWeightedEdge(source, target Author, weight int) int {
	if weight <= 0 {
		return g.Weight(source.ID, target.ID)
	}
	return g.addWeight(source, target, weight)
}

func (g *Graph) addWeight(source, target Author, w int) int {
	g.AddNode(source)
	g.AddNode(target)
	key := edgeKey{source: source.ID, target: target.ID}
	if e, ok := g.edges[key]; ok {
		e.Weight += w
		return e.Weight
	}
	g.edges[key] = &Edge{Source: source.ID, Target: target.ID, Weight: w}
	g.edgeOrder = append(g.edgeOrder, key)
	g.succ[source.ID] = append(g.succ[source.ID], target.ID)
	return w
}

// Merge folds other into g, summing weights of shared pairs
func (g *Graph) Merge(other *Graph) {
	for _, id := range other.nodeOrder {
		g.AddNode(*other.author(id))
	}
	for _, key := range other.edgeOrder {
		e := other.edges[key]
		g.addWeight(*other.author(e.Source), *other.author(e.Target), e.Weight)
	}
}

func (g *Graph) author(id string) *Author {
	n := g.nodes[id]
	return &Author{ID: n.ID, Name: n.Name}
}

// Node returns the node for id
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns all nodes in insertion order
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, *g.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edgeOrder))
	for _, key := range g.edgeOrder {
		out = append(out, *g.edges[key])
	}
	return out
}

// Weight returns the weight of source → target, 0 when absent
func (g *Graph) Weight(source, target string) int {
	if e, ok := g.edges[edgeKey{source: source, target: target}]; ok {
		return e.Weight
	}
	return 0
}

// HasEdge reports whether source → target exists
func (g *Graph) HasEdge(source, target string) bool {
	_, ok := g.edges[edgeKey{source: source, target: target}]
	return ok
}

// Successors returns the distinct targets of id's outgoing edges
func (g *Graph) Successors(id string) []string {
	return slices.Clone(g.succ[id])
}

// Degree is the number of distinct authors id connects to
func (g *Graph) Degree(id string) int {
	return len(g.succ[id])
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int { return len(g.nodeOrder) }

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int { return len(g.edgeOrder) }

// WeightedConnection is an aggregated edge with author labels attached
type WeightedConnection struct {
	Source Author `json:"source"`
	Target Author `json:"target"`
	Weight int    `json:"weight"`
}

// Triples returns the aggregated (source, target, weight) view of the graph
func (g *Graph) Triples() []WeightedConnection {
	out := make([]WeightedConnection, 0, len(g.edgeOrder))
	for _, key := range g.edgeOrder {
		e := g.edges[key]
		out = append(out, WeightedConnection{
			Source: *g.author(e.Source),
			Target: *g.author(e.Target),
			Weight: e.Weight,
		})
	}
	return out
}
