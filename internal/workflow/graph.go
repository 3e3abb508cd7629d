package workflow

import (
	"fmt"
	"slices"
)

// Graph is the registry of workflow nodes and the transitions allowed between them.
type Graph struct {
	nodes   map[NodeName]Node
	edges   map[NodeName][]NodeName
	resumes map[NodeName][]NodeName
	entry   NodeName
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[NodeName]Node),
		edges:   make(map[NodeName][]NodeName),
		resumes: make(map[NodeName][]NodeName),
	}
}

// AddNode registers node under name.
func (g *Graph) AddNode(name NodeName, node Node) error {
	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("node %s already registered", name)
	}
	g.nodes[name] = node
	return nil
}

// AddEdge declares that from may Continue to to.
func (g *Graph) AddEdge(from, to NodeName) error {
	if err := g.requireNodes(from, to); err != nil {
		return err
	}
	g.edges[from] = append(g.edges[from], to)
	return nil
}

// AddResume declares that from may Suspend with resumeAt as the re-entry node.
func (g *Graph) AddResume(from, resumeAt NodeName) error {
	if err := g.requireNodes(from, resumeAt); err != nil {
		return err
	}
	g.resumes[from] = append(g.resumes[from], resumeAt)
	return nil
}

// SetEntryPoint sets the node fresh instances start at.
func (g *Graph) SetEntryPoint(name NodeName) error {
	if err := g.requireNodes(name); err != nil {
		return err
	}
	g.entry = name
	return nil
}

// Entry returns the entry node.
func (g *Graph) Entry() NodeName {
	return g.entry
}

// Node returns the node registered under name.
func (g *Graph) Node(name NodeName) (Node, error) {
	n, ok := g.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}
	return n, nil
}

// Check verifies that tr, produced by from, follows a declared edge.
// Only nodes without outgoing edges may terminate.
func (g *Graph) Check(from NodeName, tr Transition) error {
	switch tr.Kind {
	case KindContinue:
		if slices.Contains(g.edges[from], tr.Next) {
			return nil
		}
	case KindSuspend:
		if slices.Contains(g.resumes[from], tr.Next) {
			return nil
		}
	case KindTerminate:
		if len(g.edges[from]) == 0 && len(g.resumes[from]) == 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -%s-> %s", ErrInvalidTransition, from, tr.Kind, tr.Next)
}

func (g *Graph) requireNodes(names ...NodeName) error {
	for _, name := range names {
		if _, ok := g.nodes[name]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownNode, name)
		}
	}
	return nil
}

// BuildGraph assembles the receipt workflow over rt.
func BuildGraph(rt *Runtime) (*Graph, error) {
	g := NewGraph()

	nodes := []struct {
		name NodeName
		node Node
	}{
		{NodeClassify, ClassifyNode(rt)},
		{NodeDecide, DecideNode(rt)},
		{NodeExtract, ExtractNode(rt)},
		{NodeUpload, UploadNode(rt)},
		{NodePersist, PersistNode(rt)},
		{NodeConfirm, ConfirmNode(rt)},
		{NodeRequestRetry, RequestRetryNode(rt)},
		{NodeMaxRetries, MaxRetriesNode(rt)},
		{NodeEnd, EndNode(rt)},
	}
	for _, n := range nodes {
		if err := g.AddNode(n.name, n.node); err != nil {
			return nil, err
		}
	}

	edges := [][2]NodeName{
		{NodeClassify, NodeDecide},
		// classify short-circuits when entered while still awaiting input
		{NodeClassify, NodeEnd},
		{NodeDecide, NodeExtract},
		{NodeDecide, NodeMaxRetries},
		{NodeDecide, NodeRequestRetry},
		{NodeExtract, NodeUpload},
		{NodeUpload, NodePersist},
		{NodePersist, NodeConfirm},
		{NodeConfirm, NodeEnd},
		{NodeMaxRetries, NodeEnd},
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			return nil, err
		}
	}

	if err := g.AddResume(NodeRequestRetry, NodeClassify); err != nil {
		return nil, err
	}

	if err := g.SetEntryPoint(NodeClassify); err != nil {
		return nil, err
	}

	return g, nil
}
