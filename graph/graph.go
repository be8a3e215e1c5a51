// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"container/heap"
	"fmt"

	"github.com/ik5/squid/dsp"
)

// NodeID identifies a node within one Graph. IDs are handed out in order
// starting at zero.
type NodeID int

// Edge carries the output of From into To.
type Edge struct {
	From, To NodeID
}

// Node is one processing step.
type Node interface {
	// Process writes one block into out. Upstream blocks come from ctx.
	Process(ctx *Context, out *dsp.Block)
	// Reset clears internal state for the given sample rate.
	Reset(sampleRate float32)
}

// Context is what a node sees while it runs.
type Context struct {
	SampleRate float32
	// Position is the number of frames processed before this block.
	Position uint64

	inputs []*dsp.Block
}

// Inputs returns the upstream blocks in connection order.
func (c *Context) Inputs() []*dsp.Block { return c.inputs }

// Mix writes the sum of every input into dst.
func (c *Context) Mix(dst *dsp.Block) {
	dst.Zero()
	for _, in := range c.inputs {
		dst.Add(in)
	}
}

type color uint8

const (
	white color = iota
	gray
	black
)

// Graph owns a set of nodes, their output blocks and the processing order.
type Graph struct {
	rate     float32
	nodes    []Node
	outs     []dsp.Block
	edges    []Edge
	feedback []bool
	inputs   [][]*dsp.Block
	order    []NodeID
	sink     NodeID
	built    bool
	ctx      Context
}

func New(sampleRate float32) *Graph {
	return &Graph{rate: sampleRate, sink: -1}
}

func (g *Graph) SampleRate() float32 { return g.rate }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// AddNode appends n and returns its id. The most recently added node is
// the output until SetOutput says otherwise.
func (g *Graph) AddNode(n Node) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.built = false
	n.Reset(g.rate)
	return id
}

// Node returns the node stored under id.
func (g *Graph) Node(id NodeID) (Node, error) {
	if !g.valid(id) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return g.nodes[id], nil
}

// Connect feeds from into to. Connecting a node to itself is allowed and
// always becomes a feedback edge.
func (g *Graph) Connect(from, to NodeID) error {
	if !g.valid(from) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, from)
	}
	if !g.valid(to) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, to)
	}

	g.edges = append(g.edges, Edge{From: from, To: to})
	g.built = false
	return nil
}

// Chain connects each node to the next.
func (g *Graph) Chain(ids ...NodeID) error {
	for i := 1; i < len(ids); i++ {
		if err := g.Connect(ids[i-1], ids[i]); err != nil {
			return err
		}
	}
	return nil
}

// SetOutput selects the node whose block Process returns.
func (g *Graph) SetOutput(id NodeID) error {
	if !g.valid(id) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	g.sink = id
	return nil
}

func (g *Graph) Output() NodeID {
	if g.sink < 0 {
		return NodeID(len(g.nodes) - 1)
	}
	return g.sink
}

func (g *Graph) Edges() []Edge { return g.edges }

// FeedbackEdges returns the edges that close a loop, in insertion order.
func (g *Graph) FeedbackEdges() []Edge {
	fb := g.classify()

	var out []Edge
	for i, e := range g.edges {
		if fb[i] {
			out = append(out, e)
		}
	}
	return out
}

// classify marks feedback edges with a depth-first walk. Roots and
// neighbours are visited in ascending id and insertion order.
func (g *Graph) classify() []bool {
	fb := make([]bool, len(g.edges))
	colors := make([]color, len(g.nodes))

	adj := g.adjacency()

	var visit func(u NodeID)
	visit = func(u NodeID) {
		colors[u] = gray
		for _, ei := range adj[u] {
			v := g.edges[ei].To
			switch colors[v] {
			case gray:
				fb[ei] = true
			case white:
				visit(v)
			}
		}
		colors[u] = black
	}

	for id := range g.nodes {
		if colors[id] == white {
			visit(NodeID(id))
		}
	}

	return fb
}

// adjacency lists outgoing edge indexes per node.
func (g *Graph) adjacency() [][]int {
	adj := make([][]int, len(g.nodes))
	for i, e := range g.edges {
		adj[e.From] = append(adj[e.From], i)
	}
	return adj
}

// Rebuild recomputes feedback edges, the processing order and the input
// table. It must run after the last AddNode or Connect and before Process.
func (g *Graph) Rebuild() {
	g.feedback = g.classify()
	adj := g.adjacency()

	indeg := make([]int, len(g.nodes))
	for i, e := range g.edges {
		if !g.feedback[i] {
			indeg[e.To]++
		}
	}

	ready := make(idHeap, 0, len(g.nodes))
	for id, d := range indeg {
		if d == 0 {
			ready = append(ready, NodeID(id))
		}
	}
	heap.Init(&ready)

	g.order = g.order[:0]
	for ready.Len() > 0 {
		u := heap.Pop(&ready).(NodeID)
		g.order = append(g.order, u)

		for _, ei := range adj[u] {
			if g.feedback[ei] {
				continue
			}
			v := g.edges[ei].To
			indeg[v]--
			if indeg[v] == 0 {
				heap.Push(&ready, v)
			}
		}
	}

	if len(g.outs) != len(g.nodes) {
		g.outs = make([]dsp.Block, len(g.nodes))
	}

	g.inputs = make([][]*dsp.Block, len(g.nodes))
	for _, e := range g.edges {
		g.inputs[e.To] = append(g.inputs[e.To], &g.outs[e.From])
	}

	g.built = true
}

// Order returns the processing order computed by the last Rebuild.
func (g *Graph) Order() []NodeID { return g.order }

// Built reports whether the graph is ready for Process.
func (g *Graph) Built() bool { return g.built }

// Process runs every node once and returns the output node's block. The
// returned block is owned by the graph and overwritten by the next call.
// Calling Process on a graph changed since the last Rebuild panics.
func (g *Graph) Process() *dsp.Block {
	if !g.built {
		panic(ErrNotBuilt)
	}

	g.ctx.SampleRate = g.rate
	for _, id := range g.order {
		g.ctx.inputs = g.inputs[id]
		g.nodes[id].Process(&g.ctx, &g.outs[id])
	}
	g.ctx.inputs = nil
	g.ctx.Position += dsp.BlockSize

	return &g.outs[g.Output()]
}

// Reset clears every node and output block, switching to sampleRate.
func (g *Graph) Reset(sampleRate float32) {
	g.rate = sampleRate
	g.ctx.Position = 0
	for i := range g.outs {
		g.outs[i].Zero()
	}
	for _, n := range g.nodes {
		n.Reset(sampleRate)
	}
}

func (g *Graph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

type idHeap []NodeID

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x any)        { *h = append(*h, x.(NodeID)) }

func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
