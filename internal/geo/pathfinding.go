package geo

import (
	"container/heap"
)

// AStar is a 4-connected A* search over a passability grid.
// Stateless; safe for concurrent use.
type AStar struct {
	// MaxIterations limits node expansions (default: MaxSearchIterations).
	MaxIterations int
}

// NewAStar creates a searcher with the default iteration budget.
func NewAStar() *AStar {
	return &AStar{MaxIterations: MaxSearchIterations}
}

// Search finds a route from start to goal.
// The returned path runs from the first step after start up to its last cell.
// When goal cannot be reached, the path leads to the explored cell closest to
// goal (status Partial), or is empty (status Unreachable).
// start == goal yields an empty path with status Connected.
func (a *AStar) Search(g *Grid, start, goal Point) ([]Point, SearchStatus) {
	if start == goal {
		return nil, Connected
	}

	maxIter := a.MaxIterations
	if maxIter <= 0 {
		maxIter = MaxSearchIterations
	}

	root := &searchNode{p: start, hCost: start.Manhattan(goal)}
	root.fCost = root.hCost

	openList := &nodeHeap{}
	heap.Init(openList)
	heap.Push(openList, root)

	closed := make(map[Point]struct{}, 256)
	best := root

	for range maxIter {
		if openList.Len() == 0 {
			break
		}

		current := heap.Pop(openList).(*searchNode)
		if current.p == goal {
			return current.path(), Connected
		}

		if _, exists := closed[current.p]; exists {
			continue
		}
		closed[current.p] = struct{}{}

		if current.hCost < best.hCost || (current.hCost == best.hCost && current.gCost < best.gCost) {
			best = current
		}

		for _, d := range AllDirections {
			next := g.Neighbor(current.p, d)
			if !g.IsPassable(next) {
				continue
			}
			if _, exists := closed[next]; exists {
				continue
			}
			node := &searchNode{
				p:      next,
				parent: current,
				gCost:  current.gCost + StepCost,
				hCost:  next.Manhattan(goal),
			}
			node.fCost = node.gCost + node.hCost
			heap.Push(openList, node)
		}
	}

	if best == root {
		return nil, Unreachable
	}
	return best.path(), Partial
}

// searchNode represents a node in the A* search graph.
type searchNode struct {
	p      Point
	parent *searchNode
	gCost  int // Actual cost from start
	hCost  int // Manhattan distance to goal
	fCost  int // gCost + hCost
	index  int // heap index
}

// path walks parents back to the root, excluding the root itself.
func (n *searchNode) path() []Point {
	steps := make([]Point, 0, n.gCost)
	for cur := n; cur.parent != nil; cur = cur.parent {
		steps = append(steps, cur.p)
	}

	// Reverse (A* builds path backward)
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}

// nodeHeap implements container/heap for A* open list (min-heap by fCost, then hCost).
type nodeHeap []*searchNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].fCost != h[j].fCost {
		return h[i].fCost < h[j].fCost
	}
	return h[i].hCost < h[j].hCost
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *nodeHeap) Push(x any)   { n := x.(*searchNode); n.index = len(*h); *h = append(*h, n) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil // GC
	node.index = -1
	*h = old[:n-1]
	return node
}
