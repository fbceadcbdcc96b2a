// Package buildorder computes a build order for a set of packages from their
// dependency lists, breaking dependency cycles where it has to.
//
// The graph is keyed by package name. A name that only ever appears as a
// dependency is a leaf. Mutual (two-node) dependencies and self-dependencies
// are broken before sorting; longer cycles are broken during the sort at the
// edge that closes them. Every broken edge is reported as a Cycle.
package buildorder

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/glorpus-work/repodeps/pkg/errutils"
)

// TieBreak selects which edge of a mutual dependency is kept.
type TieBreak int

const (
	// TieBreakSize keeps the edge of the package whose dependency list is
	// currently shorter. Packages are visited in name order and the lists
	// shrink as edges are dropped, so the outcome depends on that order.
	// On equal sizes the package visited first keeps its edge.
	TieBreakSize TieBreak = iota
	// TieBreakLexical keeps the edge declared by the lexically smaller name.
	TieBreakLexical
)

func (t TieBreak) String() string {
	switch t {
	case TieBreakSize:
		return "size"
	case TieBreakLexical:
		return "lexical"
	default:
		return fmt.Sprintf("TieBreak(%d)", int(t))
	}
}

// ParseTieBreak parses the names produced by TieBreak.String.
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "size":
		return TieBreakSize, nil
	case "lexical":
		return TieBreakLexical, nil
	default:
		return 0, errutils.ErrInvalidTieBreakWithDetails(s)
	}
}

func (t TieBreak) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TieBreak) UnmarshalText(b []byte) error {
	v, err := ParseTieBreak(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Edge is a dependency of From on To.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

func (e Edge) String() string { return e.From + " -> " + e.To }

// Cycle is a set of mutually dependent packages and the edge dropped to
// break it. A self-dependency has a single member.
type Cycle struct {
	Members []string `json:"members" yaml:"members"`
	Broken  Edge     `json:"broken" yaml:"broken"`
}

// Result is the outcome of a sort.
type Result struct {
	Cycles []Cycle  `json:"cycles" yaml:"cycles"`
	Order  []string `json:"order" yaml:"order"`
}

// Sorter orders dependency graphs. The zero value uses TieBreakSize.
type Sorter struct {
	TieBreak TieBreak
}

// Sort returns an order in which every package comes after all of its
// dependencies, except for the dependencies reported as broken in
// Result.Cycles. Every key and every dependency name appears in the order
// exactly once. The input map is not modified.
func (s Sorter) Sort(deps map[string][]string) Result {
	res := Result{Cycles: []Cycle{}, Order: []string{}}
	if len(deps) == 0 {
		return res
	}

	g := normalize(deps, &res)
	s.breakMutual(g, &res)

	ids := make(map[string]int, len(g.names))
	for i, n := range g.names {
		ids[n] = i
	}
	sink := len(g.names)
	dependents := make([][]int, sink+1)
	for i, n := range g.names {
		if len(g.deps[n]) == 0 {
			dependents[sink] = append(dependents[sink], i)
		}
		for _, d := range g.deps[n] {
			dependents[ids[d]] = append(dependents[ids[d]], i)
		}
	}
	for _, ds := range dependents {
		slices.Sort(ds)
	}

	t := &topo{dependents: dependents, state: make([]color, sink+1)}
	t.visit(sink)
	for i := range g.names {
		if t.state[i] == white {
			t.visit(i)
		}
	}

	for _, b := range t.back {
		c := Cycle{Broken: Edge{From: g.names[b.dependent], To: g.names[b.dependency]}}
		for _, m := range b.path {
			c.Members = append(c.Members, g.names[m])
		}
		res.Cycles = append(res.Cycles, c)
	}

	for i := len(t.post) - 1; i >= 0; i-- {
		if id := t.post[i]; id != sink {
			res.Order = append(res.Order, g.names[id])
		}
	}
	return res
}

// graph is a deduplicated copy of the caller's mapping that includes leaf
// nodes as keys.
type graph struct {
	names []string
	deps  map[string][]string
}

// normalize copies deps, drops duplicate and self edges and adds an empty
// entry for every leaf.
func normalize(deps map[string][]string, res *Result) *graph {
	g := &graph{deps: make(map[string][]string, len(deps))}
	for _, p := range slices.Sorted(maps.Keys(deps)) {
		seen := make(map[string]struct{}, len(deps[p]))
		list := make([]string, 0, len(deps[p]))
		for _, d := range deps[p] {
			if d == p {
				res.Cycles = append(res.Cycles, Cycle{Members: []string{p}, Broken: Edge{From: p, To: p}})
				continue
			}
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			list = append(list, d)
		}
		g.deps[p] = list
	}
	for _, list := range deps {
		for _, d := range list {
			if _, ok := g.deps[d]; !ok {
				g.deps[d] = nil
			}
		}
	}
	g.names = slices.Sorted(maps.Keys(g.deps))
	return g
}

// breakMutual removes one edge of every pair of packages that depend on each
// other.
func (s Sorter) breakMutual(g *graph, res *Result) {
	for _, p := range g.names {
		for _, d := range slices.Clone(g.deps[p]) {
			if !slices.Contains(g.deps[d], p) || !slices.Contains(g.deps[p], d) {
				continue
			}
			var keep bool
			if s.TieBreak == TieBreakSize {
				keep = len(g.deps[p]) <= len(g.deps[d])
			} else {
				keep = p < d
			}
			broken := Edge{From: d, To: p}
			if !keep {
				broken = Edge{From: p, To: d}
			}
			g.deps[broken.From] = slices.DeleteFunc(g.deps[broken.From], func(n string) bool { return n == broken.To })

			members := []string{p, d}
			slices.Sort(members)
			res.Cycles = append(res.Cycles, Cycle{Members: members, Broken: broken})
		}
	}
}

type color uint8

const (
	white color = iota
	gray
	black
)

type backEdge struct {
	dependency, dependent int
	path                  []int
}

// topo is a depth-first search over the dependents graph that records nodes
// in postorder. It uses an explicit stack so that long dependency chains do
// not grow the goroutine stack.
type topo struct {
	dependents [][]int
	state      []color
	post       []int
	back       []backEdge
}

type frame struct {
	node int
	next int
}

func (t *topo) visit(root int) {
	stack := []frame{{node: root}}
	t.state[root] = gray
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(t.dependents[top.node]) {
			t.state[top.node] = black
			t.post = append(t.post, top.node)
			stack = stack[:len(stack)-1]
			continue
		}
		v := t.dependents[top.node][top.next]
		top.next++

		switch t.state[v] {
		case white:
			t.state[v] = gray
			stack = append(stack, frame{node: v})
		case gray:
			t.back = append(t.back, backEdge{dependency: top.node, dependent: v, path: cyclePath(stack, v)})
		}
	}
}

// cyclePath returns the nodes on stack from v to the top.
func cyclePath(stack []frame, v int) []int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].node == v {
			path := make([]int, 0, len(stack)-i)
			for _, f := range stack[i:] {
				path = append(path, f.node)
			}
			return path
		}
	}
	return nil
}
