package builder

import (
	"context"
	"sort"
	"time"
)

// Sense is the relation of a constraint's left-hand side to its bound
type Sense int

const (
	// LessEq constrains the number of selected variables to at most RHS
	LessEq Sense = iota
	// Equal constrains the number of selected variables to exactly RHS
	Equal
)

// Constraint counts how many of Vars are selected
type Constraint struct {
	Name  string
	Vars  []int
	Sense Sense
	RHS   int
}

// IntegerProgram is a 0/1 maximization with unit-coefficient counting
// constraints, which covers ticket cardinality and team exposure
type IntegerProgram struct {
	Objective   []float64
	Constraints []Constraint
}

// Solution is the solver's answer
type Solution struct {
	Selected  []int
	Objective float64
	Feasible  bool
	Optimal   bool
	Nodes     int
}

// Solver solves a 0/1 integer program
type Solver interface {
	Solve(ctx context.Context, prog IntegerProgram) (Solution, error)
}

// BranchAndBound is a depth-first 0/1 branch-and-bound solver. When the node
// limit or the context deadline is reached it returns the best incumbent
// found so far with Optimal=false.
type BranchAndBound struct {
	NodeLimit int
	Timeout   time.Duration
}

// NewBranchAndBound creates a solver with the given budget. Zero values mean
// no limit.
func NewBranchAndBound(nodeLimit int, timeout time.Duration) *BranchAndBound {
	return &BranchAndBound{NodeLimit: nodeLimit, Timeout: timeout}
}

const boundEpsilon = 1e-12

type bnbState struct {
	ctx       context.Context
	nodeLimit int

	order    []int     // variable indices, best objective first
	obj      []float64 // objective in search order
	prefix   []float64 // prefix sums of positive objective in search order
	member   [][]int   // constraints containing each search position
	covering []int     // constraints that contain every variable
	equal    []int     // equality constraints
	suffix   [][]int   // per constraint, members at positions >= p
	rhs      []int
	used     []int
	chosen   []bool

	current float64
	best    float64
	bestSet []bool
	hasBest bool
	nodes   int
	aborted bool
}

// Solve implements Solver
func (s *BranchAndBound) Solve(ctx context.Context, prog IntegerProgram) (Solution, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	n := len(prog.Objective)
	st := newState(ctx, prog, s.NodeLimit)
	st.seedGreedy()
	if n > 0 {
		st.search(0)
	} else {
		st.leaf()
	}

	sol := Solution{Nodes: st.nodes, Optimal: !st.aborted}
	if !st.hasBest {
		return sol, nil
	}
	sol.Feasible = true
	sol.Objective = st.best
	for pos, picked := range st.bestSet {
		if picked {
			sol.Selected = append(sol.Selected, st.order[pos])
		}
	}
	sort.Ints(sol.Selected)
	return sol, nil
}

func newState(ctx context.Context, prog IntegerProgram, nodeLimit int) *bnbState {
	n := len(prog.Objective)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return prog.Objective[order[a]] > prog.Objective[order[b]]
	})
	position := make([]int, n)
	for pos, idx := range order {
		position[idx] = pos
	}

	st := &bnbState{
		ctx:       ctx,
		nodeLimit: nodeLimit,
		order:     order,
		obj:       make([]float64, n),
		prefix:    make([]float64, n+1),
		member:    make([][]int, n),
		suffix:    make([][]int, len(prog.Constraints)),
		rhs:       make([]int, len(prog.Constraints)),
		used:      make([]int, len(prog.Constraints)),
		chosen:    make([]bool, n),
	}
	for pos, idx := range order {
		st.obj[pos] = prog.Objective[idx]
		gain := prog.Objective[idx]
		if gain < 0 {
			gain = 0
		}
		st.prefix[pos+1] = st.prefix[pos] + gain
	}

	for c, con := range prog.Constraints {
		st.rhs[c] = con.RHS
		seen := make(map[int]struct{}, len(con.Vars))
		counts := make([]int, n+1)
		for _, idx := range con.Vars {
			if idx < 0 || idx >= n {
				continue
			}
			if _, dup := seen[idx]; dup {
				continue
			}
			seen[idx] = struct{}{}
			pos := position[idx]
			st.member[pos] = append(st.member[pos], c)
			counts[pos]++
		}
		for p := n - 1; p >= 0; p-- {
			counts[p] += counts[p+1]
		}
		st.suffix[c] = counts
		if len(seen) == n {
			st.covering = append(st.covering, c)
		}
		if con.Sense == Equal {
			st.equal = append(st.equal, c)
		}
	}
	return st
}

func (st *bnbState) canTake(pos int) bool {
	for _, c := range st.member[pos] {
		if st.used[c]+1 > st.rhs[c] {
			return false
		}
	}
	return true
}

func (st *bnbState) take(pos int, on bool) {
	delta := 1
	if !on {
		delta = -1
	}
	for _, c := range st.member[pos] {
		st.used[c] += delta
	}
	st.chosen[pos] = on
	if on {
		st.current += st.obj[pos]
	} else {
		st.current -= st.obj[pos]
	}
}

// seedGreedy installs the first-fit solution in search order as incumbent
// when it satisfies every equality constraint
func (st *bnbState) seedGreedy() {
	for pos := range st.obj {
		if st.obj[pos] <= 0 && !st.neededForEquality(pos) {
			continue
		}
		if st.canTake(pos) {
			st.take(pos, true)
		}
	}
	st.leaf()
	for pos := range st.chosen {
		if st.chosen[pos] {
			st.take(pos, false)
		}
	}
	st.current = 0
}

func (st *bnbState) neededForEquality(pos int) bool {
	for _, c := range st.member[pos] {
		for _, e := range st.equal {
			if c == e && st.used[c] < st.rhs[c] {
				return true
			}
		}
	}
	return false
}

func (st *bnbState) leaf() {
	for _, c := range st.equal {
		if st.used[c] != st.rhs[c] {
			return
		}
	}
	if st.hasBest && st.current <= st.best+boundEpsilon {
		return
	}
	st.best = st.current
	st.hasBest = true
	st.bestSet = append(st.bestSet[:0], st.chosen...)
}

func (st *bnbState) stop() bool {
	if st.aborted {
		return true
	}
	if st.nodeLimit > 0 && st.nodes >= st.nodeLimit {
		st.aborted = true
		return true
	}
	if st.nodes&1023 == 0 && st.ctx.Err() != nil {
		st.aborted = true
		return true
	}
	return false
}

// bound is the optimistic objective reachable from pos
func (st *bnbState) bound(pos int) float64 {
	n := len(st.obj)
	slack := n - pos
	for _, c := range st.covering {
		if room := st.rhs[c] - st.used[c]; room < slack {
			slack = room
		}
	}
	if slack < 0 {
		slack = 0
	}
	return st.current + st.prefix[pos+slack] - st.prefix[pos]
}

func (st *bnbState) equalityReachable(pos int) bool {
	for _, c := range st.equal {
		if st.used[c]+st.suffix[c][pos] < st.rhs[c] {
			return false
		}
	}
	return true
}

func (st *bnbState) search(pos int) {
	st.nodes++
	if st.stop() {
		return
	}
	if pos == len(st.obj) {
		st.leaf()
		return
	}
	if !st.equalityReachable(pos) {
		return
	}
	if st.hasBest && st.bound(pos) <= st.best+boundEpsilon {
		return
	}

	if st.canTake(pos) {
		st.take(pos, true)
		st.search(pos + 1)
		st.take(pos, false)
	}
	st.search(pos + 1)
}
