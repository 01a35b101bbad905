package graph

import "sort"

// DetectCycles partitions the internal modules into strongly connected
// components with Tarjan's algorithm and annotates every member of a cycle
// group. A group is a component of size >= 2, or a single node with an edge
// to itself. External nodes have no outgoing edges and are excluded up front.
//
// Nodes are visited in sorted-fqn order so the group numbering and report
// order are reproducible across runs on an unchanged project. O(V+E).
func (g *Graph) DetectCycles() {
	g.cycleGroups = nil
	g.cyclePaths = nil

	// Internal nodes in deterministic order, with sorted internal adjacency.
	nodes := make([]int, 0, len(g.modules))
	for _, m := range g.Modules() {
		if m.Internal {
			nodes = append(nodes, m.ID)
		}
	}
	adj := make(map[int][]int, len(nodes))
	for _, id := range nodes {
		var targets []int
		for _, t := range g.Targets(id) {
			if t.Internal {
				targets = append(targets, t.ID)
			}
		}
		adj[id] = targets
	}

	const unvisited = -1
	indices := make([]int, len(g.modules))
	lowlink := make([]int, len(g.modules))
	onStack := make([]bool, len(g.modules))
	for i := range indices {
		indices[i] = unvisited
	}

	index := 0
	var stack []int
	var components [][]int

	var strongConnect func(v int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if indices[w] == unvisited {
				strongConnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] && indices[w] < lowlink[v] {
				lowlink[v] = indices[w]
			}
		}

		if lowlink[v] != indices[v] {
			return
		}
		var comp []int
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		if len(comp) > 1 || g.HasEdge(v, v) {
			components = append(components, comp)
		}
	}

	for _, v := range nodes {
		if indices[v] == unvisited {
			strongConnect(v)
		}
	}

	// Groups are reported sorted by their lexicographically smallest fqn.
	groups := make([][]string, 0, len(components))
	byFQN := make(map[string][]int, len(components))
	for _, comp := range components {
		fqns := make([]string, len(comp))
		for i, id := range comp {
			fqns[i] = g.modules[id].FQN
		}
		sort.Strings(fqns)
		groups = append(groups, fqns)
		byFQN[fqns[0]] = comp
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })

	for gi, fqns := range groups {
		for _, fqn := range fqns {
			m := g.modules[g.index[fqn]]
			m.InCycle = true
			m.CycleGroup = gi
		}
	}
	g.cycleGroups = groups

	for _, fqns := range groups {
		g.cyclePaths = append(g.cyclePaths, g.cyclePath(fqns))
	}
}

// cyclePath finds one concrete traversal of a cycle group, restricted to the
// group's own nodes, starting from the smallest fqn and following sorted
// neighbors, closed back on the start: [a b c a]. A self-loop yields [a a].
func (g *Graph) cyclePath(members []string) []string {
	member := make(map[int]bool, len(members))
	for _, fqn := range members {
		member[g.index[fqn]] = true
	}
	start := g.index[members[0]]

	var visited map[int]bool
	var path []string
	var dfs func(v int) bool
	dfs = func(v int) bool {
		path = append(path, g.modules[v].FQN)
		visited[v] = true
		for _, t := range g.Targets(v) {
			if !member[t.ID] {
				continue
			}
			if t.ID == start && (len(path) > 1 || g.HasEdge(start, start)) {
				path = append(path, g.modules[start].FQN)
				return true
			}
			if !visited[t.ID] && dfs(t.ID) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}

	visited = make(map[int]bool, len(members))
	if dfs(start) {
		return path
	}
	// Every node in an SCC lies on a cycle through the start, so the DFS
	// cannot fail; fall back to the member list to stay total.
	closed := append(append([]string{}, members...), members[0])
	return closed
}
