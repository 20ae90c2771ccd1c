package decode

//chuLiuEdmonds finds the maximum spanning arborescence rooted at node 0
//over the dense score matrix s[dep][head]. The caller blocks the diagonal
//and the root dependent row with -inf. Cycles are contracted into a
//supernode and the reduced problem is solved recursively
func chuLiuEdmonds(s [][]float64) []int {
	n := len(s) - 1
	tree := make([]int, n+1)
	tree[0] = -1
	for d := 1; d <= n; d++ {
		best, bestV := 0, negInf
		for h := 0; h <= n; h++ {
			if s[d][h] > bestV {
				best, bestV = h, s[d][h]
			}
		}
		tree[d] = best
	}
	cycle := findCycle(tree)
	if cycle == nil {
		return tree
	}
	inCycle := make([]bool, n+1)
	cycleSum := 0.0
	for _, v := range cycle {
		inCycle[v] = true
		cycleSum += s[v][tree[v]]
	}
	noncycle := make([]int, 0, n+1)
	for v := 0; v <= n; v++ {
		if !inCycle[v] {
			noncycle = append(noncycle, v)
		}
	}
	// contracted problem: noncycle nodes keep their order, the cycle
	// becomes one extra node at the end
	m := len(noncycle) + 1
	super := m - 1
	sub := make([][]float64, m)
	for i := range sub {
		sub[i] = make([]float64, m)
		for j := range sub[i] {
			sub[i][j] = negInf
		}
	}
	for di, d := range noncycle {
		if d == 0 {
			continue
		}
		for hi, h := range noncycle {
			if di != hi {
				sub[di][hi] = s[d][h]
			}
		}
	}
	// entering the cycle: breaking the best cycle edge for each outside head.
	// leaving the cycle: the best cycle head for each outside dependent
	breakAt := make([]int, m)
	leaveVia := make([]int, m)
	for hi, h := range noncycle {
		bestIn, bestD := negInf, -1
		for _, cd := range cycle {
			v := s[cd][h] - s[cd][tree[cd]]
			if v > bestIn {
				bestIn, bestD = v, cd
			}
		}
		sub[super][hi] = bestIn + cycleSum
		breakAt[hi] = bestD
		if h != 0 {
			bestOut, bestH := negInf, -1
			for _, ch := range cycle {
				if s[h][ch] > bestOut {
					bestOut, bestH = s[h][ch], ch
				}
			}
			sub[hi][super] = bestOut
			leaveVia[hi] = bestH
		}
	}
	subTree := chuLiuEdmonds(sub)
	for di, d := range noncycle {
		if d == 0 {
			continue
		}
		h := subTree[di]
		if h == super {
			tree[d] = leaveVia[di]
		} else {
			tree[d] = noncycle[h]
		}
	}
	// reattach the cycle: one node takes the outside head, the rest keep
	// their cycle edges
	hi := subTree[super]
	tree[breakAt[hi]] = noncycle[hi]
	return tree
}

//findCycle returns the nodes of one cycle in the head assignment or nil
func findCycle(tree []int) []int {
	n := len(tree) - 1
	const (
		white = iota
		gray
		black
	)
	color := make([]int, n+1)
	color[0] = black
	for v := 1; v <= n; v++ {
		if color[v] != white {
			continue
		}
		u := v
		for color[u] == white {
			color[u] = gray
			u = tree[u]
		}
		if color[u] == gray {
			cycle := []int{u}
			for w := tree[u]; w != u; w = tree[w] {
				cycle = append(cycle, w)
			}
			return cycle
		}
		for w := v; color[w] == gray; w = tree[w] {
			color[w] = black
		}
	}
	return nil
}
