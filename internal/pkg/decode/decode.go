package decode

import (
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"bitbucket.org/airenas/depgo/internal/pkg/scorer"
)

var (
	//ErrConfigConflict is returned for an invalid flag combination
	ErrConfigConflict = errors.New("Projective decoding requires tree mode")
	//ErrCycleDetected indicates a tree enforced decode still produced a cycle.
	//It marks an internal invariant violation and is not recoverable
	ErrCycleDetected = errors.New("Tree decode produced a cycle")
)

var negInf = math.Inf(-1)

//Options control the decoding mode
type Options struct {
	//Tree makes the output a well formed dependency tree
	Tree bool
	//Proj additionally forbids crossing arcs. Valid only together with Tree
	Proj bool
	//Workers bounds sentence level parallelism, defaults to GOMAXPROCS
	Workers int
}

//Decode converts raw scores into head and relation assignments.
//Output is one slice of heads and one of relation ids per sentence,
//indexed as the input batch. Sentences with no real tokens get empty slices
func Decode(ctx context.Context, s *scorer.Scores, mask [][]bool, lens []int, opts Options) ([][]int, [][]int, error) {
	if opts.Proj && !opts.Tree {
		return nil, nil, ErrConfigConflict
	}
	if err := s.Validate(mask); err != nil {
		return nil, nil, err
	}
	if len(lens) != len(mask) {
		return nil, nil, errors.Wrapf(scorer.ErrShapeMismatch, "lens %d vs mask %d", len(lens), len(mask))
	}
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	heads := make([][]int, len(lens))
	rels := make([][]int, len(lens))
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var lock sync.Mutex
	var firstErr error
	for i := range lens {
		if err := sem.Acquire(ctx, 1); err != nil {
			// in-flight workers still write into heads/rels, let them finish
			lock.Lock()
			if firstErr == nil {
				firstErr = err
			}
			lock.Unlock()
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			h, r, err := decodeSentence(s.Arc[i], s.Rel[i], lens[i], opts)
			if err != nil {
				lock.Lock()
				if firstErr == nil {
					firstErr = err
				}
				lock.Unlock()
				return
			}
			heads[i], rels[i] = h, r
		}(i)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, nil, firstErr
	}
	return heads, rels, nil
}

func decodeSentence(arc [][]float64, rel [][][]float64, n int, opts Options) ([]int, []int, error) {
	if n == 0 {
		return []int{}, []int{}, nil
	}
	if n+1 > len(arc) {
		return nil, nil, errors.Wrapf(scorer.ErrShapeMismatch, "sentence len %d vs scores %d", n, len(arc))
	}
	heads := greedy(arc, n)
	if opts.Tree && !wellFormed(heads, opts.Proj) {
		s := squareCopy(arc, n)
		if opts.Proj {
			heads = singleRoot(eisner, s, true)
		} else {
			heads = singleRoot(chuLiuEdmonds, s, false)
		}
		if !isTree(heads) {
			return nil, nil, ErrCycleDetected
		}
	}
	return heads[1:], pickRels(rel, heads, n), nil
}

//greedy picks the maximal head per token independently, no structural
//guarantee. Self loops are excluded, ties resolve to the lowest head index
func greedy(arc [][]float64, n int) []int {
	heads := make([]int, n+1)
	heads[0] = -1
	for d := 1; d <= n; d++ {
		best, bestV := -1, negInf
		for h := 0; h <= n; h++ {
			if h == d {
				continue
			}
			if arc[d][h] > bestV {
				best, bestV = h, arc[d][h]
			}
		}
		heads[d] = best
	}
	return heads
}

func pickRels(rel [][][]float64, heads []int, n int) []int {
	res := make([]int, n)
	for d := 1; d <= n; d++ {
		row := rel[d][heads[d]]
		best, bestV := 0, negInf
		for r, v := range row {
			if v > bestV {
				best, bestV = r, v
			}
		}
		res[d-1] = best
	}
	return res
}

//squareCopy extracts the (n+1)x(n+1) score matrix with the diagonal and
//the root dependent row blocked
func squareCopy(arc [][]float64, n int) [][]float64 {
	s := make([][]float64, n+1)
	for d := 0; d <= n; d++ {
		s[d] = make([]float64, n+1)
		for h := 0; h <= n; h++ {
			if d == 0 || d == h {
				s[d][h] = negInf
			} else {
				s[d][h] = arc[d][h]
			}
		}
	}
	return s
}

//singleRoot runs the decoder and, if several tokens attached to the root,
//retries with one candidate forced at a time and keeps the best scoring
//tree. scanAll widens the retry to every token, the projective program
//can place the best single root outside its unconstrained root set
func singleRoot(decodeFn func([][]float64) []int, s [][]float64, scanAll bool) []int {
	heads := decodeFn(s)
	roots := rootsOf(heads)
	if len(roots) <= 1 {
		return heads
	}
	if scanAll {
		roots = roots[:0]
		for d := 1; d < len(s); d++ {
			roots = append(roots, d)
		}
	}
	var best []int
	bestV := negInf
	for _, r := range roots {
		forced := cloneMatrix(s)
		for d := 1; d < len(s); d++ {
			if d != r {
				forced[d][0] = negInf
			}
		}
		t := decodeFn(forced)
		v := treeScore(s, t)
		if v > bestV {
			best, bestV = t, v
		}
	}
	return best
}

func rootsOf(heads []int) []int {
	res := make([]int, 0)
	for d := 1; d < len(heads); d++ {
		if heads[d] == 0 {
			res = append(res, d)
		}
	}
	return res
}

func treeScore(s [][]float64, heads []int) float64 {
	res := 0.0
	for d := 1; d < len(heads); d++ {
		res += s[d][heads[d]]
	}
	return res
}

func cloneMatrix(s [][]float64) [][]float64 {
	res := make([][]float64, len(s))
	for i, row := range s {
		res[i] = make([]float64, len(row))
		copy(res[i], row)
	}
	return res
}

func wellFormed(heads []int, proj bool) bool {
	if !isTree(heads) {
		return false
	}
	return !proj || isProjective(heads)
}

//isTree checks for a single token attached to the root, full reachability
//and no cycles. heads is root inclusive, heads[0] = -1
func isTree(heads []int) bool {
	n := len(heads) - 1
	if len(rootsOf(heads)) != 1 {
		return false
	}
	children := make([][]int, n+1)
	for d := 1; d <= n; d++ {
		h := heads[d]
		if h < 0 || h > n {
			return false
		}
		children[h] = append(children[h], d)
	}
	visited := 0
	stack := []int{0}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++
		stack = append(stack, children[v]...)
	}
	return visited == n+1
}

//isProjective checks that no two arcs cross in the linear token order
func isProjective(heads []int) bool {
	type arc struct{ lo, hi int }
	arcs := make([]arc, 0, len(heads)-1)
	for d := 1; d < len(heads); d++ {
		lo, hi := d, heads[d]
		if lo > hi {
			lo, hi = hi, lo
		}
		arcs = append(arcs, arc{lo, hi})
	}
	for i := 0; i < len(arcs); i++ {
		for j := i + 1; j < len(arcs); j++ {
			a, b := arcs[i], arcs[j]
			if a.lo < b.lo && b.lo < a.hi && a.hi < b.hi {
				return false
			}
			if b.lo < a.lo && a.lo < b.hi && b.hi < a.hi {
				return false
			}
		}
	}
	return true
}

//Probabilities turns arc scores into per sentence head distributions,
//rows for real tokens, columns for candidate heads the root included.
//Memory heavy, computed only on request
func Probabilities(s *scorer.Scores, lens []int) [][][]float64 {
	res := make([][][]float64, len(lens))
	for i, n := range lens {
		rows := make([][]float64, n)
		for d := 1; d <= n; d++ {
			rows[d-1] = softmax(s.Arc[i][d][:n+1])
		}
		res[i] = rows
	}
	return res
}

func softmax(vals []float64) []float64 {
	max := negInf
	for _, v := range vals {
		if v > max {
			max = v
		}
	}
	res := make([]float64, len(vals))
	sum := 0.0
	for i, v := range vals {
		res[i] = math.Exp(v - max)
		sum += res[i]
	}
	for i := range res {
		res[i] /= sum
	}
	return res
}
