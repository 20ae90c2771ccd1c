package decode

const (
	left  = 0
	right = 1
)

//eisner finds the maximum projective spanning tree rooted at node 0 with
//the first order dynamic program over complete and incomplete spans.
//s is a dense (n+1)x(n+1) matrix, s[dep][head], root row blocked
func eisner(s [][]float64) []int {
	n := len(s) - 1
	cI, bI := newChart(n), newBacks(n)
	cC, bC := newChart(n), newBacks(n)
	for i := 0; i <= n; i++ {
		cC[i][i][left], cC[i][i][right] = 0, 0
	}
	for width := 1; width <= n; width++ {
		for i := 0; i+width <= n; i++ {
			j := i + width
			// incomplete spans take an arc between the endpoints
			bestL, argL := negInf, -1
			bestR, argR := negInf, -1
			for r := i; r < j; r++ {
				v := cC[i][r][right] + cC[r+1][j][left]
				if v+s[i][j] > bestL {
					bestL, argL = v+s[i][j], r
				}
				if v+s[j][i] > bestR {
					bestR, argR = v+s[j][i], r
				}
			}
			if i == 0 {
				// the root never takes a head
				bestL, argL = negInf, -1
			}
			cI[i][j][left], bI[i][j][left] = bestL, argL
			cI[i][j][right], bI[i][j][right] = bestR, argR
			// complete spans extend an incomplete one
			bestL, argL = negInf, -1
			for r := i; r < j; r++ {
				v := cC[i][r][left] + cI[r][j][left]
				if v > bestL {
					bestL, argL = v, r
				}
			}
			cC[i][j][left], bC[i][j][left] = bestL, argL
			bestR, argR = negInf, -1
			for r := i + 1; r <= j; r++ {
				v := cI[i][r][right] + cC[r][j][right]
				if v > bestR {
					bestR, argR = v, r
				}
			}
			cC[i][j][right], bC[i][j][right] = bestR, argR
		}
	}
	heads := make([]int, n+1)
	heads[0] = -1
	backtrackComplete(bI, bC, 0, n, right, heads)
	return heads
}

func newChart(n int) [][][2]float64 {
	res := make([][][2]float64, n+1)
	for i := range res {
		res[i] = make([][2]float64, n+1)
		for j := range res[i] {
			res[i][j][left], res[i][j][right] = negInf, negInf
		}
	}
	return res
}

func newBacks(n int) [][][2]int {
	res := make([][][2]int, n+1)
	for i := range res {
		res[i] = make([][2]int, n+1)
	}
	return res
}

func backtrackComplete(bI, bC [][][2]int, i, j, dir int, heads []int) {
	if i == j {
		return
	}
	r := bC[i][j][dir]
	if dir == left {
		backtrackComplete(bI, bC, i, r, left, heads)
		backtrackIncomplete(bI, bC, r, j, left, heads)
	} else {
		backtrackIncomplete(bI, bC, i, r, right, heads)
		backtrackComplete(bI, bC, r, j, right, heads)
	}
}

func backtrackIncomplete(bI, bC [][][2]int, i, j, dir int, heads []int) {
	if dir == left {
		heads[i] = j
	} else {
		heads[j] = i
	}
	r := bI[i][j][dir]
	backtrackComplete(bI, bC, i, r, right, heads)
	backtrackComplete(bI, bC, r+1, j, left, heads)
}
