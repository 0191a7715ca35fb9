package coloc

import (
	"math"
)

// solveAssignmentMax finds a one-to-one assignment of rows to columns of square
// score matrix maximizing the total score (Kuhn-Munkres with potentials, O(n^3)).
// Returns assigned column for every row. Ties are resolved by index order, so the
// result depends on the input only.
func solveAssignmentMax(scores [][]float64) []int {
	n := len(scores)
	if n == 0 {
		return []int{}
	}
	// Work with 1-based indices: index 0 is the virtual column used while augmenting
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	// columnRow[j] is the row matched to column j
	columnRow := make([]int, n+1)
	way := make([]int, n+1)
	minv := make([]float64, n+1)
	used := make([]bool, n+1)
	for i := 1; i <= n; i++ {
		columnRow[0] = i
		j0 := 0
		for j := range minv {
			minv[j] = math.Inf(1)
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := columnRow[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				// Maximization turns into minimization of negated scores
				cur := -scores[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[columnRow[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if columnRow[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			columnRow[j0] = columnRow[j1]
			j0 = j1
		}
	}
	assignment := make([]int, n)
	for j := 1; j <= n; j++ {
		assignment[columnRow[j]-1] = j - 1
	}
	return assignment
}
