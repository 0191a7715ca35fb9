package coloc

import (
	"math/rand"
	"testing"
)

// bestAssignmentScore enumerates every permutation of columns
func bestAssignmentScore(scores [][]float64) float64 {
	n := len(scores)
	columns := make([]int, n)
	for i := range columns {
		columns[i] = i
	}
	best := -1.0
	var permute func(k int)
	permute = func(k int) {
		if k == n {
			total := 0.0
			for i, j := range columns {
				total += scores[i][j]
			}
			if total > best {
				best = total
			}
			return
		}
		for i := k; i < n; i++ {
			columns[k], columns[i] = columns[i], columns[k]
			permute(k + 1)
			columns[k], columns[i] = columns[i], columns[k]
		}
	}
	permute(0)
	return best
}

func TestSolveAssignmentMax(t *testing.T) {
	scores := [][]float64{
		{7, 4, 0},
		{8, 0, 0},
		{0, 3, 1},
	}
	correctAnswer := []int{1, 0, 2}
	answer := solveAssignmentMax(scores)
	for i := range correctAnswer {
		if answer[i] != correctAnswer[i] {
			t.Errorf("Wrong answer: %v, correct answer: %v", answer, correctAnswer)
			break
		}
	}
	if len(solveAssignmentMax([][]float64{})) != 0 {
		t.Errorf("Empty matrix must give empty assignment")
	}
}

func TestSolveAssignmentMaxOptimal(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	for trial := 0; trial < 300; trial++ {
		n := 1 + rnd.Intn(6)
		scores := make([][]float64, n)
		for i := range scores {
			scores[i] = make([]float64, n)
			for j := range scores[i] {
				// Sparse matrices resemble padded frames
				if rnd.Intn(3) > 0 {
					scores[i][j] = float64(rnd.Intn(5))
				}
			}
		}
		assignment := solveAssignmentMax(scores)
		seen := make(map[int]struct{}, n)
		total := 0.0
		for i, j := range assignment {
			if _, ok := seen[j]; ok {
				t.Errorf("Trial %d: column %d assigned twice in %v", trial, j, assignment)
			}
			seen[j] = struct{}{}
			total += scores[i][j]
		}
		correctAnswer := bestAssignmentScore(scores)
		if total != correctAnswer {
			t.Errorf("Trial %d: wrong total score: %v, correct answer: %v (%v)", trial, total, correctAnswer, scores)
		}
		again := solveAssignmentMax(scores)
		for i := range assignment {
			if again[i] != assignment[i] {
				t.Errorf("Trial %d: assignment changed between calls: %v vs %v", trial, assignment, again)
				break
			}
		}
	}
}
