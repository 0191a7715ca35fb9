package coloc

import (
	"fmt"
	"sort"
)

// PairingAlgorithm is for algorithm type for pairing spots of two channels within a frame
type PairingAlgorithm uint16

const (
	// PairingAll keeps every pair within cutoff: a spot may match several partner spots
	PairingAll PairingAlgorithm = iota
	// PairingGreedy pairs nearest spots first, each spot is used at most once
	PairingGreedy
	// PairingHungarian uses the Hungarian algorithm (Kuhn-Munkres) for optimal one-to-one assignment
	PairingHungarian

	hungarianScale = 1_000_000.0
)

func (algorithm PairingAlgorithm) String() string {
	switch algorithm {
	case PairingGreedy:
		return "greedy"
	case PairingHungarian:
		return "hungarian"
	default:
		return "all"
	}
}

// ParsePairing converts option value to pairing algorithm
func ParsePairing(value string) (PairingAlgorithm, error) {
	switch value {
	case "all", "":
		return PairingAll, nil
	case "greedy":
		return PairingGreedy, nil
	case "hungarian":
		return PairingHungarian, nil
	default:
		return PairingAll, fmt.Errorf("unknown pairing algorithm %q", value)
	}
}

// pairFrame returns (primary index, partner index) pairs within cutoff, ordered by
// primary index then partner index
func pairFrame(algorithm PairingAlgorithm, primary, partner []Point, cutoff float64) [][2]int {
	if len(primary) == 0 || len(partner) == 0 {
		return [][2]int{}
	}
	switch algorithm {
	case PairingGreedy:
		return pairGreedy(primary, partner, cutoff)
	case PairingHungarian:
		return pairHungarian(primary, partner, cutoff)
	default:
		return pairAll(primary, partner, cutoff)
	}
}

func pairAll(primary, partner []Point, cutoff float64) [][2]int {
	matches := make([][2]int, 0)
	for i := range primary {
		for j := range partner {
			if spotDistance(primary[i], partner[j]) <= cutoff {
				matches = append(matches, [2]int{i, j})
			}
		}
	}
	return matches
}

func pairGreedy(primary, partner []Point, cutoff float64) [][2]int {
	priorityQueue := make(distanceHeap, 0)
	for i := range primary {
		for j := range partner {
			d := spotDistance(primary[i], partner[j])
			if d <= cutoff {
				priorityQueue.Push(&candidatePair{left: i, right: j, distance: d})
			}
		}
	}
	// We need to prevent double use of spots
	usedPrimary := make(map[int]struct{})
	usedPartner := make(map[int]struct{})
	matches := make([][2]int, 0)
	for priorityQueue.Len() > 0 {
		candidate := priorityQueue.Pop()
		if _, ok := usedPrimary[candidate.left]; ok {
			continue
		}
		if _, ok := usedPartner[candidate.right]; ok {
			continue
		}
		usedPrimary[candidate.left] = struct{}{}
		usedPartner[candidate.right] = struct{}{}
		matches = append(matches, [2]int{candidate.left, candidate.right})
	}
	sortPairs(matches)
	return matches
}

func pairHungarian(primary, partner []Point, cutoff float64) [][2]int {
	numPrimary := len(primary)
	numPartner := len(partner)
	distances := make([][]float64, numPrimary)
	// Rectangular matrix - pad to make it square. Padding is done with 0.0 values (no pairing)
	paddedSize := maxInt(numPrimary, numPartner)
	scores := make([][]float64, paddedSize)
	for i := 0; i < paddedSize; i++ {
		scores[i] = make([]float64, paddedSize)
	}
	for i := 0; i < numPrimary; i++ {
		distances[i] = make([]float64, numPartner)
		for j := 0; j < numPartner; j++ {
			d := spotDistance(primary[i], partner[j])
			distances[i][j] = d
			if d <= cutoff {
				// +1 keeps pairs exactly at cutoff above padding
				scores[i][j] = (cutoff-d)*hungarianScale + 1
			}
		}
	}
	assignment := solveAssignmentMax(scores)
	matches := make([][2]int, 0)
	for primaryIndex := 0; primaryIndex < numPrimary; primaryIndex++ {
		partnerIndex := assignment[primaryIndex]
		if partnerIndex >= numPartner {
			continue
		}
		if distances[primaryIndex][partnerIndex] <= cutoff {
			matches = append(matches, [2]int{primaryIndex, partnerIndex})
		}
	}
	sortPairs(matches)
	return matches
}

func sortPairs(pairs [][2]int) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
}
