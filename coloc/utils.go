package coloc

import (
	"math"
	"sort"
)

// round2 rounds to 2 decimals, halves to even
func round2(value float64) float64 {
	return math.RoundToEven(value*100) / 100
}

// round4 rounds to 4 decimals, halves to even
func round4(value float64) float64 {
	return math.RoundToEven(value*10000) / 10000
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// sortedKeys returns map keys in ascending order so results never depend on map iteration
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
