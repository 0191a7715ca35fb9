package coloc

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairFrame(t *testing.T) {
	primary := []Point{NewPoint(0, 0), NewPoint(0.3, 0)}
	partner := []Point{NewPoint(0.1, 0)}

	// Both primary spots are within cutoff of the single partner spot
	assert.Equal(t, [][2]int{{0, 0}, {1, 0}}, pairFrame(PairingAll, primary, partner, 0.5))
	// One-to-one policies keep the nearest pair only
	assert.Equal(t, [][2]int{{0, 0}}, pairFrame(PairingGreedy, primary, partner, 0.5))
	assert.Equal(t, [][2]int{{0, 0}}, pairFrame(PairingHungarian, primary, partner, 0.5))

	assert.Empty(t, pairFrame(PairingAll, primary, []Point{}, 0.5))
	assert.Empty(t, pairFrame(PairingAll, primary, []Point{NewPoint(5, 5)}, 0.5))
}

func TestPairFrameOneToOne(t *testing.T) {
	primary := []Point{NewPoint(0, 0), NewPoint(1, 0), NewPoint(9, 9)}
	partner := []Point{NewPoint(1.1, 0), NewPoint(0.1, 0)}
	correctAnswer := [][2]int{{0, 1}, {1, 0}}
	for _, algorithm := range []PairingAlgorithm{PairingGreedy, PairingHungarian} {
		answer := pairFrame(algorithm, primary, partner, 0.5)
		assert.Equal(t, correctAnswer, answer, algorithm.String())
	}
}

func TestPairFrameCutoffInclusive(t *testing.T) {
	// Rounded distance equals cutoff exactly
	primary := []Point{NewPoint(0, 0)}
	partner := []Point{NewPoint(0.3, 0.4)}
	for _, algorithm := range []PairingAlgorithm{PairingAll, PairingGreedy, PairingHungarian} {
		assert.Equal(t, [][2]int{{0, 0}}, pairFrame(algorithm, primary, partner, 0.5), algorithm.String())
	}
}

func TestPairFrameHalfDistanceAtCutoff(t *testing.T) {
	// 0.125 rounds to 0.12, so the pair sits exactly at cutoff
	primary := []Point{NewPoint(0, 0)}
	partner := []Point{NewPoint(0.125, 0)}
	for _, algorithm := range []PairingAlgorithm{PairingAll, PairingGreedy, PairingHungarian} {
		assert.Equal(t, [][2]int{{0, 0}}, pairFrame(algorithm, primary, partner, 0.12), algorithm.String())
	}
}

func TestPairHungarianRepeatable(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		primary := make([]Point, 8)
		partner := make([]Point, 8)
		for i := range primary {
			primary[i] = NewPoint(rnd.Float64()*2, rnd.Float64()*2)
			partner[i] = NewPoint(rnd.Float64()*2, rnd.Float64()*2)
		}
		first := pairFrame(PairingHungarian, primary, partner, 0.5)
		for k := 0; k < 20; k++ {
			answer := pairFrame(PairingHungarian, primary, partner, 0.5)
			if !assert.Equal(t, first, answer, "trial %d", trial) {
				return
			}
		}
		// Optimal assignment scores at least as high as greedy nearest-first
		greedy := pairFrame(PairingGreedy, primary, partner, 0.5)
		assert.GreaterOrEqual(t, pairingScore(primary, partner, first, 0.5)+1e-3, pairingScore(primary, partner, greedy, 0.5), "trial %d", trial)
	}
}

func pairingScore(primary, partner []Point, pairs [][2]int, cutoff float64) float64 {
	total := 0.0
	for _, pair := range pairs {
		total += (cutoff-spotDistance(primary[pair[0]], partner[pair[1]]))*hungarianScale + 1
	}
	return total
}

func TestParsePairing(t *testing.T) {
	for _, algorithm := range []PairingAlgorithm{PairingAll, PairingGreedy, PairingHungarian} {
		parsed, err := ParsePairing(algorithm.String())
		require.NoError(t, err)
		assert.Equal(t, algorithm, parsed)
	}
	_, err := ParsePairing("nearest")
	assert.Error(t, err)
}

func TestMatch(t *testing.T) {
	primary := testTable(append(
		testTrack("GTPase", "A", 0, 9, 10, 10),
		testSpot("GTPase", "C", 1, 10.3, 10.3),
	)...)
	partner := testTable(testTrack("GDI", "B", 0, 2, 10.2, 10.2)...)

	combined, err := NewMatcherDefault().Match(primary, partner)
	require.NoError(t, err)
	require.Len(t, combined.Spots, len(primary.Spots)+len(partner.Spots))

	// Primary channel first, then ordered by frame
	assert.Equal(t, "GTPase", combined.Spots[0].Channel)
	assert.Equal(t, "GDI", combined.Spots[len(combined.Spots)-1].Channel)
	for i := 1; i < len(combined.Spots); i++ {
		if combined.Spots[i].Channel == combined.Spots[i-1].Channel {
			assert.LessOrEqual(t, combined.Spots[i-1].Frame, combined.Spots[i].Frame)
		}
	}

	for frame := 0; frame <= 9; frame++ {
		spot := findSpot(combined, "GTPase", "A", frame)
		require.NotNil(t, spot)
		assert.Equal(t, frame <= 2, spot.Colocalized, "frame %d", frame)
	}
	// Both A and C are within cutoff of B on frame 1. B keeps the last id
	c := findSpot(combined, "GTPase", "C", 1)
	assert.True(t, c.Colocalized)
	assert.Equal(t, ColocID{Anchor: "C", Partner: "B"}, c.ColocID)
	b1 := findSpot(combined, "GDI", "B", 1)
	assert.Equal(t, ColocID{Anchor: "C", Partner: "B"}, b1.ColocID)
	b0 := findSpot(combined, "GDI", "B", 0)
	assert.Equal(t, ColocID{Anchor: "A", Partner: "B"}, b0.ColocID)

	// Inputs are untouched
	for i := range primary.Spots {
		assert.False(t, primary.Spots[i].Colocalized)
	}
}

func TestMatchSymmetric(t *testing.T) {
	primary := testTable(testSpot("GTPase", "A", 0, 1, 1), testSpot("GTPase", "A2", 0, 5, 5))
	partner := testTable(testSpot("GDI", "B", 0, 1.3, 1.3), testSpot("GDI", "B2", 0, 9, 9))

	combined, err := NewMatcherDefault().Match(primary, partner)
	require.NoError(t, err)
	colocalized := map[string]int{}
	for i := range combined.Spots {
		if combined.Spots[i].Colocalized {
			colocalized[combined.Spots[i].Channel]++
		}
	}
	assert.Equal(t, map[string]int{"GTPase": 1, "GDI": 1}, colocalized)
}

func TestMatchFrameRange(t *testing.T) {
	// Partner spot after the last primary frame is never matched
	primary := testTable(testSpot("GTPase", "A", 0, 1, 1), testSpot("GTPase", "A", 1, 1, 1))
	partner := testTable(testSpot("GDI", "B", 1, 1, 1), testSpot("GDI", "B", 2, 1, 1), testSpot("GDI", "D", 3, 1, 1))
	combined, err := NewMatcherDefault().Match(primary, partner)
	require.NoError(t, err)
	assert.True(t, findSpot(combined, "GDI", "B", 1).Colocalized)
	assert.False(t, findSpot(combined, "GDI", "B", 2).Colocalized)
	assert.False(t, findSpot(combined, "GDI", "D", 3).Colocalized)
	assert.False(t, findSpot(combined, "GTPase", "A", 0).Colocalized)
}

func TestMatchWorkersDeterministic(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	primarySpots := make([]Spot, 0)
	partnerSpots := make([]Spot, 0)
	for frame := 0; frame < 60; frame++ {
		for k := 0; k < 8; k++ {
			primarySpots = append(primarySpots, testSpot("GTPase", fmt.Sprintf("P%d", k), frame, rnd.Float64()*3, rnd.Float64()*3))
			partnerSpots = append(partnerSpots, testSpot("GDI", fmt.Sprintf("Q%d", k), frame, rnd.Float64()*3, rnd.Float64()*3))
		}
	}
	primary := testTable(primarySpots...)
	partner := testTable(partnerSpots...)

	for _, algorithm := range []PairingAlgorithm{PairingAll, PairingGreedy, PairingHungarian} {
		single, err := NewMatcher(0.5, algorithm, 1).Match(primary, partner)
		require.NoError(t, err)
		parallel, err := NewMatcher(0.5, algorithm, 8).Match(primary, partner)
		require.NoError(t, err)
		assert.Equal(t, single.Spots, parallel.Spots, algorithm.String())
	}
}

func TestMatchEmpty(t *testing.T) {
	primary := testTable(testSpot("GTPase", "A", 0, 1, 1))
	partner := testTable()
	combined, err := NewMatcherDefault().Match(primary, partner)
	require.NoError(t, err)
	require.Len(t, combined.Spots, 1)
	assert.False(t, combined.Spots[0].Colocalized)
}
