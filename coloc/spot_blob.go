package coloc

import (
	"math"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// trackBlob is an open track while linking untracked spots. Its center is smoothed
// by a 2D Kalman filter and the predicted position is used for matching.
type trackBlob struct {
	currentCenter         Point
	predictedNextPosition Point
	// Indices of linked spots within the linked table
	spots        []int
	noMatchTimes int
	tracker      *kalman_filter.Kalman2D
}

func newTrackBlob(center Point, spotIdx int, dt float64) *trackBlob {
	/* Kalman filter props. Diffusing spots have no preferred direction, so no control input */
	ux := 0.0
	uy := 0.0
	stdDevA := 2.0
	stdDevMx := 0.1
	stdDevMy := 0.1
	kf := kalman_filter.NewKalman2D(dt, ux, uy, stdDevA, stdDevMx, stdDevMy, kalman_filter.WithState2D(center.X, center.Y))
	blob := trackBlob{
		currentCenter:         center,
		predictedNextPosition: center,
		spots:                 make([]int, 0, 16),
		noMatchTimes:          0,
		tracker:               kf,
	}
	blob.spots = append(blob.spots, spotIdx)
	return &blob
}

// PredictNextPosition execute Kalman filter's first step but without re-evaluating state vector based on Kalman gain
func (blob *trackBlob) PredictNextPosition() {
	blob.tracker.Predict()
	stateX, stateY := blob.tracker.GetState()
	blob.predictedNextPosition.X = stateX
	blob.predictedNextPosition.Y = stateY
}

// DistanceTo returns the smaller of distances from current and predicted center
func (blob *trackBlob) DistanceTo(p Point) float64 {
	dist := euclideanDistance(blob.currentCenter, p)
	distPredicted := euclideanDistance(blob.predictedNextPosition, p)
	return math.Min(dist, distPredicted)
}

// Update links spot to blob and execute Kalman filter's second step (evalute state vector based on Kalman gain)
func (blob *trackBlob) Update(center Point, spotIdx int) error {
	err := blob.tracker.Update(center.X, center.Y)
	if err != nil {
		return errors.Wrap(err, "Can't update object tracker")
	}
	stateX, stateY := blob.tracker.GetState()
	blob.currentCenter = Point{X: stateX, Y: stateY}
	blob.noMatchTimes = 0
	blob.spots = append(blob.spots, spotIdx)
	return nil
}
