package coloc

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Linker links untracked spots of a single channel into tracks: naive nearest-first
// multi-object tracking over Kalman predicted positions.
type Linker struct {
	// Max distance between predicted position and new spot. Default 0.5
	maxDistance float64
	// Max number of frames a track may miss before it is closed. Default 2
	maxGap int
	// Time step of Kalman filter in frames. Default 1.0
	dt float64
}

// NewLinkerDefault creates default instance of Linker
func NewLinkerDefault() *Linker {
	return &Linker{
		maxDistance: 0.5,
		maxGap:      2,
		dt:          1.0,
	}
}

// NewLinker creates new instance of Linker
func NewLinker(maxDistance float64, maxGap int) *Linker {
	return &Linker{
		maxDistance: maxDistance,
		maxGap:      maxGap,
		dt:          1.0,
	}
}

// Link returns copy of table where untracked spots forming tracks of at least two
// spots get TRACK_ID "L<n>". Numbering follows track creation order (frame, row).
// Spots already linked by the tracking software are left untouched.
func (linker *Linker) Link(table *Table) (*Table, error) {
	linked := table.Clone()
	byFrame := make(map[int][]int)
	for i := range linked.Spots {
		if linked.Spots[i].TrackID == "" {
			byFrame[linked.Spots[i].Frame] = append(byFrame[linked.Spots[i].Frame], i)
		}
	}
	if len(byFrame) == 0 {
		return linked, nil
	}
	frames := make([]int, 0, len(byFrame))
	for frame := range byFrame {
		frames = append(frames, frame)
	}
	sort.Ints(frames)

	// Creation ordered storage. Closed blobs stay here but are not matched anymore
	objects := make([]*trackBlob, 0)
	open := make([]int, 0)
	for step, f := range frames {
		newSpots := byFrame[f]
		if step > 0 {
			open = linker.skipFrames(objects, open, f-frames[step-1]-1)
		}
		for _, objectIdx := range open {
			objects[objectIdx].PredictNextPosition()
		}
		priorityQueue := make(distanceHeap, 0)
		for i, spotIdx := range newSpots {
			point := linked.Spots[spotIdx].Point
			for k, objectIdx := range open {
				dist := objects[objectIdx].DistanceTo(point)
				if dist <= linker.maxDistance {
					priorityQueue.Push(&candidatePair{left: i, right: k, distance: dist})
				}
			}
		}

		// We need to prevent double update of objects
		reservedObjects := make(map[int]struct{})
		usedSpots := make(map[int]struct{})
		for priorityQueue.Len() > 0 {
			candidate := priorityQueue.Pop()
			if _, ok := usedSpots[candidate.left]; ok {
				continue
			}
			if _, ok := reservedObjects[candidate.right]; ok {
				continue
			}
			spotIdx := newSpots[candidate.left]
			err := objects[open[candidate.right]].Update(linked.Spots[spotIdx].Point, spotIdx)
			if err != nil {
				return nil, errors.Wrapf(err, "Can't link spot at frame %d", f)
			}
			usedSpots[candidate.left] = struct{}{}
			reservedObjects[candidate.right] = struct{}{}
		}

		// Clean up existing data
		stillOpen := make([]int, 0, len(open))
		for k, objectIdx := range open {
			if _, ok := reservedObjects[k]; !ok {
				objects[objectIdx].noMatchTimes++
			}
			// Close object if it was not found for a long time
			if objects[objectIdx].noMatchTimes <= linker.maxGap {
				stillOpen = append(stillOpen, objectIdx)
			}
		}
		open = stillOpen

		// Otherwise register spots as new objects
		for i, spotIdx := range newSpots {
			if _, ok := usedSpots[i]; ok {
				continue
			}
			objects = append(objects, newTrackBlob(linked.Spots[spotIdx].Point, spotIdx, linker.dt))
			open = append(open, len(objects)-1)
		}
	}

	n := 0
	for _, object := range objects {
		if len(object.spots) < 2 {
			continue
		}
		n++
		trackID := fmt.Sprintf("L%d", n)
		for _, spotIdx := range object.spots {
			linked.Spots[spotIdx].TrackID = trackID
			linked.Spots[spotIdx].PseudoTrackID = trackID
		}
	}
	return linked, nil
}

// skipFrames accounts for frames without untracked spots: every open object misses
// them all. Objects exceeding max gap are closed, the rest keep predicting.
func (linker *Linker) skipFrames(objects []*trackBlob, open []int, gap int) []int {
	if gap <= 0 {
		return open
	}
	stillOpen := make([]int, 0, len(open))
	for _, objectIdx := range open {
		object := objects[objectIdx]
		if object.noMatchTimes+gap > linker.maxGap {
			continue
		}
		for i := 0; i < gap; i++ {
			object.PredictNextPosition()
		}
		object.noMatchTimes += gap
		stillOpen = append(stillOpen, objectIdx)
	}
	return stillOpen
}
