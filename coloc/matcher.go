package coloc

import (
	"runtime"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Matcher finds cross-channel spot pairs closer than the distance cutoff, frame by frame.
type Matcher struct {
	// Colocalization distance cutoff. Default 0.5
	cutoff float64
	// Pairing algorithm within a single frame. Default is PairingAll
	algorithm PairingAlgorithm
	// Size of worker pool. Default is GOMAXPROCS
	workers int
}

// NewMatcherDefault creates default instance of Matcher
func NewMatcherDefault() *Matcher {
	return &Matcher{
		cutoff:    0.5,
		algorithm: PairingAll,
		workers:   runtime.GOMAXPROCS(0),
	}
}

// NewMatcher creates new instance of Matcher. Non-positive workers means GOMAXPROCS
func NewMatcher(cutoff float64, algorithm PairingAlgorithm, workers int) *Matcher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Matcher{
		cutoff:    cutoff,
		algorithm: algorithm,
		workers:   workers,
	}
}

// NewMatcherFromConfig creates Matcher with configured cutoff, pairing and workers
func NewMatcherFromConfig(config Config) (*Matcher, error) {
	algorithm, err := ParsePairing(config.Pairing)
	if err != nil {
		return nil, errors.Wrap(err, "Can't create matcher")
	}
	return NewMatcher(config.Distance, algorithm, config.Workers), nil
}

// frameTask holds indices of both channels' spots of a single frame
type frameTask struct {
	frame   int
	primary []int
	partner []int
}

// Match marks colocalized spots of both tables and returns them combined into a
// single table: primary channel first, each channel ordered by frame and row.
// Frames [0, min(last primary frame, last partner frame)] are scanned. Spots outside
// this range or in frames lacking the other channel stay non-colocalized.
// Input tables are not modified.
func (matcher *Matcher) Match(primary, partner *Table) (*Table, error) {
	primaryOut := primary.Clone()
	partnerOut := partner.Clone()
	resetColocalization(primaryOut)
	resetColocalization(partnerOut)

	tasks := frameTasks(primaryOut, partnerOut)
	results := make([][][2]int, len(tasks))

	group := errgroup.Group{}
	group.SetLimit(matcher.workers)
	for t := range tasks {
		task := tasks[t]
		// Each worker owns private copies of its frame positions and writes only its own slot
		primaryPoints := make([]Point, len(task.primary))
		for i, idx := range task.primary {
			primaryPoints[i] = primaryOut.Spots[idx].Point
		}
		partnerPoints := make([]Point, len(task.partner))
		for i, idx := range task.partner {
			partnerPoints[i] = partnerOut.Spots[idx].Point
		}
		slot := t
		group.Go(func() error {
			results[slot] = pairFrame(matcher.algorithm, primaryPoints, partnerPoints, matcher.cutoff)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, errors.Wrap(err, "Can't match spots")
	}

	// Apply results in frame order. A spot matched more than once keeps the last id
	for t, task := range tasks {
		for _, pair := range results[t] {
			primarySpot := &primaryOut.Spots[task.primary[pair[0]]]
			partnerSpot := &partnerOut.Spots[task.partner[pair[1]]]
			id := ColocID{Anchor: primarySpot.PseudoTrackID, Partner: partnerSpot.PseudoTrackID}
			primarySpot.Colocalized = true
			primarySpot.ColocID = id
			partnerSpot.Colocalized = true
			partnerSpot.ColocID = id
		}
	}

	combined := Concat(primaryOut, partnerOut)
	if len(combined.Spots) > 0 {
		combined.SortSpots(map[string]int{
			primaryOut.channelName(): 0,
			partnerOut.channelName(): 1,
		})
	}
	return combined, nil
}

func resetColocalization(table *Table) {
	for i := range table.Spots {
		table.Spots[i].Colocalized = false
		table.Spots[i].ColocID = ColocID{}
	}
}

// channelName returns channel of the first spot. Tables passed to Match are single channel
func (table *Table) channelName() string {
	if len(table.Spots) == 0 {
		return ""
	}
	return table.Spots[0].Channel
}

func frameTasks(primary, partner *Table) []frameTask {
	lastFrame := minInt(primary.MaxFrame(), partner.MaxFrame())
	if lastFrame < 0 {
		return []frameTask{}
	}
	primaryByFrame := indexByFrame(primary, lastFrame)
	partnerByFrame := indexByFrame(partner, lastFrame)
	frames := make([]int, 0, len(primaryByFrame))
	for frame := range primaryByFrame {
		// Skip frames that do not have spots in both channels
		if _, ok := partnerByFrame[frame]; ok {
			frames = append(frames, frame)
		}
	}
	sort.Ints(frames)
	tasks := make([]frameTask, len(frames))
	for i, frame := range frames {
		tasks[i] = frameTask{
			frame:   frame,
			primary: primaryByFrame[frame],
			partner: partnerByFrame[frame],
		}
	}
	return tasks
}

func indexByFrame(table *Table, lastFrame int) map[int][]int {
	byFrame := make(map[int][]int)
	for i := range table.Spots {
		frame := table.Spots[i].Frame
		if frame > lastFrame {
			continue
		}
		byFrame[frame] = append(byFrame[frame], i)
	}
	return byFrame
}
