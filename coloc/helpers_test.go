package coloc

import (
	"strconv"
)

var testColumns = []string{ColumnFrame, ColumnPositionX, ColumnPositionY, ColumnTrackID}

func testSpot(channel, trackID string, frame int, x, y float64) Spot {
	values := []string{
		strconv.Itoa(frame),
		strconv.FormatFloat(x, 'f', -1, 64),
		strconv.FormatFloat(y, 'f', -1, 64),
		trackID,
	}
	if trackID == "" {
		values[3] = NoTrack
	}
	return Spot{
		Frame:         frame,
		Point:         NewPoint(x, y),
		TrackID:       trackID,
		PseudoTrackID: trackID,
		Channel:       channel,
		Values:        values,
	}
}

// testTable numbers spot rows in given order
func testTable(spots ...Spot) *Table {
	table := &Table{
		Columns: testColumns,
		Spots:   make([]Spot, len(spots)),
	}
	for i := range spots {
		table.Spots[i] = spots[i]
		table.Spots[i].Row = i
	}
	return table
}

// testTrack creates spots of a still track on frames [from, to]
func testTrack(channel, trackID string, from, to int, x, y float64) []Spot {
	spots := make([]Spot, 0, to-from+1)
	for frame := from; frame <= to; frame++ {
		spots = append(spots, testSpot(channel, trackID, frame, x, y))
	}
	return spots
}

func findSpot(table *Table, channel, pseudoTrackID string, frame int) *Spot {
	for i := range table.Spots {
		spot := &table.Spots[i]
		if spot.Channel == channel && spot.PseudoTrackID == pseudoTrackID && spot.Frame == frame {
			return spot
		}
	}
	return nil
}
