package coloc

// FilterByFrameRange keeps spots with first <= frame < last. Negative bound means unset.
// When first is set, tracks having any spot before it are dropped entirely: their
// unrecorded early history must not look like a recruitment later on.
func FilterByFrameRange(table *Table, first, last int) *Table {
	if first < 0 && last < 0 {
		return table.Clone()
	}
	preexisting := make(map[TrackKey]struct{})
	if first >= 0 {
		for i := range table.Spots {
			if table.Spots[i].Frame < first {
				preexisting[table.Spots[i].Key()] = struct{}{}
			}
		}
	}
	return table.filter(func(spot *Spot) bool {
		if _, ok := preexisting[spot.Key()]; ok {
			return false
		}
		if first >= 0 && spot.Frame < first {
			return false
		}
		if last >= 0 && spot.Frame >= last {
			return false
		}
		return true
	})
}

// FilterControlTracks keeps only tracks having at least one spot at frame <= frameLimit
func FilterControlTracks(table *Table, frameLimit int) *Table {
	control := make(map[TrackKey]struct{})
	for i := range table.Spots {
		if table.Spots[i].Frame <= frameLimit {
			control[table.Spots[i].Key()] = struct{}{}
		}
	}
	return table.filter(func(spot *Spot) bool {
		_, ok := control[spot.Key()]
		return ok
	})
}

// FilterFrames applies control mode or frame range filtering depending on configuration
func FilterFrames(table *Table, config Config) *Table {
	if config.Control {
		return FilterControlTracks(table, config.ControlFrameLimit)
	}
	return FilterByFrameRange(table, config.FirstFrame, config.LastFrame)
}

// FilterByFieldOfView removes spots outside of field of view. With FieldPolicyTrack a
// single excursion disqualifies the whole track.
func FilterByFieldOfView(table *Table, fov FieldOfView, policy string) *Table {
	if policy == FieldPolicySpot {
		return table.filter(func(spot *Spot) bool {
			return fov.Contains(spot.Point)
		})
	}
	outliers := make(map[TrackKey]struct{})
	for i := range table.Spots {
		if !fov.Contains(table.Spots[i].Point) {
			outliers[table.Spots[i].Key()] = struct{}{}
		}
	}
	if len(outliers) == 0 {
		return table.Clone()
	}
	return table.filter(func(spot *Spot) bool {
		_, ok := outliers[spot.Key()]
		return !ok
	})
}

// FilterShortTracks drops tracks whose span is shorter than minLength frames
func FilterShortTracks(table *Table, minLength int) *Table {
	spans := table.Spans()
	return table.filter(func(spot *Spot) bool {
		return spans[spot.Key()].Length() >= minLength
	})
}

// RemoveUntracked drops spots not linked into any track
func RemoveUntracked(table *Table) *Table {
	return table.filter(func(spot *Spot) bool {
		return spot.TrackID != ""
	})
}
