package coloc

// TrackStatistics computes frame counts for every (pseudo-track, channel) group
func TrackStatistics(table *Table) map[TrackKey]TrackStats {
	stats := make(map[TrackKey]TrackStats)
	for i := range table.Spots {
		spot := &table.Spots[i]
		key := spot.Key()
		ts := stats[key]
		ts.TotalFrameCount++
		if spot.Colocalized {
			ts.ColocalizedFrameCount++
		}
		stats[key] = ts
	}
	return stats
}

// ColocalizedTracks returns spots of tracks having at least one colocalized spot.
// Each spot gets its track frame counts attached.
func ColocalizedTracks(combined *Table) *Table {
	stats := TrackStatistics(combined)
	subset := combined.filter(func(spot *Spot) bool {
		return stats[spot.Key()].ColocalizedFrameCount > 0
	})
	for i := range subset.Spots {
		subset.Spots[i].Track = stats[subset.Spots[i].Key()]
	}
	return subset
}

// FilterPartnerTracks keeps colocalizations whose partner channel track passes the
// configured filter. Both the partner track and its anchor track are kept or removed together.
func FilterPartnerTracks(table *Table, config Config) *Table {
	var accept func(ts TrackStats) bool
	switch config.FilterMode {
	case FilterFreeFrames:
		accept = func(ts TrackStats) bool {
			return ts.FreeFrameCount() <= config.FreeFrames
		}
	case FilterColocalizedFraction:
		accept = func(ts TrackStats) bool {
			return ts.ColocalizedFrameFraction() >= config.ColocalizedFraction
		}
	default:
		return table.Clone()
	}

	anchors := make(map[string]struct{})
	partners := make(map[string]struct{})
	for i := range table.Spots {
		spot := &table.Spots[i]
		if spot.Channel != config.PartnerChannel || spot.ColocID.IsZero() {
			continue
		}
		if accept(spot.Track) {
			anchors[spot.ColocID.Anchor] = struct{}{}
			partners[spot.ColocID.Partner] = struct{}{}
		}
	}
	return table.filter(func(spot *Spot) bool {
		switch spot.Channel {
		case config.PrimaryChannel:
			_, ok := anchors[spot.PseudoTrackID]
			return ok
		case config.PartnerChannel:
			_, ok := partners[spot.PseudoTrackID]
			return ok
		default:
			return false
		}
	})
}
