package coloc

import (
	"sort"
)

// Annotation is the recruitment/extraction category of a spot or a track
type Annotation uint16

const (
	AnnotationNone Annotation = iota
	AnnotationRecruitment
	AnnotationExtraction
	AnnotationRecruitmentAndExtraction
)

var annotationNames = [...]string{
	AnnotationNone:                     "None",
	AnnotationRecruitment:              "Recruitment",
	AnnotationExtraction:               "Extraction",
	AnnotationRecruitmentAndExtraction: "Recruitment and Extraction",
}

func (a Annotation) String() string {
	if int(a) < len(annotationNames) {
		return annotationNames[a]
	}
	return "None"
}

// Annotations lists track categories in report order
var Annotations = []Annotation{
	AnnotationRecruitment,
	AnnotationExtraction,
	AnnotationRecruitmentAndExtraction,
	AnnotationNone,
}

// ColocID identifies a colocalization by the pseudo-track ids of both sides.
// Anchor belongs to the primary channel, Partner to the partner channel.
type ColocID struct {
	Anchor  string
	Partner string
}

// IsZero reports whether the spot carries no colocalization
func (id ColocID) IsZero() bool {
	return id.Anchor == "" && id.Partner == ""
}

// String joins both ids. Only used at output boundary: ids may contain dashes themselves.
func (id ColocID) String() string {
	if id.IsZero() {
		return ""
	}
	return id.Anchor + "-" + id.Partner
}

// TrackKey identifies a pseudo-track within a channel
type TrackKey struct {
	PseudoTrackID string
	Channel       string
}

// TrackStats holds frame counts of a single pseudo-track
type TrackStats struct {
	TotalFrameCount       int
	ColocalizedFrameCount int
}

// FreeFrameCount returns number of frames where the track was not colocalized
func (ts TrackStats) FreeFrameCount() int {
	return ts.TotalFrameCount - ts.ColocalizedFrameCount
}

// ColocalizedFrameFraction returns share of colocalized frames. Zero for empty stats
func (ts TrackStats) ColocalizedFrameFraction() float64 {
	if ts.TotalFrameCount == 0 {
		return 0
	}
	return float64(ts.ColocalizedFrameCount) / float64(ts.TotalFrameCount)
}

// Spot is a single detected particle in a single frame of a single channel.
type Spot struct {
	// Stable ingestion index within source table. Match results are written by it
	Row   int
	Frame int
	Point Point
	// Empty when the spot is not linked into any track ("None" in files)
	TrackID       string
	Label         string
	PseudoTrackID string
	Channel       string
	// Source record, aligned with Table.Columns
	Values []string

	Colocalized bool
	ColocID     ColocID

	Track           TrackStats
	SpotAnnotation  Annotation
	TrackAnnotation Annotation
}

// Key returns the spot's track key
func (spot *Spot) Key() TrackKey {
	return TrackKey{PseudoTrackID: spot.PseudoTrackID, Channel: spot.Channel}
}

// Table is an ordered set of spots sharing one column layout
type Table struct {
	// Source file columns in file order
	Columns []string
	Spots   []Spot
}

// Clone returns a deep enough copy: spots are copied, source values are shared (read only)
func (table *Table) Clone() *Table {
	spots := make([]Spot, len(table.Spots))
	copy(spots, table.Spots)
	return &Table{
		Columns: table.Columns,
		Spots:   spots,
	}
}

// filter returns new table containing spots accepted by keep
func (table *Table) filter(keep func(spot *Spot) bool) *Table {
	spots := make([]Spot, 0, len(table.Spots))
	for i := range table.Spots {
		if keep(&table.Spots[i]) {
			spots = append(spots, table.Spots[i])
		}
	}
	return &Table{
		Columns: table.Columns,
		Spots:   spots,
	}
}

// Channel returns spots of a single channel
func (table *Table) Channel(channel string) *Table {
	return table.filter(func(spot *Spot) bool {
		return spot.Channel == channel
	})
}

// MaxFrame returns the largest frame number. -1 for empty table
func (table *Table) MaxFrame() int {
	maxFrame := -1
	for i := range table.Spots {
		maxFrame = maxInt(maxFrame, table.Spots[i].Frame)
	}
	return maxFrame
}

// FrameCount returns number of frames between first and last spot inclusive
func (table *Table) FrameCount() int {
	if len(table.Spots) == 0 {
		return 0
	}
	minFrame := table.Spots[0].Frame
	maxFrame := table.Spots[0].Frame
	for i := range table.Spots {
		minFrame = minInt(minFrame, table.Spots[i].Frame)
		maxFrame = maxInt(maxFrame, table.Spots[i].Frame)
	}
	return maxFrame - minFrame + 1
}

// PseudoTrackIDs returns distinct pseudo-track ids of a channel
func (table *Table) PseudoTrackIDs(channel string) map[string]struct{} {
	ids := make(map[string]struct{})
	for i := range table.Spots {
		if table.Spots[i].Channel == channel {
			ids[table.Spots[i].PseudoTrackID] = struct{}{}
		}
	}
	return ids
}

// Span is inclusive frame range of a pseudo-track
type Span struct {
	Start int
	End   int
}

// Length returns number of frames covered by span
func (s Span) Length() int {
	return s.End - s.Start + 1
}

// Spans computes frame spans of every pseudo-track in table
func (table *Table) Spans() map[TrackKey]Span {
	spans := make(map[TrackKey]Span)
	for i := range table.Spots {
		spot := &table.Spots[i]
		key := spot.Key()
		span, ok := spans[key]
		if !ok {
			spans[key] = Span{Start: spot.Frame, End: spot.Frame}
			continue
		}
		span.Start = minInt(span.Start, spot.Frame)
		span.End = maxInt(span.End, spot.Frame)
		spans[key] = span
	}
	return spans
}

// SortSpots orders spots by channel rank, frame and ingestion row
func (table *Table) SortSpots(channelRank map[string]int) {
	sort.SliceStable(table.Spots, func(i, j int) bool {
		a, b := &table.Spots[i], &table.Spots[j]
		if a.Channel != b.Channel {
			return channelRank[a.Channel] < channelRank[b.Channel]
		}
		if a.Frame != b.Frame {
			return a.Frame < b.Frame
		}
		return a.Row < b.Row
	})
}
