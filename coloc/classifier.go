package coloc

import (
	"sort"
)

// Classification tells whether a colocalization is a recruitment and/or an extraction event.
// Neither flag set means internal colocalization.
type Classification struct {
	Recruitment bool
	Extraction  bool
}

// Classifier decides recruitment/extraction of colocalizations relative to the
// lifetime of the anchor (primary channel) track.
type Classifier struct {
	// Matches starting less than recruitmentFrames after track start are recruitments. Default 3
	recruitmentFrames int
	// Matches ending less than extractionFrames before track end are extractions. Default 3
	extractionFrames int
	primaryChannel   string
	partnerChannel   string
}

// NewClassifierDefault creates default instance of Classifier
func NewClassifierDefault() *Classifier {
	return &Classifier{
		recruitmentFrames: 3,
		extractionFrames:  3,
		primaryChannel:    "GTPase",
		partnerChannel:    "GDI",
	}
}

// NewClassifier creates new instance of Classifier from configuration
func NewClassifier(config Config) *Classifier {
	return &Classifier{
		recruitmentFrames: config.RecruitmentFrames,
		extractionFrames:  config.ExtractionFrames,
		primaryChannel:    config.PrimaryChannel,
		partnerChannel:    config.PartnerChannel,
	}
}

// matchedSpan collects anchor track frames carrying a single colocalization id
type matchedSpan struct {
	first int
	last  int
}

// Classify classifies every colocalization id seen on partner channel spots.
// Ids whose anchor track carries no spots with that id resolve to neither
// category and are reported as warnings.
func (classifier *Classifier) Classify(table *Table) (map[ColocID]Classification, []OrphanTrackWarning) {
	ids := make(map[ColocID]struct{})
	anchorSpans := make(map[string]Span)
	matched := make(map[ColocID]matchedSpan)
	for i := range table.Spots {
		spot := &table.Spots[i]
		switch spot.Channel {
		case classifier.partnerChannel:
			if !spot.ColocID.IsZero() {
				ids[spot.ColocID] = struct{}{}
			}
		case classifier.primaryChannel:
			span, ok := anchorSpans[spot.PseudoTrackID]
			if !ok {
				span = Span{Start: spot.Frame, End: spot.Frame}
			}
			span.Start = minInt(span.Start, spot.Frame)
			span.End = maxInt(span.End, spot.Frame)
			anchorSpans[spot.PseudoTrackID] = span

			if spot.ColocID.IsZero() || spot.ColocID.Anchor != spot.PseudoTrackID {
				continue
			}
			ms, ok := matched[spot.ColocID]
			if !ok {
				ms = matchedSpan{first: spot.Frame, last: spot.Frame}
			}
			ms.first = minInt(ms.first, spot.Frame)
			ms.last = maxInt(ms.last, spot.Frame)
			matched[spot.ColocID] = ms
		}
	}

	sortedIDs := make([]ColocID, 0, len(ids))
	for id := range ids {
		sortedIDs = append(sortedIDs, id)
	}
	sort.Slice(sortedIDs, func(i, j int) bool {
		if sortedIDs[i].Anchor != sortedIDs[j].Anchor {
			return sortedIDs[i].Anchor < sortedIDs[j].Anchor
		}
		return sortedIDs[i].Partner < sortedIDs[j].Partner
	})

	classes := make(map[ColocID]Classification, len(sortedIDs))
	warnings := make([]OrphanTrackWarning, 0)
	for _, id := range sortedIDs {
		span, okSpan := anchorSpans[id.Anchor]
		ms, okMatched := matched[id]
		if !okSpan || !okMatched {
			classes[id] = Classification{}
			warnings = append(warnings, OrphanTrackWarning{ID: id})
			continue
		}
		classes[id] = Classification{
			Recruitment: ms.first-span.Start < classifier.recruitmentFrames,
			Extraction:  span.End-ms.last < classifier.extractionFrames,
		}
	}
	return classes, warnings
}

// Annotate returns copy of table with spot and track annotations set.
// Spot level: extraction is applied first and recruitment second, so a spot
// qualifying for both ends up as recruitment.
// Track level: a track is annotated from the ids it takes part in, separately per channel.
func (classifier *Classifier) Annotate(table *Table, classes map[ColocID]Classification) *Table {
	recruitmentTracks := make(map[TrackKey]struct{})
	extractionTracks := make(map[TrackKey]struct{})
	for id, class := range classes {
		anchorKey := TrackKey{PseudoTrackID: id.Anchor, Channel: classifier.primaryChannel}
		partnerKey := TrackKey{PseudoTrackID: id.Partner, Channel: classifier.partnerChannel}
		if class.Recruitment {
			recruitmentTracks[anchorKey] = struct{}{}
			recruitmentTracks[partnerKey] = struct{}{}
		}
		if class.Extraction {
			extractionTracks[anchorKey] = struct{}{}
			extractionTracks[partnerKey] = struct{}{}
		}
	}

	annotated := table.Clone()
	for i := range annotated.Spots {
		spot := &annotated.Spots[i]
		spot.SpotAnnotation = AnnotationNone
		if class, ok := classes[spot.ColocID]; ok && !spot.ColocID.IsZero() {
			if class.Extraction {
				spot.SpotAnnotation = AnnotationExtraction
			}
			if class.Recruitment {
				spot.SpotAnnotation = AnnotationRecruitment
			}
		}
		_, recruited := recruitmentTracks[spot.Key()]
		_, extracted := extractionTracks[spot.Key()]
		switch {
		case recruited && extracted:
			spot.TrackAnnotation = AnnotationRecruitmentAndExtraction
		case recruited:
			spot.TrackAnnotation = AnnotationRecruitment
		case extracted:
			spot.TrackAnnotation = AnnotationExtraction
		default:
			spot.TrackAnnotation = AnnotationNone
		}
	}
	return annotated
}
