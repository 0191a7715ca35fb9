package coloc

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// EventProbability holds colocalization probabilities near start, near end and
// inside of a single primary channel track
type EventProbability struct {
	PseudoTrackID string
	TrackLength   int

	RecruitmentEvents int
	RecruitmentFrames int
	Recruitment       Ratio

	ExtractionEvents int
	ExtractionFrames int
	Extraction       Ratio

	InternalEvents int
	InternalFrames int
	Internal       Ratio
}

// EventProbabilities is per track probabilities plus their means
type EventProbabilities struct {
	Tracks          []EventProbability
	MeanRecruitment Ratio
	MeanExtraction  Ratio
	MeanInternal    Ratio
}

// ComputeEventProbabilities evaluates primary channel tracks spanning at least
// config.MinTrackLength frames. Recruitment probability is the number of colocalized
// spots within the first RecruitmentFrames frames divided by RecruitmentFrames,
// extraction likewise for the last ExtractionFrames frames. Internal probability is
// the colocalized share of spots in between, NA when there are none.
func ComputeEventProbabilities(table *Table, config Config) EventProbabilities {
	primary := table.Channel(config.PrimaryChannel)
	spans := primary.Spans()
	byTrack := make(map[string]*EventProbability)
	for i := range primary.Spots {
		spot := &primary.Spots[i]
		span := spans[spot.Key()]
		if span.Length() < config.MinTrackLength {
			continue
		}
		ep, ok := byTrack[spot.PseudoTrackID]
		if !ok {
			ep = &EventProbability{PseudoTrackID: spot.PseudoTrackID, TrackLength: span.Length()}
			byTrack[spot.PseudoTrackID] = ep
		}
		colocalized := 0
		if spot.Colocalized {
			colocalized = 1
		}
		if spot.Frame < span.Start+config.RecruitmentFrames {
			ep.RecruitmentFrames++
			ep.RecruitmentEvents += colocalized
		}
		if spot.Frame > span.End-config.ExtractionFrames {
			ep.ExtractionFrames++
			ep.ExtractionEvents += colocalized
		}
		if spot.Frame >= span.Start+config.RecruitmentFrames && spot.Frame <= span.End-config.ExtractionFrames {
			ep.InternalFrames++
			ep.InternalEvents += colocalized
		}
	}

	result := EventProbabilities{Tracks: make([]EventProbability, 0, len(byTrack))}
	recruitment := make([]float64, 0, len(byTrack))
	extraction := make([]float64, 0, len(byTrack))
	internal := make([]float64, 0, len(byTrack))
	ids := make([]string, 0, len(byTrack))
	for id := range byTrack {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		ep := byTrack[id]
		if config.RecruitmentFrames > 0 {
			ep.Recruitment = validRatio(round2(float64(ep.RecruitmentEvents) / float64(config.RecruitmentFrames)))
			recruitment = append(recruitment, ep.Recruitment.Value)
		}
		if config.ExtractionFrames > 0 {
			ep.Extraction = validRatio(round2(float64(ep.ExtractionEvents) / float64(config.ExtractionFrames)))
			extraction = append(extraction, ep.Extraction.Value)
		}
		if ep.InternalFrames > 0 {
			ep.Internal = validRatio(round2(float64(ep.InternalEvents) / float64(ep.InternalFrames)))
			internal = append(internal, ep.Internal.Value)
		}
		result.Tracks = append(result.Tracks, *ep)
	}
	result.MeanRecruitment = meanRatio(recruitment)
	result.MeanExtraction = meanRatio(extraction)
	result.MeanInternal = meanRatio(internal)
	return result
}

func meanRatio(values []float64) Ratio {
	if len(values) == 0 {
		return Ratio{}
	}
	return validRatio(stat.Mean(values, nil))
}

// WriteEventProbabilities writes means as comment lines followed by per track rows
func WriteEventProbabilities(w io.Writer, probs EventProbabilities) error {
	if _, err := fmt.Fprintf(w, "# mean_recruitment: %s\n# mean_extraction: %s\n# mean_internal: %s\n",
		probs.MeanRecruitment.Format("%.3f"), probs.MeanExtraction.Format("%.3f"), probs.MeanInternal.Format("%.3f")); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	err := writer.Write([]string{
		ColumnPseudoTrackID, "TRACK_LENGTH",
		"RECRUITMENT_EVENTS", "RECRUITMENT_FRAMES", "RECRUITMENT_PROBABILITY",
		"EXTRACTION_EVENTS", "EXTRACTION_FRAMES", "EXTRACTION_PROBABILITY",
		"INTERNAL_EVENTS", "INTERNAL_FRAMES", "INTERNAL_PROBABILITY",
	})
	if err != nil {
		return err
	}
	for _, ep := range probs.Tracks {
		err := writer.Write([]string{
			ep.PseudoTrackID, strconv.Itoa(ep.TrackLength),
			strconv.Itoa(ep.RecruitmentEvents), strconv.Itoa(ep.RecruitmentFrames), ep.Recruitment.Format("%.2f"),
			strconv.Itoa(ep.ExtractionEvents), strconv.Itoa(ep.ExtractionFrames), ep.Extraction.Format("%.2f"),
			strconv.Itoa(ep.InternalEvents), strconv.Itoa(ep.InternalFrames), ep.Internal.Format("%.2f"),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// PositionProbability is the colocalization probability of primary channel spots
// observed NormFrame frames after their track start
type PositionProbability struct {
	NormFrame    int
	Probability  float64
	Observations int
	// NormFrame in seconds
	Lifetime float64
}

// ComputePositionProbabilities groups primary channel spots by frame offset from
// their track start. Probability is the colocalized share of spots at an offset,
// rounded to 4 decimals. Rows are ordered by offset.
func ComputePositionProbabilities(table *Table, config Config) []PositionProbability {
	primary := table.Channel(config.PrimaryChannel)
	spans := primary.Spans()
	byOffset := make(map[int]*PositionProbability)
	colocalized := make(map[int]int)
	for i := range primary.Spots {
		spot := &primary.Spots[i]
		offset := spot.Frame - spans[spot.Key()].Start
		pp, ok := byOffset[offset]
		if !ok {
			pp = &PositionProbability{NormFrame: offset}
			byOffset[offset] = pp
		}
		pp.Observations++
		if spot.Colocalized {
			colocalized[offset]++
		}
	}
	offsets := make([]int, 0, len(byOffset))
	for offset := range byOffset {
		offsets = append(offsets, offset)
	}
	sort.Ints(offsets)
	result := make([]PositionProbability, 0, len(offsets))
	for _, offset := range offsets {
		pp := byOffset[offset]
		pp.Probability = round4(float64(colocalized[offset]) / float64(pp.Observations))
		pp.Lifetime = float64(offset) * config.TimeResolution
		result = append(result, *pp)
	}
	return result
}

// WritePositionProbabilities writes position specific probabilities as CSV
func WritePositionProbabilities(w io.Writer, probs []PositionProbability) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{ColumnFrame, "PROBS", "NOBS", "LIFETIME"}); err != nil {
		return err
	}
	for _, pp := range probs {
		err := writer.Write([]string{
			strconv.Itoa(pp.NormFrame),
			strconv.FormatFloat(pp.Probability, 'f', 4, 64),
			strconv.Itoa(pp.Observations),
			strconv.FormatFloat(pp.Lifetime, 'f', 4, 64),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
