package coloc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Ratio is a statistic that may be undefined (rendered as NA)
type Ratio struct {
	Value float64
	Valid bool
}

func validRatio(value float64) Ratio {
	return Ratio{Value: value, Valid: true}
}

// Format renders ratio with fmt verb or NA
func (r Ratio) Format(verb string) string {
	if !r.Valid {
		return "NA"
	}
	return fmt.Sprintf(verb, r.Value)
}

// ChannelSummary holds track statistics of a single channel
type ChannelSummary struct {
	Channel           string
	TotalTracks       int
	ColocalizedTracks int
	// Share of all tracks that were colocalized, percent
	PercentColocalized Ratio
	// Distinct tracks per second per squared length unit
	LandingRate             Ratio
	MeanColocalizedFraction Ratio
	Categories              map[Annotation]int
	// Share of colocalized tracks in category, percent
	CategoryPercent map[Annotation]Ratio
}

// Summary holds run statistics of both channels
type Summary struct {
	Source  string
	Primary ChannelSummary
	Partner ChannelSummary
}

// Summarize computes track counts, landing rates and annotation categories.
// all is the combined table before track level filtering, subset is the final
// annotated table. A channel without tracks yields EmptyChannelError unless
// config.AllowEmptyChannel is set, then its statistics are NA.
func Summarize(all, subset *Table, config Config, source string) (Summary, error) {
	summary := Summary{Source: source}
	fov := config.FieldOfView()
	frames := all.FrameCount()
	var err error
	summary.Primary, err = summarizeChannel(all, subset, config.PrimaryChannel, frames, config.TimeResolution, fov.Area())
	if err != nil && !config.AllowEmptyChannel {
		return summary, errors.Wrap(err, "Can't summarize primary channel")
	}
	summary.Partner, err = summarizeChannel(all, subset, config.PartnerChannel, frames, config.TimeResolution, fov.Area())
	if err != nil && !config.AllowEmptyChannel {
		return summary, errors.Wrap(err, "Can't summarize partner channel")
	}
	return summary, nil
}

// LandingRate returns number of tracks per second per squared length unit
func LandingRate(tracks, frames int, timeResolution, area float64) float64 {
	return float64(tracks) / (float64(frames) * timeResolution * area)
}

func summarizeChannel(all, subset *Table, channel string, frames int, timeResolution, area float64) (ChannelSummary, error) {
	cs := ChannelSummary{
		Channel:         channel,
		Categories:      make(map[Annotation]int),
		CategoryPercent: make(map[Annotation]Ratio),
	}
	cs.TotalTracks = len(all.PseudoTrackIDs(channel))

	categories := make(map[string]Annotation)
	fractions := make(map[string]float64)
	for i := range subset.Spots {
		spot := &subset.Spots[i]
		if spot.Channel != channel {
			continue
		}
		categories[spot.PseudoTrackID] = spot.TrackAnnotation
		fractions[spot.PseudoTrackID] = spot.Track.ColocalizedFrameFraction()
	}
	cs.ColocalizedTracks = len(categories)
	for _, annotation := range categories {
		cs.Categories[annotation]++
	}
	for _, annotation := range Annotations {
		if cs.ColocalizedTracks > 0 {
			cs.CategoryPercent[annotation] = validRatio(float64(cs.Categories[annotation]) / float64(cs.ColocalizedTracks) * 100)
		} else {
			cs.CategoryPercent[annotation] = Ratio{}
		}
	}
	if len(fractions) > 0 {
		values := make([]float64, 0, len(fractions))
		for _, id := range sortedKeys(fractions) {
			values = append(values, fractions[id])
		}
		cs.MeanColocalizedFraction = validRatio(stat.Mean(values, nil))
	}

	if cs.TotalTracks == 0 {
		return cs, &EmptyChannelError{Channel: channel, Statistic: "percent colocalized and landing rate"}
	}
	cs.PercentColocalized = validRatio(float64(cs.ColocalizedTracks) / float64(cs.TotalTracks) * 100)
	cs.LandingRate = validRatio(LandingRate(cs.TotalTracks, frames, timeResolution, area))
	return cs, nil
}

func categoryName(a Annotation) string {
	return strings.ReplaceAll(a.String(), " ", "_")
}

// Header returns summary column names
func (summary Summary) Header() []string {
	p, q := summary.Primary.Channel, summary.Partner.Channel
	header := []string{
		"File_Name",
		p + "_Count", q + "_Count",
		"Colocalized_" + p + "_Count", "Colocalized_" + q + "_Count",
		"Percent_Colocalized_" + p, "Percent_Colocalized_" + q,
		p + "_Landing_Rate", q + "_Landing_Rate",
		"Mean_Colocalized_Fraction_" + p, "Mean_Colocalized_Fraction_" + q,
	}
	for _, cs := range []ChannelSummary{summary.Primary, summary.Partner} {
		for _, annotation := range Annotations {
			header = append(header,
				cs.Channel+"_"+categoryName(annotation)+"_Count",
				cs.Channel+"_"+categoryName(annotation)+"_Percent",
			)
		}
	}
	return header
}

// Values returns summary values aligned with Header
func (summary Summary) Values() []string {
	p, q := summary.Primary, summary.Partner
	values := []string{
		summary.Source,
		strconv.Itoa(p.TotalTracks), strconv.Itoa(q.TotalTracks),
		strconv.Itoa(p.ColocalizedTracks), strconv.Itoa(q.ColocalizedTracks),
		p.PercentColocalized.Format("%.2f"), q.PercentColocalized.Format("%.2f"),
		p.LandingRate.Format("%.2E"), q.LandingRate.Format("%.2E"),
		p.MeanColocalizedFraction.Format("%.3f"), q.MeanColocalizedFraction.Format("%.3f"),
	}
	for _, cs := range []ChannelSummary{p, q} {
		for _, annotation := range Annotations {
			values = append(values,
				strconv.Itoa(cs.Categories[annotation]),
				cs.CategoryPercent[annotation].Format("%.2f"),
			)
		}
	}
	return values
}
