package coloc

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Colocalization status values of heat map rows
const (
	StatusNone        = "None"
	StatusInternal    = "Internal"
	StatusRecruitment = "Recruitment"
	StatusExtraction  = "Extraction"
)

// HeatMapRow is a spot positioned relative to start and end of its track
type HeatMapRow struct {
	PseudoTrackID   string
	Channel         string
	Frame           int
	NormStart       int
	NormEnd         int
	TrackLength     int
	Status          string
	TrackAnnotation Annotation
}

// HeatMapRows normalizes every spot frame to its track start (>= 0) and end (<= 0)
func HeatMapRows(table *Table) []HeatMapRow {
	spans := table.Spans()
	rows := make([]HeatMapRow, len(table.Spots))
	for i := range table.Spots {
		spot := &table.Spots[i]
		span := spans[spot.Key()]
		status := StatusNone
		if spot.Colocalized {
			status = StatusInternal
		}
		if spot.SpotAnnotation == AnnotationRecruitment {
			status = StatusRecruitment
		}
		if spot.SpotAnnotation == AnnotationExtraction {
			status = StatusExtraction
		}
		rows[i] = HeatMapRow{
			PseudoTrackID:   spot.PseudoTrackID,
			Channel:         spot.Channel,
			Frame:           spot.Frame,
			NormStart:       spot.Frame - span.Start,
			NormEnd:         spot.Frame - span.End,
			TrackLength:     span.Length(),
			Status:          status,
			TrackAnnotation: spot.TrackAnnotation,
		}
	}
	return rows
}

// WriteHeatMap writes heat map rows as CSV
func WriteHeatMap(w io.Writer, rows []HeatMapRow) error {
	writer := csv.NewWriter(w)
	err := writer.Write([]string{
		ColumnPseudoTrackID, ColumnChannel, ColumnFrame,
		"NORM_START", "NORM_END", "COLOCALIZATION_STATUS", "TRACK_LENGTH", ColumnAnnotationTrack,
	})
	if err != nil {
		return err
	}
	for _, row := range rows {
		err := writer.Write([]string{
			row.PseudoTrackID, row.Channel, strconv.Itoa(row.Frame),
			strconv.Itoa(row.NormStart), strconv.Itoa(row.NormEnd), row.Status,
			strconv.Itoa(row.TrackLength), row.TrackAnnotation.String(),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
