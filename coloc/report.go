package coloc

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Derived columns appended to every output row, in output order
const (
	ColumnPseudoTrackID            = "PSEUDO_TRACK_ID"
	ColumnColocalizedSpot          = "COLOCALIZED_SPOT"
	ColumnColocalizationID         = "COLOCALIZATION_ID"
	ColumnTotalFrameCount          = "TOTAL_FRAME_COUNT"
	ColumnColocalizedFrameCount    = "COLOCALIZED_FRAME_COUNT"
	ColumnFreeFrameCount           = "FREE_FRAME_COUNT"
	ColumnColocalizedFrameFraction = "COLOCALIZED_FRAME_FRACTION"
	ColumnAnnotationSpot           = "ANNOTATION_SPOT"
	ColumnAnnotationTrack          = "ANNOTATION_TRACK"
)

var derivedColumns = []string{
	ColumnPseudoTrackID,
	ColumnColocalizedSpot,
	ColumnColocalizationID,
	ColumnChannel,
	ColumnTotalFrameCount,
	ColumnColocalizedFrameCount,
	ColumnFreeFrameCount,
	ColumnColocalizedFrameFraction,
	ColumnAnnotationSpot,
	ColumnAnnotationTrack,
}

const bannerWidth = 40

// Report is the output of a single analysis run
type Report struct {
	RunID   uuid.UUID
	Inputs  []string
	Config  Config
	Summary Summary
	Table   *Table
}

// WriteTo renders metadata block, summary block and spot table
func (report *Report) WriteTo(w io.Writer) (int64, error) {
	buf := bytes.Buffer{}
	buf.WriteString("# " + banner(" Meta-data lines ") + "\n")
	buf.WriteString("# run_id: " + report.RunID.String() + "\n")
	for _, input := range report.Inputs {
		buf.WriteString("# input: " + input + "\n")
	}
	for _, entry := range report.Config.Entries() {
		buf.WriteString("# " + entry.Key + ": " + entry.Value + "\n")
	}
	buf.WriteString("# " + banner(" Summary lines ") + "\n")
	for _, record := range [][]string{report.Summary.Header(), report.Summary.Values()} {
		line, err := commentRecord(record)
		if err != nil {
			return 0, errors.Wrap(err, "Can't render summary")
		}
		buf.WriteString(line)
	}
	buf.WriteString("# " + banner(" Colocalization data lines ") + "\n")
	if err := writeSpotTable(&buf, report.Table); err != nil {
		return 0, errors.Wrap(err, "Can't render spot table")
	}
	return buf.WriteTo(w)
}

// WriteReportFile renders report completely in memory and writes it to path.
// Nothing is written when rendering fails.
func WriteReportFile(path string, report *Report) error {
	buf := bytes.Buffer{}
	if _, err := report.WriteTo(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "Can't write report %s", path)
	}
	return nil
}

// commentRecord quotes record as a CSV line and prefixes it with "# "
func commentRecord(record []string) (string, error) {
	line := bytes.Buffer{}
	line.WriteString("# ")
	writer := csv.NewWriter(&line)
	if err := writer.Write(record); err != nil {
		return "", err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return line.String(), nil
}

func banner(title string) string {
	if len(title) >= bannerWidth {
		return title
	}
	pad := bannerWidth - len(title)
	left := pad / 2
	return strings.Repeat("=", left) + title + strings.Repeat("=", pad-left)
}

func writeSpotTable(w io.Writer, table *Table) error {
	derived := make(map[string]struct{}, len(derivedColumns))
	for _, column := range derivedColumns {
		derived[column] = struct{}{}
	}
	passThrough := make([]int, 0, len(table.Columns))
	header := make([]string, 0, len(table.Columns)+len(derivedColumns))
	for i, column := range table.Columns {
		if _, ok := derived[column]; ok {
			continue
		}
		passThrough = append(passThrough, i)
		header = append(header, column)
	}
	header = append(header, derivedColumns...)
	floats := floatColumns(table)

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for i := range table.Spots {
		spot := &table.Spots[i]
		for k, idx := range passThrough {
			record[k] = spotValue(spot, table.Columns[idx], idx, floats[idx])
		}
		k := len(passThrough)
		record[k] = spot.PseudoTrackID
		record[k+1] = titleBool(spot.Colocalized)
		record[k+2] = spot.ColocID.String()
		record[k+3] = spot.Channel
		record[k+4] = strconv.Itoa(spot.Track.TotalFrameCount)
		record[k+5] = strconv.Itoa(spot.Track.ColocalizedFrameCount)
		record[k+6] = strconv.Itoa(spot.Track.FreeFrameCount())
		record[k+7] = formatFloat(spot.Track.ColocalizedFrameFraction())
		record[k+8] = spot.SpotAnnotation.String()
		record[k+9] = spot.TrackAnnotation.String()
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func spotValue(spot *Spot, column string, idx int, isFloat bool) string {
	switch column {
	case ColumnFrame:
		return strconv.Itoa(spot.Frame)
	case ColumnPositionX:
		return formatFloat(spot.Point.X)
	case ColumnPositionY:
		return formatFloat(spot.Point.Y)
	case ColumnTrackID:
		if spot.TrackID == "" {
			return NoTrack
		}
		return spot.TrackID
	}
	if idx >= len(spot.Values) {
		return ""
	}
	value := spot.Values[idx]
	if isFloat {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return formatFloat(f)
		}
	}
	return value
}

// floatColumns marks source columns holding real numbers: every non-empty value
// parses as float and at least one is not written as an integer
func floatColumns(table *Table) []bool {
	floats := make([]bool, len(table.Columns))
	for idx := range table.Columns {
		sawFraction := false
		numeric := true
		for i := range table.Spots {
			values := table.Spots[i].Values
			if idx >= len(values) {
				continue
			}
			value := strings.TrimSpace(values[idx])
			if value == "" {
				continue
			}
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				numeric = false
				break
			}
			if strings.ContainsAny(value, ".eE") {
				sawFraction = true
			}
		}
		floats[idx] = numeric && sawFraction
	}
	return floats
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}

func titleBool(value bool) string {
	if value {
		return "True"
	}
	return "False"
}
