package coloc

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Column names of spot statistics files
const (
	ColumnFrame     = "FRAME"
	ColumnPositionX = "POSITION_X"
	ColumnPositionY = "POSITION_Y"
	ColumnTrackID   = "TRACK_ID"
	ColumnLabel     = "Label"
	ColumnID        = "ID"
	ColumnChannel   = "CHANNEL"
)

// NoTrack is the TRACK_ID value of spots not linked into any track
const NoTrack = "None"

// ReadSpotsFile reads spot table from file. See ReadSpots
func ReadSpotsFile(path, channel string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open spot file %s", path)
	}
	defer file.Close()
	return ReadSpots(file, path, channel)
}

// ReadSpots parses comma separated spot table. Lines starting with '#' are skipped.
// When channel is empty every row must carry CHANNEL column, otherwise channel is
// assigned to all spots. TRACK_ID is always kept as a string.
func ReadSpots(r io.Reader, name, channel string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &MalformedInputError{Path: name, Reason: "no header line"}
	}
	if err != nil {
		return nil, wrapCSVError(name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	index := make(map[string]int, len(header))
	for i, column := range header {
		if _, ok := index[column]; !ok {
			index[column] = i
		}
	}
	required := []string{ColumnFrame, ColumnPositionX, ColumnPositionY, ColumnTrackID}
	if channel == "" {
		required = append(required, ColumnChannel)
	}
	for _, column := range required {
		if _, ok := index[column]; !ok {
			return nil, &MalformedInputError{Path: name, Column: column, Reason: "required column is missing"}
		}
	}

	table := &Table{
		Columns: header,
		Spots:   make([]Spot, 0, 1024),
	}
	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapCSVError(name, err)
		}
		line, _ := reader.FieldPos(0)
		spot, err := parseSpot(record, index, channel)
		if err != nil {
			if malformed, ok := err.(*MalformedInputError); ok {
				malformed.Path = name
				malformed.Line = line
			}
			return nil, err
		}
		spot.Row = row
		table.Spots = append(table.Spots, spot)
	}
	return table, nil
}

func wrapCSVError(name string, err error) error {
	if parseErr, ok := err.(*csv.ParseError); ok {
		return &MalformedInputError{Path: name, Line: parseErr.Line, Reason: parseErr.Err.Error()}
	}
	return errors.Wrapf(err, "Can't read spot table %s", name)
}

func parseSpot(record []string, index map[string]int, channel string) (Spot, error) {
	field := func(column string) (string, bool) {
		idx, ok := index[column]
		if !ok || idx >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[idx]), true
	}

	frameStr, _ := field(ColumnFrame)
	frame, err := parseFrame(frameStr)
	if err != nil {
		return Spot{}, &MalformedInputError{Column: ColumnFrame, Reason: err.Error()}
	}
	xStr, _ := field(ColumnPositionX)
	x, err := parsePosition(xStr)
	if err != nil {
		return Spot{}, &MalformedInputError{Column: ColumnPositionX, Reason: err.Error()}
	}
	yStr, _ := field(ColumnPositionY)
	y, err := parsePosition(yStr)
	if err != nil {
		return Spot{}, &MalformedInputError{Column: ColumnPositionY, Reason: err.Error()}
	}
	trackID, _ := field(ColumnTrackID)
	if trackID == NoTrack {
		trackID = ""
	}
	label, _ := field(ColumnLabel)
	if channel == "" {
		channel, _ = field(ColumnChannel)
		if channel == "" {
			return Spot{}, &MalformedInputError{Column: ColumnChannel, Reason: "empty channel"}
		}
	}
	spotID, _ := field(ColumnID)

	spot := Spot{
		Frame:   frame,
		Point:   NewPoint(x, y),
		TrackID: trackID,
		Label:   label,
		Channel: channel,
		Values:  record,
	}
	spot.PseudoTrackID = pseudoTrackID(trackID, label, spotID)
	return spot, nil
}

// pseudoTrackID picks track id, then label, then spot id. Row based fallback is
// assigned by caller when nothing is available.
func pseudoTrackID(trackID, label, spotID string) string {
	switch {
	case trackID != "":
		return trackID
	case label != "":
		return label
	case spotID != "":
		return "ID" + spotID
	default:
		return ""
	}
}

func parseFrame(value string) (int, error) {
	frame, err := strconv.Atoi(value)
	if err != nil {
		// Some exporters write frames as floats ("12.0")
		f, ferr := strconv.ParseFloat(value, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, fmt.Errorf("can't parse frame %q", value)
		}
		frame = int(f)
	}
	if frame < 0 {
		return 0, fmt.Errorf("negative frame %d", frame)
	}
	return frame, nil
}

func parsePosition(value string) (float64, error) {
	pos, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("can't parse position %q", value)
	}
	switch {
	case math.IsNaN(pos):
		return 0, fmt.Errorf("position %q is not a number", value)
	case math.IsInf(pos, 0):
		return 0, fmt.Errorf("infinite position %q", value)
	case pos < 0:
		return 0, fmt.Errorf("negative position %v", pos)
	}
	return pos, nil
}

// AssignFallbackIDs gives spots without track, label and id a per-row pseudo-track id
func AssignFallbackIDs(table *Table) {
	for i := range table.Spots {
		if table.Spots[i].PseudoTrackID == "" {
			table.Spots[i].PseudoTrackID = fmt.Sprintf("SPOT%d", table.Spots[i].Row)
		}
	}
}

// SplitChannels separates combined table into primary and partner tables.
// Spot rows are renumbered per channel.
func SplitChannels(table *Table, primary, partner string) (*Table, *Table, error) {
	primaryTable := &Table{Columns: table.Columns}
	partnerTable := &Table{Columns: table.Columns}
	for _, spot := range table.Spots {
		switch spot.Channel {
		case primary:
			spot.Row = len(primaryTable.Spots)
			primaryTable.Spots = append(primaryTable.Spots, spot)
		case partner:
			spot.Row = len(partnerTable.Spots)
			partnerTable.Spots = append(partnerTable.Spots, spot)
		default:
			return nil, nil, &MalformedInputError{Column: ColumnChannel, Reason: fmt.Sprintf("unknown channel %q (expected %q or %q)", spot.Channel, primary, partner)}
		}
	}
	return primaryTable, partnerTable, nil
}

// Concat stacks tables in order. Resulting columns are the union of source columns
// in first-seen order and spot values are realigned to them.
func Concat(tables ...*Table) *Table {
	columns := make([]string, 0)
	seen := make(map[string]int)
	total := 0
	for _, table := range tables {
		total += len(table.Spots)
		for _, column := range table.Columns {
			if _, ok := seen[column]; !ok {
				seen[column] = len(columns)
				columns = append(columns, column)
			}
		}
	}
	result := &Table{
		Columns: columns,
		Spots:   make([]Spot, 0, total),
	}
	for _, table := range tables {
		same := len(table.Columns) == len(columns)
		for i := 0; same && i < len(columns); i++ {
			same = table.Columns[i] == columns[i]
		}
		for _, spot := range table.Spots {
			if !same {
				values := make([]string, len(columns))
				for srcIdx, column := range table.Columns {
					if srcIdx < len(spot.Values) {
						values[seen[column]] = spot.Values[srcIdx]
					}
				}
				spot.Values = values
			}
			result.Spots = append(result.Spots, spot)
		}
	}
	return result
}
