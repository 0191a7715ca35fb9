package coloc

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanner(t *testing.T) {
	answer := banner(" Summary lines ")
	assert.Len(t, answer, bannerWidth)
	assert.Equal(t, "============ Summary lines =============", answer)
}

func TestReportWriteTo(t *testing.T) {
	table := &Table{
		Columns: []string{"Label", "QUALITY", "ID", ColumnTrackID, ColumnPositionX, ColumnPositionY, ColumnFrame},
		Spots: []Spot{
			{
				Frame: 0, Point: NewPoint(10, 10.25), TrackID: "7", PseudoTrackID: "7", Channel: "GTPase",
				Values:      []string{"ID1", "12.5", "1", "7", "10", "10.25", "0"},
				Colocalized: true, ColocID: ColocID{Anchor: "7", Partner: "3"},
				Track:          TrackStats{TotalFrameCount: 3, ColocalizedFrameCount: 1},
				SpotAnnotation: AnnotationRecruitment, TrackAnnotation: AnnotationRecruitmentAndExtraction,
			},
			{
				Frame: 1, Point: NewPoint(10, 10.25), PseudoTrackID: "ID2", Channel: "GDI",
				Values: []string{"ID2", "3", "2", "None", "10", "10.25", "1"},
			},
		},
	}
	runID := uuid.New()
	report := &Report{
		RunID:  runID,
		Inputs: []string{"a.csv", "b.csv"},
		Config: DefaultConfig(),
		Summary: Summary{
			Source:  "a.csv;b.csv",
			Primary: ChannelSummary{Channel: "GTPase"},
			Partner: ChannelSummary{Channel: "GDI"},
		},
		Table: table,
	}
	buf := bytes.Buffer{}
	n, err := report.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	text := buf.String()
	assert.True(t, strings.HasPrefix(text, "# "+banner(" Meta-data lines ")+"\n"))
	assert.Contains(t, text, "# run_id: "+runID.String()+"\n")
	assert.Contains(t, text, "# input: b.csv\n")
	assert.Contains(t, text, "# distance: 0.5\n")
	assert.Contains(t, text, "# first_frame: None\n")
	assert.Contains(t, text, "# "+banner(" Colocalization data lines ")+"\n")

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comment = '#'
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{
		"Label", "QUALITY", "ID", "TRACK_ID", "POSITION_X", "POSITION_Y", "FRAME",
		"PSEUDO_TRACK_ID", "COLOCALIZED_SPOT", "COLOCALIZATION_ID", "CHANNEL",
		"TOTAL_FRAME_COUNT", "COLOCALIZED_FRAME_COUNT", "FREE_FRAME_COUNT", "COLOCALIZED_FRAME_FRACTION",
		"ANNOTATION_SPOT", "ANNOTATION_TRACK",
	}, records[0])
	assert.Equal(t, []string{
		"ID1", "12.500", "1", "7", "10.000", "10.250", "0",
		"7", "True", "7-3", "GTPase",
		"3", "1", "2", "0.333",
		"Recruitment", "Recruitment and Extraction",
	}, records[1])
	assert.Equal(t, []string{
		"ID2", "3.000", "2", "None", "10.000", "10.250", "1",
		"ID2", "False", "", "GDI",
		"0", "0", "0", "0.000",
		"None", "None",
	}, records[2])
}

func TestReportSummaryQuoted(t *testing.T) {
	all, subset := summaryTables()
	summary, err := Summarize(all, subset, DefaultConfig(), "runs/a,b.csv")
	require.NoError(t, err)
	report := &Report{RunID: uuid.New(), Config: DefaultConfig(), Summary: summary, Table: &Table{Columns: testColumns}}
	buf := bytes.Buffer{}
	_, err = report.WriteTo(&buf)
	require.NoError(t, err)

	lines := strings.Split(buf.String(), "\n")
	summaryBanner := -1
	for i, line := range lines {
		if line == "# "+banner(" Summary lines ") {
			summaryBanner = i
		}
	}
	require.GreaterOrEqual(t, summaryBanner, 0)
	header, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(lines[summaryBanner+1], "# "))).Read()
	require.NoError(t, err)
	values, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(lines[summaryBanner+2], "# "))).Read()
	require.NoError(t, err)
	assert.Equal(t, summary.Header(), header)
	require.Len(t, values, len(header))
	assert.Equal(t, "runs/a,b.csv", values[0])
	assert.True(t, strings.HasPrefix(lines[summaryBanner+2], `# "runs/a,b.csv",2,`), lines[summaryBanner+2])
}

func TestWriteReportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Colocalization.csv")
	report := &Report{
		RunID:   uuid.New(),
		Config:  DefaultConfig(),
		Summary: Summary{Primary: ChannelSummary{Channel: "GTPase"}, Partner: ChannelSummary{Channel: "GDI"}},
		Table:   &Table{Columns: testColumns},
	}
	require.NoError(t, WriteReportFile(path, report))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "ANNOTATION_SPOT,ANNOTATION_TRACK\n"))

	err = WriteReportFile(filepath.Join(t.TempDir(), "missing", "out.csv"), report)
	assert.Error(t, err)
}
