package coloc

import (
	"fmt"

	"github.com/pkg/errors"
)

// StageCount is number of spots per channel left after a pipeline stage
type StageCount struct {
	Stage   string
	Primary int
	Partner int
}

// Result holds every product of a single analysis run
type Result struct {
	// All spots of both channels after matching
	Combined *Table
	// Colocalized tracks after partner filtering, annotated
	Annotated *Table
	Classes   map[ColocID]Classification
	Summary   Summary
	Warnings  []OrphanTrackWarning
	Stages    []StageCount
}

// Output returns table to be written: annotated subset, or every matched spot with
// defaults for spots outside of the subset when config.KeepAllSpots is set
func (result *Result) Output(config Config) *Table {
	if !config.KeepAllSpots {
		return result.Annotated
	}
	type rowKey struct {
		channel string
		row     int
	}
	annotated := make(map[rowKey]int, len(result.Annotated.Spots))
	for i := range result.Annotated.Spots {
		spot := &result.Annotated.Spots[i]
		annotated[rowKey{spot.Channel, spot.Row}] = i
	}
	output := result.Combined.Clone()
	for i := range output.Spots {
		spot := &output.Spots[i]
		if idx, ok := annotated[rowKey{spot.Channel, spot.Row}]; ok {
			output.Spots[i] = result.Annotated.Spots[idx]
			continue
		}
		spot.Track = TrackStats{}
		spot.SpotAnnotation = AnnotationNone
		spot.TrackAnnotation = AnnotationNone
	}
	return output
}

// Pipeline runs loader output through filters, matcher, aggregator, classifier and summary
type Pipeline struct {
	config     Config
	matcher    *Matcher
	classifier *Classifier
	linker     *Linker
}

// NewPipeline validates configuration and prepares pipeline stages
func NewPipeline(config Config) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "Can't create pipeline")
	}
	matcher, err := NewMatcherFromConfig(config)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		config:     config,
		matcher:    matcher,
		classifier: NewClassifier(config),
		linker:     NewLinker(config.LinkMaxDistance, config.LinkMaxGap),
	}, nil
}

// Run analyses a pair of single channel spot tables. Source names the inputs in the summary.
func (pipeline *Pipeline) Run(primary, partner *Table, source string) (*Result, error) {
	config := pipeline.config
	if err := checkChannel(primary, config.PrimaryChannel); err != nil {
		return nil, err
	}
	if err := checkChannel(partner, config.PartnerChannel); err != nil {
		return nil, err
	}
	result := &Result{}
	stage := func(name string) {
		result.Stages = append(result.Stages, StageCount{Stage: name, Primary: len(primary.Spots), Partner: len(partner.Spots)})
	}

	primary = primary.Clone()
	partner = partner.Clone()
	AssignFallbackIDs(primary)
	AssignFallbackIDs(partner)
	stage("loaded")

	if config.LinkUntracked {
		var err error
		primary, err = pipeline.linker.Link(primary)
		if err != nil {
			return nil, errors.Wrap(err, "Can't link primary channel")
		}
		partner, err = pipeline.linker.Link(partner)
		if err != nil {
			return nil, errors.Wrap(err, "Can't link partner channel")
		}
		stage("linked")
	}

	if config.MinTrackLength > 1 {
		primary = FilterShortTracks(RemoveUntracked(primary), config.MinTrackLength)
		stage("track length")
	}

	primary = FilterFrames(primary, config)
	partner = FilterFrames(partner, config)
	stage("frames")

	if config.Field != 1.0 {
		fov := config.FieldOfView()
		primary = FilterByFieldOfView(primary, fov, config.FieldPolicy)
		partner = FilterByFieldOfView(partner, fov, config.FieldPolicy)
		stage("field of view")
	}

	combined, err := pipeline.matcher.Match(primary, partner)
	if err != nil {
		return nil, err
	}
	result.Combined = combined

	subset := FilterPartnerTracks(ColocalizedTracks(combined), config)
	classes, warnings := pipeline.classifier.Classify(subset)
	result.Classes = classes
	result.Warnings = warnings
	result.Annotated = pipeline.classifier.Annotate(subset, classes)
	primaryLeft, partnerLeft := 0, 0
	for i := range result.Annotated.Spots {
		if result.Annotated.Spots[i].Channel == config.PrimaryChannel {
			primaryLeft++
		} else {
			partnerLeft++
		}
	}
	result.Stages = append(result.Stages, StageCount{Stage: "colocalized tracks", Primary: primaryLeft, Partner: partnerLeft})

	result.Summary, err = Summarize(combined, result.Annotated, config, source)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func checkChannel(table *Table, channel string) error {
	for i := range table.Spots {
		if table.Spots[i].Channel != channel {
			return &MalformedInputError{
				Column: ColumnChannel,
				Reason: fmt.Sprintf("spot %d belongs to channel %q, expected %q", table.Spots[i].Row, table.Spots[i].Channel, channel),
			}
		}
	}
	return nil
}

// ReadChannelFiles loads primary and partner channel from separate files
func ReadChannelFiles(primaryPath, partnerPath string, config Config) (*Table, *Table, error) {
	primary, err := ReadSpotsFile(primaryPath, config.PrimaryChannel)
	if err != nil {
		return nil, nil, err
	}
	partner, err := ReadSpotsFile(partnerPath, config.PartnerChannel)
	if err != nil {
		return nil, nil, err
	}
	return primary, partner, nil
}

// ReadCombinedFile loads both channels from a single file carrying CHANNEL column
func ReadCombinedFile(path string, config Config) (*Table, *Table, error) {
	combined, err := ReadSpotsFile(path, "")
	if err != nil {
		return nil, nil, err
	}
	primary, partner, err := SplitChannels(combined, config.PrimaryChannel, config.PartnerChannel)
	if err != nil {
		if malformed, ok := err.(*MalformedInputError); ok {
			malformed.Path = path
		}
		return nil, nil, err
	}
	return primary, partner, nil
}
