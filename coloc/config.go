package coloc

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Partner-channel track filters applied after frame counting
const (
	FilterNone                = "none"
	FilterFreeFrames          = "free-frames"
	FilterColocalizedFraction = "fraction"
)

// Field of view policies: drop whole track on a single excursion or only the offending spots
const (
	FieldPolicyTrack = "track"
	FieldPolicySpot  = "spot"
)

// Config holds every option of a single analysis run. It is passed explicitly to
// each stage of the pipeline.
type Config struct {
	// Colocalization distance cutoff (µm)
	Distance float64 `yaml:"distance"`
	// Fraction of image side used as field of view
	Field float64 `yaml:"field"`
	// Pixel size (µm)
	PixelSize float64 `yaml:"pixelSize"`
	// Image size (px)
	ImageSize int `yaml:"imageSize"`
	// Negative values mean "not set"
	FirstFrame int `yaml:"firstFrame"`
	LastFrame  int `yaml:"lastFrame"`

	// Control mode analyses only tracks present within first ControlFrameLimit frames
	Control           bool `yaml:"control"`
	ControlFrameLimit int  `yaml:"controlFrameLimit"`
	// Minimum span of primary channel tracks. Values <= 1 keep untracked spots too
	MinTrackLength int `yaml:"minTrackLength"`

	FilterMode          string  `yaml:"filter"`
	FreeFrames          int     `yaml:"freeFrames"`
	ColocalizedFraction float64 `yaml:"colocalizedFraction"`

	RecruitmentFrames int `yaml:"recruitmentFrames"`
	ExtractionFrames  int `yaml:"extractionFrames"`
	// Seconds per frame
	TimeResolution float64 `yaml:"timeResolution"`

	PrimaryChannel string `yaml:"primaryChannel"`
	PartnerChannel string `yaml:"partnerChannel"`

	Pairing     string `yaml:"pairing"`
	FieldPolicy string `yaml:"fieldPolicy"`
	// Number of matcher workers, 0 means GOMAXPROCS
	Workers int `yaml:"workers"`

	LinkUntracked   bool    `yaml:"linkUntracked"`
	LinkMaxDistance float64 `yaml:"linkMaxDistance"`
	LinkMaxGap      int     `yaml:"linkMaxGap"`

	// Render EmptyChannelError statistics as NA instead of failing
	AllowEmptyChannel bool `yaml:"allowEmptyChannel"`
	// Write every matched spot instead of colocalized tracks only
	KeepAllSpots bool `yaml:"keepAllSpots"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() Config {
	return Config{
		Distance:            0.5,
		Field:               1.0,
		PixelSize:           0.178,
		ImageSize:           512,
		FirstFrame:          -1,
		LastFrame:           -1,
		Control:             false,
		ControlFrameLimit:   3,
		MinTrackLength:      5,
		FilterMode:          FilterNone,
		FreeFrames:          0,
		ColocalizedFraction: 1.0,
		RecruitmentFrames:   3,
		ExtractionFrames:    3,
		TimeResolution:      0.022,
		PrimaryChannel:      "GTPase",
		PartnerChannel:      "GDI",
		Pairing:             PairingAll.String(),
		FieldPolicy:         FieldPolicyTrack,
		Workers:             0,
		LinkUntracked:       false,
		LinkMaxDistance:     0.5,
		LinkMaxGap:          2,
	}
}

// LoadConfig reads YAML configuration on top of defaults
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, fmt.Errorf("config file not found: %s", path)
		}
		return config, errors.Wrap(err, "reading config file")
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, errors.Wrap(err, "parsing config YAML")
	}
	if err := config.Validate(); err != nil {
		return config, errors.Wrapf(err, "invalid config %s", path)
	}
	return config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "marshaling config YAML")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "writing config file")
	}
	return nil
}

// Validate checks option ranges
func (config Config) Validate() error {
	if config.Distance <= 0 {
		return fmt.Errorf("distance must be positive, got %v", config.Distance)
	}
	if config.Field <= 0 || config.Field > 1 {
		return fmt.Errorf("field must be in (0, 1], got %v", config.Field)
	}
	if config.PixelSize <= 0 {
		return fmt.Errorf("pixel size must be positive, got %v", config.PixelSize)
	}
	if config.ImageSize <= 0 {
		return fmt.Errorf("image size must be positive, got %d", config.ImageSize)
	}
	if config.TimeResolution <= 0 {
		return fmt.Errorf("time resolution must be positive, got %v", config.TimeResolution)
	}
	if config.FirstFrame >= 0 && config.LastFrame >= 0 && config.LastFrame <= config.FirstFrame {
		return fmt.Errorf("last frame %d must be greater than first frame %d", config.LastFrame, config.FirstFrame)
	}
	if config.RecruitmentFrames < 0 || config.ExtractionFrames < 0 {
		return fmt.Errorf("recruitment/extraction frame thresholds can't be negative")
	}
	if config.PrimaryChannel == "" || config.PartnerChannel == "" {
		return fmt.Errorf("channel names can't be empty")
	}
	if config.PrimaryChannel == config.PartnerChannel {
		return fmt.Errorf("primary and partner channel share the name %q", config.PrimaryChannel)
	}
	switch config.FilterMode {
	case FilterNone, FilterFreeFrames, FilterColocalizedFraction:
	default:
		return fmt.Errorf("unknown filter %q", config.FilterMode)
	}
	switch config.FieldPolicy {
	case FieldPolicyTrack, FieldPolicySpot:
	default:
		return fmt.Errorf("unknown field policy %q", config.FieldPolicy)
	}
	if _, err := ParsePairing(config.Pairing); err != nil {
		return err
	}
	if config.Workers < 0 {
		return fmt.Errorf("workers can't be negative, got %d", config.Workers)
	}
	if config.LinkUntracked && (config.LinkMaxDistance <= 0 || config.LinkMaxGap < 0) {
		return fmt.Errorf("linker needs positive max distance and non-negative max gap")
	}
	return nil
}

// FieldOfView returns analysis region of this configuration
func (config Config) FieldOfView() FieldOfView {
	return NewFieldOfView(config.ImageSize, config.PixelSize, config.Field)
}

// ConfigEntry is a single option rendered for report metadata
type ConfigEntry struct {
	Key   string
	Value string
}

// Entries returns options in stable order for report metadata
func (config Config) Entries() []ConfigEntry {
	optInt := func(v int) string {
		if v < 0 {
			return "None"
		}
		return strconv.Itoa(v)
	}
	f := func(v float64) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return []ConfigEntry{
		{"distance", f(config.Distance)},
		{"field", f(config.Field)},
		{"pixel_size", f(config.PixelSize)},
		{"image_size", strconv.Itoa(config.ImageSize)},
		{"first_frame", optInt(config.FirstFrame)},
		{"last_frame", optInt(config.LastFrame)},
		{"control", strconv.FormatBool(config.Control)},
		{"control_frame_limit", strconv.Itoa(config.ControlFrameLimit)},
		{"min_track_length", strconv.Itoa(config.MinTrackLength)},
		{"filter", config.FilterMode},
		{"free_frames", strconv.Itoa(config.FreeFrames)},
		{"colocalized_fraction", f(config.ColocalizedFraction)},
		{"recruitment_frames", strconv.Itoa(config.RecruitmentFrames)},
		{"extraction_frames", strconv.Itoa(config.ExtractionFrames)},
		{"time_resolution", f(config.TimeResolution)},
		{"primary_channel", config.PrimaryChannel},
		{"partner_channel", config.PartnerChannel},
		{"pairing", config.Pairing},
		{"field_policy", config.FieldPolicy},
		{"link_untracked", strconv.FormatBool(config.LinkUntracked)},
		{"link_max_distance", f(config.LinkMaxDistance)},
		{"link_max_gap", strconv.Itoa(config.LinkMaxGap)},
		{"allow_empty_channel", strconv.FormatBool(config.AllowEmptyChannel)},
		{"keep_all_spots", strconv.FormatBool(config.KeepAllSpots)},
	}
}
