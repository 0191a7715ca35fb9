package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/LdDl/coloc-go/coloc"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// options are command line settings that are not part of analysis configuration
type options struct {
	configFile    string
	primary       string
	partner       string
	input         string
	outfile       string
	heatmap       string
	probabilities string
	positions     string
	saveConfig    string
	quiet         bool
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newFlagSet(config *coloc.Config, opts *options, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("coloc", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&opts.configFile, "config", opts.configFile, "Path to YAML configuration file (flags override it)")
	fs.StringVar(&opts.primary, "primary", opts.primary, "Primary (anchor) channel spot statistics file")
	fs.StringVar(&opts.partner, "partner", opts.partner, "Partner channel spot statistics file")
	fs.StringVar(&opts.input, "input", opts.input, "Combined spot statistics file with CHANNEL column (instead of -primary/-partner)")
	fs.StringVar(&opts.outfile, "outfile", opts.outfile, "Output file name")
	fs.StringVar(&opts.heatmap, "heatmap", opts.heatmap, "Optional heat map data output file")
	fs.StringVar(&opts.probabilities, "probabilities", opts.probabilities, "Optional event probabilities output file")
	fs.StringVar(&opts.positions, "position-probabilities", opts.positions, "Optional position specific colocalization probabilities output file")
	fs.StringVar(&opts.saveConfig, "save-config", opts.saveConfig, "Write effective configuration as YAML and exit")
	fs.BoolVar(&opts.quiet, "quiet", opts.quiet, "Do not report progress")

	fs.Float64Var(&config.Distance, "dist", config.Distance, "Colocalization distance cutoff (µm)")
	fs.Float64Var(&config.Field, "field", config.Field, "Field of view fraction")
	fs.Float64Var(&config.PixelSize, "pixel-size", config.PixelSize, "Pixel size (µm)")
	fs.IntVar(&config.ImageSize, "image-size", config.ImageSize, "Image size (px)")
	fs.IntVar(&config.FirstFrame, "first-frame", config.FirstFrame, "First frame, negative means unset")
	fs.IntVar(&config.LastFrame, "last-frame", config.LastFrame, "Last frame (exclusive), negative means unset")
	fs.BoolVar(&config.Control, "control", config.Control, "Analyse only tracks present in the first -control-frame-limit frames")
	fs.IntVar(&config.ControlFrameLimit, "control-frame-limit", config.ControlFrameLimit, "Initial frames used in control mode")
	fs.IntVar(&config.MinTrackLength, "min-track-length", config.MinTrackLength, "Minimum track length of primary channel")
	fs.StringVar(&config.FilterMode, "filter", config.FilterMode, "Partner track filter: none, free-frames or fraction")
	fs.IntVar(&config.FreeFrames, "free-frames", config.FreeFrames, "Max un-colocalized frames of partner tracks (-filter free-frames)")
	fs.Float64Var(&config.ColocalizedFraction, "colocalization-fraction", config.ColocalizedFraction, "Min colocalized fraction of partner tracks (-filter fraction)")
	fs.IntVar(&config.RecruitmentFrames, "recruitment-frames", config.RecruitmentFrames, "Recruitment frame threshold")
	fs.IntVar(&config.ExtractionFrames, "extraction-frames", config.ExtractionFrames, "Extraction frame threshold")
	fs.Float64Var(&config.TimeResolution, "time-resolution", config.TimeResolution, "Seconds per frame")
	fs.StringVar(&config.PrimaryChannel, "primary-channel", config.PrimaryChannel, "Primary channel name")
	fs.StringVar(&config.PartnerChannel, "partner-channel", config.PartnerChannel, "Partner channel name")
	fs.StringVar(&config.Pairing, "pairing", config.Pairing, "Spot pairing within a frame: all, greedy or hungarian")
	fs.StringVar(&config.FieldPolicy, "field-policy", config.FieldPolicy, "Field of view excursions drop the whole track or only the spot: track or spot")
	fs.IntVar(&config.Workers, "workers", config.Workers, "Matcher workers, 0 means number of CPUs")
	fs.BoolVar(&config.LinkUntracked, "link-untracked", config.LinkUntracked, "Link untracked spots into tracks before analysis")
	fs.Float64Var(&config.LinkMaxDistance, "link-max-distance", config.LinkMaxDistance, "Max linking distance (µm)")
	fs.IntVar(&config.LinkMaxGap, "link-max-gap", config.LinkMaxGap, "Max frames a linked track may miss")
	fs.BoolVar(&config.AllowEmptyChannel, "allow-empty", config.AllowEmptyChannel, "Write NA for statistics of channels without tracks instead of failing")
	fs.BoolVar(&config.KeepAllSpots, "all-spots", config.KeepAllSpots, "Write every spot, not only colocalized tracks")
	return fs
}

// parseArgs reads flags twice: first pass finds -config, second applies flags over it
func parseArgs(args []string, output io.Writer) (coloc.Config, options, error) {
	config := coloc.DefaultConfig()
	opts := options{outfile: "Colocalization.csv"}
	if err := newFlagSet(&config, &opts, output).Parse(args); err != nil {
		return config, opts, err
	}
	if opts.configFile != "" {
		loaded, err := coloc.LoadConfig(opts.configFile)
		if err != nil {
			return config, opts, err
		}
		config = loaded
		if err := newFlagSet(&config, &opts, output).Parse(args); err != nil {
			return config, opts, err
		}
	}
	if err := config.Validate(); err != nil {
		return config, opts, errors.Wrap(err, "invalid options")
	}
	return config, opts, nil
}

func run(args []string, logOutput io.Writer) error {
	config, opts, err := parseArgs(args, logOutput)
	if err != nil {
		return err
	}
	logger := log.New(logOutput, "[coloc] ", log.LstdFlags)
	if opts.quiet {
		logger.SetOutput(io.Discard)
	}

	if opts.saveConfig != "" {
		if err := coloc.SaveConfig(opts.saveConfig, config); err != nil {
			return err
		}
		logger.Printf("Configuration written to: %s", opts.saveConfig)
		return nil
	}

	var primary, partner *coloc.Table
	var inputs []string
	switch {
	case opts.input != "":
		inputs = []string{opts.input}
		logger.Printf("Combined file: %s", opts.input)
		primary, partner, err = coloc.ReadCombinedFile(opts.input, config)
	case opts.primary != "" && opts.partner != "":
		inputs = []string{opts.primary, opts.partner}
		logger.Printf("%s file: %s", config.PrimaryChannel, opts.primary)
		logger.Printf("%s file: %s", config.PartnerChannel, opts.partner)
		primary, partner, err = coloc.ReadChannelFiles(opts.primary, opts.partner, config)
	default:
		return fmt.Errorf("either -input or both -primary and -partner are required")
	}
	if err != nil {
		return err
	}

	pipeline, err := coloc.NewPipeline(config)
	if err != nil {
		return err
	}
	result, err := pipeline.Run(primary, partner, strings.Join(inputs, ";"))
	if err != nil {
		return err
	}
	for _, stage := range result.Stages {
		logger.Printf("%-20s %s=%d %s=%d", stage.Stage, config.PrimaryChannel, stage.Primary, config.PartnerChannel, stage.Partner)
	}
	for _, warning := range result.Warnings {
		logger.Printf("Warning: %s", warning)
	}

	report := &coloc.Report{
		RunID:   uuid.New(),
		Inputs:  inputs,
		Config:  config,
		Summary: result.Summary,
		Table:   result.Output(config),
	}
	if err := coloc.WriteReportFile(opts.outfile, report); err != nil {
		return err
	}
	logger.Printf("Output written to: %s", opts.outfile)

	if opts.heatmap != "" {
		buf := bytes.Buffer{}
		if err := coloc.WriteHeatMap(&buf, coloc.HeatMapRows(result.Annotated)); err != nil {
			return errors.Wrap(err, "Can't render heat map data")
		}
		if err := os.WriteFile(opts.heatmap, buf.Bytes(), 0644); err != nil {
			return errors.Wrap(err, "Can't write heat map data")
		}
		logger.Printf("Heat map data written to: %s", opts.heatmap)
	}
	if opts.probabilities != "" {
		buf := bytes.Buffer{}
		probs := coloc.ComputeEventProbabilities(result.Annotated, config)
		if err := coloc.WriteEventProbabilities(&buf, probs); err != nil {
			return errors.Wrap(err, "Can't render event probabilities")
		}
		if err := os.WriteFile(opts.probabilities, buf.Bytes(), 0644); err != nil {
			return errors.Wrap(err, "Can't write event probabilities")
		}
		logger.Printf("Event probabilities written to: %s", opts.probabilities)
	}
	if opts.positions != "" {
		buf := bytes.Buffer{}
		positions := coloc.ComputePositionProbabilities(result.Annotated, config)
		if err := coloc.WritePositionProbabilities(&buf, positions); err != nil {
			return errors.Wrap(err, "Can't render position specific probabilities")
		}
		if err := os.WriteFile(opts.positions, buf.Bytes(), 0644); err != nil {
			return errors.Wrap(err, "Can't write position specific probabilities")
		}
		logger.Printf("Position specific probabilities written to: %s", opts.positions)
	}
	return nil
}
