package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mediagen-gateway/internal/compositor"
	"mediagen-gateway/internal/orchestrator"
	"mediagen-gateway/internal/provider"
	"mediagen-gateway/internal/request"
)

type runFlags struct {
	channel    string
	theme      string
	week       int
	outputType string
	costTier   string
	numShorts  int
	duration   int
	numImages  int

	imageQuery string
	voice      string

	dryRun     bool
	noCache    bool
	jsonOut    bool
	outputDir  string
	outputFile string
	compose    bool
}

func newRunCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Produce one episode: script, titles, shorts, narration and images",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.channel, "channel", "", "Channel the episode belongs to")
	cmd.Flags().StringVar(&flags.theme, "theme", "", "Episode theme")
	cmd.Flags().IntVar(&flags.week, "week", 0, "Week number for recurring schedules")
	cmd.Flags().StringVar(&flags.outputType, "output", "both", "Deliverables to produce: long, shorts or both")
	cmd.Flags().StringVar(&flags.costTier, "cost-tier", "free", "Cost tier: free, low or high")
	cmd.Flags().IntVar(&flags.numShorts, "num-shorts", request.DefaultShorts, "Shorts to extract (0 disables)")
	cmd.Flags().IntVar(&flags.duration, "duration", 0, "Target video duration in minutes")
	cmd.Flags().IntVar(&flags.numImages, "num-images", 0, "Stock images to fetch")
	cmd.Flags().StringVar(&flags.imageQuery, "image-query", "", "Stock image search query (defaults to theme)")
	cmd.Flags().StringVar(&flags.voice, "voice", "", "Narration voice ID")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print the cost estimate and exit without generating")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "Skip cache reads and overwrite cached entries")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Print the full result as JSON")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Directory for audio and video artifacts")
	cmd.Flags().StringVar(&flags.outputFile, "output-file", "", "Write the result JSON to this file")
	cmd.Flags().BoolVar(&flags.compose, "compose", false, "Run the configured assembly command after generation")

	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("theme")

	return cmd
}

func runPipeline(cmd *cobra.Command, flags runFlags) error {
	tier, err := request.ParseTier(flags.costTier)
	if err != nil {
		return err
	}
	output, err := orchestrator.ParseOutputType(flags.outputType)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(!flags.dryRun)
	if err != nil {
		return err
	}
	if flags.outputDir != "" {
		cfg.OutputDir = flags.outputDir
	}
	if flags.duration == 0 {
		flags.duration = cfg.VideoDurationMinutes
	}

	req := orchestrator.PipelineRequest{
		Channel:         flags.channel,
		Theme:           flags.theme,
		Week:            flags.week,
		Tier:            tier,
		Output:          output,
		NumShorts:       flags.numShorts,
		DurationMinutes: flags.duration,
		Voice:           flags.voice,
		ImageQuery:      flags.imageQuery,
		NumImages:       flags.numImages,
	}

	logger := newCLILogger()
	defer logger.Sync()

	coordinator, err := buildCoordinator(cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if flags.dryRun {
		estimate := coordinator.Estimate(orchestrator.PlanSpecs(req), tier)
		return printEstimate(out, estimate, flags.jsonOut)
	}

	result, err := coordinator.RunPipeline(cmd.Context(), req, orchestrator.Options{
		BypassCache: flags.noCache,
	})
	if err != nil {
		return err
	}

	if flags.outputFile != "" {
		raw, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		if err := os.WriteFile(flags.outputFile, raw, 0o644); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	if flags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printSummary(out, result)
	}

	if flags.compose {
		if cfg.ComposeCommand == "" {
			return fmt.Errorf("--compose requires COMPOSE_COMMAND to be set")
		}
		videoPath, err := composeEpisode(cmd, cfg.ComposeCommand, cfg.OutputDir, flags, result, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "video: %s\n", videoPath)
	}
	return nil
}

func printSummary(out io.Writer, result orchestrator.PipelineResult) {
	stage := func(name string, o orchestrator.Outcome) {
		origin := "generated by " + o.Entry.Provider
		if o.CacheHit {
			origin = "cache hit"
		}
		fmt.Fprintf(out, "  %-10s %s ($%.4f)\n", name, origin, o.CostUSD)
	}

	fmt.Fprintln(out, "Episode produced:")
	stage("script", result.Script)
	stage("titles", result.Titles)
	if result.Shorts != nil {
		stage("shorts", *result.Shorts)
	}
	if result.Narration != nil {
		stage("narration", *result.Narration)
	}
	if result.Images != nil {
		stage("images", *result.Images)
	}
	fmt.Fprintf(out, "total spend: $%.4f (%d cache hits)\n", result.TotalCostUSD, result.CacheHits)
}

// composeEpisode unpacks the generated payloads and hands them to the
// external assembly command.
func composeEpisode(
	cmd *cobra.Command,
	command, outputDir string,
	flags runFlags,
	result orchestrator.PipelineResult,
	logger *zap.Logger,
) (string, error) {
	if result.Narration == nil || result.Images == nil {
		return "", fmt.Errorf("--compose needs the long-form stages (--output long or both)")
	}

	var script provider.ScriptPayload
	if err := json.Unmarshal(result.Script.Entry.Payload, &script); err != nil {
		return "", fmt.Errorf("decode script payload: %w", err)
	}
	var narration provider.NarrationPayload
	if err := json.Unmarshal(result.Narration.Entry.Payload, &narration); err != nil {
		return "", fmt.Errorf("decode narration payload: %w", err)
	}
	var images provider.ImagesPayload
	if err := json.Unmarshal(result.Images.Entry.Payload, &images); err != nil {
		return "", fmt.Errorf("decode images payload: %w", err)
	}

	urls := make([]string, 0, len(images.Images))
	for _, img := range images.Images {
		urls = append(urls, img.URL)
	}

	cli, err := compositor.NewCLI(command, logger)
	if err != nil {
		return "", err
	}

	slug := fmt.Sprintf("%s-week-%d", filepath.Base(flags.channel), flags.week)
	return cli.Compose(cmd.Context(), compositor.Input{
		Slug:      slug,
		Script:    script.Script,
		AudioPath: narration.AudioPath,
		ImageURLs: urls,
		OutputDir: outputDir,
	})
}
