// Package compositor hands finished generation artifacts to an external
// assembly command that renders the final video.
package compositor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var commandContext = exec.CommandContext

// Input is everything the assembly step consumes. Image URLs are passed
// through as-is; downloading is the external tool's job.
type Input struct {
	Slug      string   `json:"slug"`
	Script    string   `json:"script"`
	AudioPath string   `json:"audio_path"`
	ImageURLs []string `json:"image_urls"`
	OutputDir string   `json:"-"`
}

// Compositor assembles one episode and returns the rendered video path.
type Compositor interface {
	Compose(ctx context.Context, in Input) (string, error)
}

// CLI shells out to a configured command. The command receives a manifest
// JSON path as its last argument and is expected to write the video at the
// manifest's output_path.
type CLI struct {
	binary string
	args   []string
	logger *zap.Logger
}

// NewCLI parses a command line such as "python assemble.py --fast". The
// manifest path is appended at invocation time.
func NewCLI(command string, logger *zap.Logger) (*CLI, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("compositor: command is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CLI{binary: fields[0], args: fields[1:], logger: logger.Named("compositor")}, nil
}

type manifest struct {
	Input
	OutputPath string `json:"output_path"`
}

func (c *CLI) Compose(ctx context.Context, in Input) (string, error) {
	if strings.TrimSpace(in.Slug) == "" {
		return "", errors.New("compositor: slug is required")
	}
	if strings.TrimSpace(in.OutputDir) == "" {
		return "", errors.New("compositor: output directory is required")
	}
	if err := os.MkdirAll(in.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	outputPath := filepath.Join(in.OutputDir, in.Slug+".mp4")
	raw, err := json.Marshal(manifest{Input: in, OutputPath: outputPath})
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}

	manifestPath := filepath.Join(in.OutputDir, in.Slug+".manifest.json")
	if err := os.WriteFile(manifestPath, raw, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	args := append(append([]string{}, c.args...), manifestPath)
	cmd := commandContext(ctx, c.binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Error("assembly command failed",
			zap.String("binary", c.binary),
			zap.ByteString("output", out),
			zap.Error(err),
		)
		return "", fmt.Errorf("assembly command: %w", err)
	}

	c.logger.Info("episode assembled",
		zap.String("slug", in.Slug),
		zap.String("output", outputPath),
	)
	return outputPath, nil
}

var _ Compositor = (*CLI)(nil)
