package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	uvxCommand           = "uvx"
	whisperXDefaultModel = "base"
	cudaIndexURL         = "https://download.pytorch.org/whl/cu128"
	pypiIndexURL         = "https://pypi.org/simple"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// WhisperXBackend runs WhisperX through uvx and reads its JSON output.
type WhisperXBackend struct {
	model   string
	cuda    bool
	workDir string
	run     CommandRunner
}

func NewWhisperXBackend(model string, cuda bool, workDir string) *WhisperXBackend {
	if model == "" {
		model = whisperXDefaultModel
	}
	return &WhisperXBackend{model: model, cuda: cuda, workDir: workDir, run: runCommand}
}

// WithCommandRunner swaps the command runner (for tests).
func (b *WhisperXBackend) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		b.run = runner
	}
}

func (b *WhisperXBackend) Name() string { return BackendWhisperX }

func (b *WhisperXBackend) Recognize(ctx context.Context, wavPath, language string) (string, error) {
	outputDir := b.workDir
	if outputDir == "" {
		dir, err := os.MkdirTemp("", "whisperx-")
		if err != nil {
			return "", err
		}
		defer os.RemoveAll(dir)
		outputDir = dir
	} else if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("whisperx: ensure output dir: %w", err)
	}

	if err := b.run(ctx, uvxCommand, b.args(wavPath, outputDir, language)...); err != nil {
		return "", fmt.Errorf("whisperx: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))
	return loadTranscriptText(filepath.Join(outputDir, base+".json"))
}

func (b *WhisperXBackend) args(source, outputDir, language string) []string {
	args := make([]string, 0, 24)
	if b.cuda {
		args = append(args, "--index-url", cudaIndexURL, "--extra-index-url", pypiIndexURL)
	} else {
		args = append(args, "--index-url", pypiIndexURL)
	}
	args = append(args,
		"whisperx",
		source,
		"--model", b.model,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--temperature", "0.0",
	)
	if b.cuda {
		args = append(args, "--device", "cuda")
	} else {
		args = append(args, "--device", "cpu", "--compute_type", "float32")
	}
	if language != "" {
		args = append(args, "--language", language)
	}
	return args
}

type whisperXSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperXPayload struct {
	Segments []whisperXSegment `json:"segments"`
}

func loadTranscriptText(jsonPath string) (string, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", fmt.Errorf("read whisperx json: %w", err)
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("parse whisperx json: %w", err)
	}
	parts := make([]string, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
