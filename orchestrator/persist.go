package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/maastricht-university/speech-emotion/pipelineerr"
)

type PersistBundle struct {
	SessionID   string         `json:"session_id"`
	AudioPath   string         `json:"audio_path"`
	GeneratedAt time.Time      `json:"generated_at"`
	Result      AnalysisResult `json:"result"`
}

func mkSessionDir(outputsRoot string, at time.Time) (string, string, error) {
	sid := "session_" + at.Format("20060102-150405")
	dir := filepath.Join(outputsRoot, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	return sid, dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Persist writes res to <outputsRoot>/session_<timestamp>/result.json and
// returns the file path.
func Persist(outputsRoot, audioPath string, res AnalysisResult) (string, error) {
	if outputsRoot == "" {
		outputsRoot = "outputs"
	}
	at := res.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}
	sid, dir, err := mkSessionDir(outputsRoot, at)
	if err != nil {
		return "", pipelineerr.Wrap(pipelineerr.ErrIO, "persist", "mkdir", outputsRoot, err)
	}

	path := filepath.Join(dir, "result.json")
	bundle := PersistBundle{
		SessionID:   sid,
		AudioPath:   audioPath,
		GeneratedAt: at,
		Result:      res,
	}
	if err := writeJSON(path, bundle); err != nil {
		return "", pipelineerr.Wrap(pipelineerr.ErrIO, "persist", "write", path, err)
	}
	return path, nil
}
