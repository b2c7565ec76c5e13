package orchestrator

import (
	"os/exec"

	"github.com/maastricht-university/speech-emotion/config"
	"github.com/maastricht-university/speech-emotion/transcribe"
)

// LookPath is exec.LookPath, replaceable in tests.
var LookPath = exec.LookPath

// Preflight lists the external binaries the configuration needs but PATH
// does not provide.
func Preflight(c *config.Root) []string {
	needed := []string{c.Audio.FFmpeg}
	if c.Transcriber.Backend == transcribe.BackendWhisperX {
		needed = append(needed, "uvx")
	}
	var missing []string
	for _, bin := range needed {
		if _, err := LookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	return missing
}
