package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/maastricht-university/speech-emotion/cli"
	"github.com/maastricht-university/speech-emotion/pipelineerr"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(pipelineerr.ExitCode(err))
	}
}
