package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/speech-emotion/audio/ffprobe"
	"github.com/maastricht-university/speech-emotion/pipelineerr"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <audio>",
		Short: "Show container and stream details reported by ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			res, err := ctx.probe(cmd.Context(), cfg.Audio.FFprobe, args[0])
			if err != nil {
				return pipelineerr.Wrap(pipelineerr.ErrDecode, "cli", "inspect", args[0], err)
			}
			if asJSON {
				return writeJSON(cmd, res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), inspectTable(res))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw ffprobe result as JSON")
	return cmd
}

func inspectTable(res ffprobe.Result) string {
	rows := [][]string{}
	for _, s := range res.AudioStreams() {
		rows = append(rows, []string{
			strconv.Itoa(s.Index),
			s.CodecName,
			strconv.Itoa(s.SampleRateHz()),
			strconv.Itoa(s.Channels),
			s.ChannelLayout,
		})
	}
	table := renderTable(
		[]string{"Stream", "Codec", "Sample rate", "Channels", "Layout"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
	)
	return fmt.Sprintf("%s (%s, %.2fs)\n%s", res.Format.Filename, res.Format.FormatName, res.DurationSeconds(), table)
}
