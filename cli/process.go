package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/speech-emotion/orchestrator"
	"github.com/maastricht-university/speech-emotion/pipelineerr"
	"github.com/maastricht-university/speech-emotion/report"
)

// autoReport is the --pdf value used when the flag is given without a path.
const autoReport = "auto"

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var pdfPath string
	var save bool

	cmd := &cobra.Command{
		Use:   "process <audio_file_path> [patient_name] [patient_age] [patient_gender]",
		Short: "Analyze one recording and print the result as JSON",
		Args:  cobra.RangeArgs(1, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.logger(cmd)

			audioPath := args[0]
			if _, err := os.Stat(audioPath); err != nil {
				return pipelineerr.Wrap(pipelineerr.ErrValidation, "cli", "process", "audio file not found: "+audioPath, err)
			}
			if missing := orchestrator.Preflight(cfg); len(missing) > 0 {
				logger.WithField("missing", strings.Join(missing, ", ")).Warn("external tools not found on PATH; degraded results are likely")
			}

			analyzer, cleanup, err := ctx.newAnalyzer(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			res, err := analyzer.Run(cmd.Context(), audioPath, patientFromArgs(args[1:]))
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("pdf") {
				target := pdfPath
				if target == autoReport {
					target = ""
				}
				if path, ok := report.NewWriter(cfg.Paths.Reports, logger).Write(res, target); ok {
					res.ReportPath = path
				} else {
					logger.WithField("path", path).Warn("pdf report was not written")
				}
			}
			if save {
				path, err := orchestrator.Persist(cfg.Paths.Outputs, audioPath, res)
				if err != nil {
					logger.WithError(err).Warn("result bundle was not saved")
				} else {
					logger.WithField("path", path).Info("result bundle saved")
				}
			}
			return writeJSON(cmd, res)
		},
	}

	cmd.Flags().StringVar(&pdfPath, "pdf", "", "Also write a PDF report (optional path; relative paths go under the reports directory)")
	cmd.Flags().Lookup("pdf").NoOptDefVal = autoReport
	cmd.Flags().BoolVar(&save, "save", false, "Persist the result under the outputs directory")
	return cmd
}

func patientFromArgs(args []string) orchestrator.Patient {
	var p orchestrator.Patient
	if len(args) > 0 {
		p.Name = args[0]
	}
	if len(args) > 1 {
		p.Age = args[1]
	}
	if len(args) > 2 {
		p.Gender = args[2]
	}
	return p
}
