package cli

import (
	"context"
	"fmt"

	"resumatch/internal/common"
	"resumatch/internal/types"

	"github.com/spf13/cobra"
)

type parseOptions struct {
	output  common.CommandConfig
	jobFile string
	jobText string
}

func newParseCmd() *cobra.Command {
	var opts parseOptions

	cmd := &cobra.Command{
		Use:   "parse [resume-file]",
		Short: "Extract contact details, skills and ATS checks from a resume",
		Long: `Parse a resume without predicting fit. The report includes contact
details, the skills found, an inferred profile title, a short summary and an
ATS readiness check.

Pass a job description with --job or --job-text to also report the job's
skills and score keyword coverage in the ATS check.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.jobFile != "" && opts.jobText != "" {
				return fmt.Errorf("--job and --job-text are mutually exclusive")
			}
			cfg := getConfigFromContext(cmd.Context())
			format, err := common.ResolveOutputFormat(opts.output.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
			if err != nil {
				return err
			}
			opts.output.OutputFormat = format
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&opts.output.OutputFormat, "format", "", "Output format: json, text, or markdown")
	cmd.Flags().StringVarP(&opts.jobFile, "job", "j", "", "Job description file (optional)")
	cmd.Flags().StringVar(&opts.jobText, "job-text", "", "Job description as plain text (optional)")
	registerFormatCompletion(cmd)
	return cmd
}

func runParse(cmd *cobra.Command, resumeFile string, opts parseOptions) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	files := common.NewFileProcessor(logger, cfg.Pipeline.MaxDocumentBytes)

	resume, err := files.ReadDocument(resumeFile)
	if err != nil {
		return err
	}
	job := opts.jobText
	if opts.jobFile != "" {
		if job, err = files.ReadText(opts.jobFile); err != nil {
			return err
		}
	}

	p, om, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownObservability(om, logger)

	logger.Info("Starting resume parsing",
		"resume_kind", string(resume.Kind),
		"with_job", job != "",
		"output_format", opts.output.OutputFormat)

	output := common.NewOutputHandlerWithWriter(logger, cmd.OutOrStdout())
	err = common.RunCommand(cmd.Context(), logger, output, opts.output, "parse",
		func(ctx context.Context) (*types.ParseResult, error) {
			return p.Parse(ctx, resume, job)
		})
	if err != nil {
		return fmt.Errorf("failed to parse resume: %w", err)
	}
	return nil
}
