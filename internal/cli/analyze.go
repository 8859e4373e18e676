package cli

import (
	"context"
	"fmt"

	"resumatch/internal/common"
	"resumatch/internal/types"

	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	output     common.CommandConfig
	resumeText string
	jobText    string
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze [resume-file] [job-description-file]",
		Short: "Predict whether a resume fits a job description",
		Long: `Analyze a resume against a job description and predict Fit or Not Fit.

The resume may be a PDF, DOCX, HTML or plain-text file, or pasted text via
--resume-text. The job description is read from a file or from --job-text.

The result includes:
- Prediction and confidence score
- Similarity score between the two documents
- Skills found in each document, matched and missing skills
- The profile title and a short summary of the resume`,
		Args: func(cmd *cobra.Command, args []string) error {
			want := 2
			if opts.resumeText != "" {
				want--
			}
			if opts.jobText != "" {
				want--
			}
			if len(args) != want {
				return fmt.Errorf("expected %d file argument(s), got %d", want, len(args))
			}
			return nil
		},
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfigFromContext(cmd.Context())
			format, err := common.ResolveOutputFormat(opts.output.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
			if err != nil {
				return err
			}
			opts.output.OutputFormat = format
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&opts.output.OutputFormat, "format", "", "Output format: json, text, or markdown")
	cmd.Flags().StringVar(&opts.resumeText, "resume-text", "", "Resume as plain text instead of a file")
	cmd.Flags().StringVar(&opts.jobText, "job-text", "", "Job description as plain text instead of a file")
	cmd.Flags().Int("workers", 0, "Concurrent extraction and inference slots (overrides config)")
	cmd.Flags().String("model", "", "Classifier artifact file (overrides config)")
	cmd.Flags().Float64("threshold", 0, "Fit decision threshold in (0, 1) (overrides config)")
	registerFormatCompletion(cmd)
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts analyzeOptions) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	files := common.NewFileProcessor(logger, cfg.Pipeline.MaxDocumentBytes)

	// positional files fill whichever inputs were not given as text
	var resume types.Document
	if opts.resumeText != "" {
		resume = types.TextInput(opts.resumeText)
	} else {
		doc, err := files.ReadDocument(args[0])
		if err != nil {
			return err
		}
		resume = doc
		args = args[1:]
	}

	job := opts.jobText
	if job == "" {
		text, err := files.ReadText(args[0])
		if err != nil {
			return err
		}
		job = text
	}

	p, om, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownObservability(om, logger)

	logger.Info("Starting resume analysis",
		"resume_source", string(resume.Source),
		"resume_kind", string(resume.Kind),
		"job_chars", len(job),
		"output_format", opts.output.OutputFormat)

	output := common.NewOutputHandlerWithWriter(logger, cmd.OutOrStdout())
	err = common.RunCommand(cmd.Context(), logger, output, opts.output, "analyze",
		func(ctx context.Context) (*types.MatchResult, error) {
			return p.Analyze(ctx, resume, job)
		})
	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}
	return nil
}

// registerFormatCompletion adds shell completion for --format.
func registerFormatCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.NewOutputHandler(nil).GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
}
