package cli

import (
	"fmt"

	"resumatch/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	// Version information - can be set during build with ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Long:        "Print version information for resumatch and its embedded model artifacts",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "resumatch version %s\n", Version)
			fmt.Fprintf(out, "Git commit: %s\n", GitCommit)
			fmt.Fprintf(out, "Build date: %s\n", BuildDate)
			if engine, err := pipeline.DefaultEngine(); err == nil {
				fmt.Fprintf(out, "Embedded model: %s\n", engine.ModelVersion())
				fmt.Fprintf(out, "Embedded taxonomy: %s\n", engine.TaxonomyVersion())
			}
		},
	}
}
