package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-screener/internal/observability"
	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/schemas"
	"github.com/jonathan/resume-screener/internal/types"
	embedded "github.com/jonathan/resume-screener/schemas"
)

var parseCmd = &cobra.Command{
	Use:   "parse <resume>",
	Short: "Extract structured fields from a resume",
	Long:  "Parse a PDF, DOCX, HTML or text resume into ParsedResume JSON. With --job, the job's keywords are searched as well.",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

var (
	parseJobFile string
	parseOutFile string
)

func init() {
	parseCmd.Flags().StringVarP(&parseJobFile, "job", "j", "", "Path to a job JSON file")
	parseCmd.Flags().StringVarP(&parseOutFile, "out", "o", "", "Write JSON here instead of stdout")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	parser, dict, err := parsing.FromConfig(cfg)
	if err != nil {
		return err
	}

	var req *types.JobRequirements
	if parseJobFile != "" {
		job, err := loadJob(parseJobFile, dict)
		if err != nil {
			return err
		}
		req = job.Requirements()
	}

	parsed := parser.ParseResume(args[0], req)
	if err := schemas.ValidateValue(embedded.ParsedResume, parsed); err != nil {
		return fmt.Errorf("parsed resume does not validate against schema: %w", err)
	}

	if cfg.Verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintParsedResume(parsed)
	}
	return writeJSON(cmd.OutOrStdout(), parseOutFile, parsed)
}
