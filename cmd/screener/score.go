package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-screener/internal/narrative"
	"github.com/jonathan/resume-screener/internal/observability"
	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score [resume]",
	Short: "Score a resume against a job",
	Long: `Parse a resume and compute its match score against a job.
Pass --parsed to score an existing ParsedResume JSON file instead of a resume.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScore,
}

var (
	scoreJobFile    string
	scoreParsedFile string
	scoreOutFile    string
)

// scoreOutput is the JSON written by the score command.
type scoreOutput struct {
	Score     types.ScoreBundle `json:"score"`
	Narrative types.Narrative   `json:"narrative"`
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreJobFile, "job", "j", "", "Path to a job JSON file (required)")
	scoreCmd.Flags().StringVar(&scoreParsedFile, "parsed", "", "Path to ParsedResume JSON to score instead of a resume")
	scoreCmd.Flags().StringVarP(&scoreOutFile, "out", "o", "", "Write JSON here instead of stdout")
	_ = scoreCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	if (len(args) == 0) == (scoreParsedFile == "") {
		return errors.New("provide either a resume file or --parsed")
	}

	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	parser, dict, err := parsing.FromConfig(cfg)
	if err != nil {
		return err
	}
	job, err := loadJob(scoreJobFile, dict)
	if err != nil {
		return err
	}

	var parsed *types.ParsedResume
	if scoreParsedFile != "" {
		parsed, err = readParsed(scoreParsedFile)
		if err != nil {
			return err
		}
	} else {
		parsed = parser.ParseResume(args[0], job.Requirements())
	}

	score := ranking.ComputeMatchScore(parsed, job.Requirements())
	out := scoreOutput{Score: score, Narrative: narrative.Generate(parsed, score)}

	if cfg.Verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintScore(out.Score, out.Narrative)
	}
	return writeJSON(cmd.OutOrStdout(), scoreOutFile, out)
}

func readParsed(path string) (*types.ParsedResume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parsed resume: %w", err)
	}
	var parsed types.ParsedResume
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse parsed resume: %w", err)
	}
	return &parsed, nil
}
