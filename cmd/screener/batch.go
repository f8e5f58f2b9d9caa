package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-screener/internal/export"
	"github.com/jonathan/resume-screener/internal/observability"
	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/screening"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file-or-dir>...",
	Short: "Screen many resumes against one job",
	Long: `Screen every resume given on the command line, or found directly inside a
given directory, against a job and print the candidates ranked by match score.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

var (
	batchJobFile     string
	batchOutFile     string
	batchReportFile  string
	batchConcurrency int
)

// resumeExtensions are the file types picked up from a directory.
var resumeExtensions = map[string]bool{
	".pdf": true, ".docx": true, ".html": true, ".htm": true, ".txt": true, ".md": true,
}

func init() {
	batchCmd.Flags().StringVarP(&batchJobFile, "job", "j", "", "Path to a job JSON file (required)")
	batchCmd.Flags().StringVarP(&batchOutFile, "out", "o", "", "Write ranked applications as JSON to this file")
	batchCmd.Flags().StringVar(&batchReportFile, "report", "", "Write an .xlsx report to this file")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "Resumes screened at once (default from config)")
	_ = batchCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	parser, dict, err := parsing.FromConfig(cfg)
	if err != nil {
		return err
	}
	job, err := loadJob(batchJobFile, dict)
	if err != nil {
		return err
	}

	paths, err := collectResumes(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no resumes found")
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	opts := screening.Options{}
	if cfg.Verbose {
		var mu sync.Mutex
		progress := observability.NewPrinter(cmd.ErrOrStderr())
		opts.OnProgress = func(ev screening.ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			progress.PrintProgress(ev)
		}
	}

	limit := batchConcurrency
	if limit <= 0 {
		limit = cfg.BatchConcurrency
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apps, err := screening.NewService(parser, nil, opts).Batch(ctx, job, paths, limit)
	if err != nil {
		return err
	}

	printer.PrintRanking(apps)

	if batchOutFile != "" {
		if err := writeJSON(cmd.OutOrStdout(), batchOutFile, apps); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Results: %s\n", batchOutFile)
	}
	if batchReportFile != "" {
		path, err := export.SaveReport(batchReportFile, job, apps)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", path)
	}
	return nil
}

// collectResumes expands directories into the resume files they contain.
// Files named explicitly are kept whatever their extension.
func collectResumes(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", arg, err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if resumeExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}
