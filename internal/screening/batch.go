package screening

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/types"
)

// DefaultBatchLimit bounds concurrent screenings when no limit is given.
const DefaultBatchLimit = 4

// Batch screens resume files on disk against job and returns the resulting
// applications ranked by match score. Each file is screened independently;
// an unreadable file still yields an application with default scores.
func (s *Service) Batch(ctx context.Context, job *types.Job, paths []string, limit int) ([]types.Application, error) {
	if job == nil {
		return nil, errors.New("job is required")
	}
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	results := make([]types.Application, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		g.Go(func() error {
			app, err := s.screenFile(gCtx, job, path, filepath.Base(path))
			if err != nil {
				return fmt.Errorf("failed to screen %s: %w", path, err)
			}
			results[i] = *app
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return ranking.RankApplications(results), nil
}
