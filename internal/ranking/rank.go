package ranking

import (
	"fmt"
	"math"
	"sort"

	"github.com/jonathan/resume-screener/internal/types"
)

// RankApplications returns the applications ordered by match score, highest
// first. Ties are broken by skill score and then by earliest submission.
// The input slice is not modified.
func RankApplications(apps []types.Application) []types.Application {
	ranked := make([]types.Application, len(apps))
	copy(ranked, apps)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if a.SkillScore != b.SkillScore {
			return a.SkillScore > b.SkillScore
		}
		return a.AppliedAt.Before(b.AppliedAt)
	})

	return ranked
}

// Bucket counts the scores in [Min, Max). The last bucket includes 100.
type Bucket struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// bucketWidth is the score range covered by each distribution bucket.
const bucketWidth = 20.0

// Distribution counts match scores in fixed bands of width 20.
func Distribution(apps []types.Application) []Bucket {
	n := int(fullScore / bucketWidth)
	buckets := make([]Bucket, n)
	for i := range buckets {
		lo := float64(i) * bucketWidth
		buckets[i] = Bucket{Label: fmt.Sprintf("%g-%g", lo, lo+bucketWidth), Min: lo, Max: lo + bucketWidth}
	}

	for _, app := range apps {
		i := int(math.Floor(clamp(app.MatchScore, 0, fullScore) / bucketWidth))
		if i >= n {
			i = n - 1
		}
		buckets[i].Count++
	}
	return buckets
}

// Stats summarizes a set of match scores.
type Stats struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	Highest float64 `json:"highest"`
	Lowest  float64 `json:"lowest"`
}

// Summarize computes score statistics, rounded to 2 decimals.
func Summarize(apps []types.Application) Stats {
	if len(apps) == 0 {
		return Stats{}
	}

	scores := make([]float64, len(apps))
	total := 0.0
	for i, app := range apps {
		scores[i] = app.MatchScore
		total += app.MatchScore
	}
	sort.Float64s(scores)

	median := scores[len(scores)/2]
	if len(scores)%2 == 0 {
		median = (scores[len(scores)/2-1] + scores[len(scores)/2]) / 2
	}

	return Stats{
		Count:   len(apps),
		Average: round2(total / float64(len(apps))),
		Median:  round2(median),
		Highest: scores[len(scores)-1],
		Lowest:  scores[0],
	}
}
