package scan

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/wonny/leadlag/internal/contracts"
	"github.com/wonny/leadlag/pkg/logger"
)

// Ranker runs the correlator over every ordered series pair and selects
// the globally strongest lead-lag relationships.
// ⭐ SSOT: 관계 랭킹은 여기서만
type Ranker struct {
	correlator *Correlator
	workers    int
	logger     *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(correlator *Correlator, workers int, log *logger.Logger) *Ranker {
	if workers < 1 {
		workers = 1
	}
	return &Ranker{
		correlator: correlator,
		workers:    workers,
		logger:     log,
	}
}

// orderedPair is one (lead, lag) column combination to evaluate
type orderedPair struct {
	lead string
	lag  string
}

// Rank evaluates all ordered pairs (A, B) with A != B, keeps each pair's
// best lag, and returns the full population plus the top-N relationships
// by absolute correlation. Pair evaluation fans out over a worker pool;
// results are merged positionally so ranking order never depends on
// scheduling. An empty population is a valid "nothing discoverable"
// outcome, not an error.
func (r *Ranker) Rank(table *contracts.AlignedTable, maxLag, topN int) ([]contracts.LagCorrelation, []contracts.RankedRelationship, error) {
	if topN <= 0 {
		return nil, nil, &contracts.RankingError{Reason: fmt.Sprintf("top_n must be positive, got %d", topN)}
	}

	names := table.ColumnNames()
	if len(names) < 2 {
		return nil, nil, &contracts.RankingError{Reason: fmt.Sprintf("need at least 2 columns, got %d", len(names))}
	}

	// Deterministic pair enumeration: lexical by lead, then by lag.
	// Self-pairs are never evaluated.
	var pairs []orderedPair
	for _, lead := range names {
		for _, lag := range names {
			if lead == lag {
				continue
			}
			pairs = append(pairs, orderedPair{lead: lead, lag: lag})
		}
	}

	// Fan out over a bounded worker pool. Each slot is written exactly
	// once at its pair's index; a nil slot means the pair produced no
	// usable lag.
	best := make([]*contracts.LagCorrelation, len(pairs))
	jobCh := make(chan int, len(pairs))

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobCh {
				best[idx] = r.bestLag(table, pairs[idx], maxLag)
			}
		}()
	}
	for idx := range pairs {
		jobCh <- idx
	}
	close(jobCh)
	wg.Wait()

	all := make([]contracts.LagCorrelation, 0, len(pairs))
	for _, b := range best {
		if b != nil {
			all = append(all, *b)
		}
	}

	if len(all) == 0 {
		r.logger.Warn("No pair produced a usable lag correlation")
		return all, nil, nil
	}

	// Stable sort by |corr| descending keeps pair-enumeration order for ties
	sorted := make([]contracts.LagCorrelation, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Correlation) > math.Abs(sorted[j].Correlation)
	})

	count := topN
	if count > len(sorted) {
		count = len(sorted)
	}

	// Significance: z-score of each top correlation against the full
	// scanned population. A flat population means every z-score is 0.
	popValues := make([]float64, len(all))
	for i, c := range all {
		popValues[i] = c.Correlation
	}
	popMean := contracts.Mean(popValues)
	popStd := contracts.StdDev(popValues)

	top := make([]contracts.RankedRelationship, count)
	for i := 0; i < count; i++ {
		z := 0.0
		if popStd > 0 {
			z = (sorted[i].Correlation - popMean) / popStd
		}
		top[i] = contracts.RankedRelationship{
			LagCorrelation: sorted[i],
			Significance:   z,
			Rank:           i + 1,
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"pairs": len(pairs),
		"all":   len(all),
		"top":   len(top),
	}).Debug("Ranked lead-lag relationships")

	return all, top, nil
}

// bestLag picks the single strongest lag from a pair's profile.
// Tie-break: greater |corr| wins, then smaller |lag|, then the earlier
// lag in window order. Returns nil when no lag passed the sample floor.
func (r *Ranker) bestLag(table *contracts.AlignedTable, pair orderedPair, maxLag int) *contracts.LagCorrelation {
	lead, _ := table.Column(pair.lead)
	lag, _ := table.Column(pair.lag)

	profile := r.correlator.Correlate(lead, lag, maxLag)
	if len(profile) == 0 {
		return nil
	}

	best := profile[0]
	for _, c := range profile[1:] {
		switch {
		case math.Abs(c.Correlation) > math.Abs(best.Correlation):
			best = c
		case math.Abs(c.Correlation) == math.Abs(best.Correlation) && abs(c.Lag) < abs(best.Lag):
			best = c
		}
	}
	return &best
}
