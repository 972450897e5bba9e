package queue

import (
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/casefold/tabular/internal/detect"
)

// staged is a queue item before persistence, derived purely from
// classification.
type staged struct {
	state    CellState
	priority int
	reason   string
}

// stage classifies every cell and returns entries for those that need
// review, ordered by priority then grid position. Classification is
// pure per cell, so cells fan out across a bounded worker group.
func stage(classifier *detect.Classifier, cells []CellState, workers int) []staged {
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]detect.Outcome, len(cells))

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range cells {
		g.Go(func() error {
			outcomes[i] = classifier.Classify(cells[i].Input)
			return nil
		})
	}
	_ = g.Wait()

	items := make([]staged, 0, len(cells))
	for i, out := range outcomes {
		if !out.Queued() {
			continue
		}
		items = append(items, staged{
			state:    cells[i],
			priority: out.Priority,
			reason:   out.Reasons.String(),
		})
	}

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].priority < items[b].priority
	})

	return items
}

// stagedStats aggregates a freshly staged queue, before persistence.
func stagedStats(items []staged) Stats {
	stats := newStats()
	for _, item := range items {
		stats.add(item.priority, item.reason)
	}
	return stats
}
