package usecase

import (
	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/issue-snapshot/internal/domain"
)

// Summary describes the stored history around one snapshot.
type Summary struct {
	Days       int     `json:"days"`
	MeanOpen   float64 `json:"mean_open"`
	MedianOpen float64 `json:"median_open"`
	// OpenDelta and ClosedDelta compare with the latest earlier snapshot and are zero without one.
	OpenDelta   int  `json:"open_delta"`
	ClosedDelta int  `json:"closed_delta"`
	HasPrevious bool `json:"has_previous"`
}

// Summarize computes the open count statistics of history and the change of
// current against the most recent snapshot dated before it.
func Summarize(history []domain.Snapshot, current domain.Snapshot) Summary {
	summary := Summary{Days: len(history)}
	if len(history) == 0 {
		return summary
	}

	opens := make([]int, 0, len(history))
	var previous *domain.Snapshot
	for i := range history {
		h := history[i]
		opens = append(opens, h.Open)
		if h.Date.Before(current.Date) && (previous == nil || h.Date.After(previous.Date)) {
			previous = &history[i]
		}
	}

	data := stats.LoadRawData(opens)
	// Both only fail on empty input, which is ruled out above.
	summary.MeanOpen, _ = stats.Mean(data)
	summary.MedianOpen, _ = stats.Median(data)

	if previous != nil {
		summary.HasPrevious = true
		summary.OpenDelta = current.Open - previous.Open
		summary.ClosedDelta = current.Closed - previous.Closed
	}
	return summary
}
