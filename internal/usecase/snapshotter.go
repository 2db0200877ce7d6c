// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/naka-gawa/issue-snapshot/internal/domain"
	"github.com/naka-gawa/issue-snapshot/internal/gateway"
	"github.com/naka-gawa/issue-snapshot/internal/repository"
)

// Snapshotter is the use case for taking the daily issue snapshot.
// It counts first and only records once both counts are known.
type Snapshotter struct {
	counter  gateway.Counter
	recorder repository.Recorder
	clock    func() time.Time
	logger   *zap.Logger
}

// Result is the outcome of one run.
type Result struct {
	Snapshot domain.Snapshot   `json:"snapshot"`
	History  []domain.Snapshot `json:"history"`
	Summary  Summary           `json:"summary"`
}

// NewSnapshotter creates a new Snapshotter that dates snapshots with the local wall clock.
func NewSnapshotter(counter gateway.Counter, recorder repository.Recorder, logger *zap.Logger) *Snapshotter {
	return &Snapshotter{
		counter:  counter,
		recorder: recorder,
		clock:    time.Now,
		logger:   logger,
	}
}

// WithClock replaces the clock used to date snapshots.
func (s *Snapshotter) WithClock(clock func() time.Time) *Snapshotter {
	s.clock = clock
	return s
}

// Run counts the issues of repo and records today's snapshot.
func (s *Snapshotter) Run(ctx context.Context, repo domain.RepoID) (*Result, error) {
	s.logger.Info("Usecase: Starting snapshot...", zap.Stringer("repo", repo))

	counts, err := s.counter.CountIssues(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to count issues of %s: %w", repo, err)
	}

	snap := domain.NewSnapshot(s.clock(), counts)
	history, err := s.recorder.Record(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("failed to record snapshot: %w", err)
	}

	summary := Summarize(history, snap)
	s.logger.Info("Usecase: Snapshot complete.",
		zap.String("date", snap.Day()),
		zap.Int("open", snap.Open),
		zap.Int("closed", snap.Closed),
		zap.Int("days", summary.Days),
		zap.Float64("mean_open", summary.MeanOpen),
		zap.Float64("median_open", summary.MedianOpen),
		zap.Int("open_delta", summary.OpenDelta),
	)
	return &Result{Snapshot: snap, History: history, Summary: summary}, nil
}
