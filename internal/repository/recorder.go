package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/naka-gawa/issue-snapshot/internal/config"
	"github.com/naka-gawa/issue-snapshot/internal/domain"
)

// ConnectingRecorder opens a new connection for every Record call and
// releases it before returning, whether or not the write succeeded.
type ConnectingRecorder struct {
	cfg    config.Database
	logger *zap.Logger
}

var _ Recorder = (*ConnectingRecorder)(nil)

// NewConnectingRecorder creates a Recorder for the given database settings.
func NewConnectingRecorder(cfg config.Database, logger *zap.Logger) *ConnectingRecorder {
	return &ConnectingRecorder{cfg: cfg, logger: logger}
}

// Record opens the store, records snap and closes the store.
func (r *ConnectingRecorder) Record(ctx context.Context, snap domain.Snapshot) (history []domain.Snapshot, err error) {
	store, err := Open(ctx, r.cfg, r.logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			history, err = nil, fmt.Errorf("failed to close database: %w", cerr)
		}
	}()

	return store.Record(ctx, snap)
}
