package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SessionPurger removes expired entries from the revocation ledger.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// MaintenanceRunner periodically sweeps expired revoked tokens so the ledger
// only holds entries that can still affect a live token.
type MaintenanceRunner struct {
	purger     SessionPurger
	interval   time.Duration
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewMaintenanceRunner creates a runner that invokes the purger on the given
// interval. If interval is zero it defaults to one hour.
func NewMaintenanceRunner(
	purger SessionPurger,
	interval time.Duration,
	logger *slog.Logger,
) *MaintenanceRunner {
	if interval == 0 {
		interval = time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &MaintenanceRunner{
		purger:     purger,
		interval:   interval,
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger.With("component", "maintenance_runner"),
	}
}

// Start begins the periodic sweep in a background goroutine.
func (m *MaintenanceRunner) Start() {
	m.wg.Add(1)
	go m.run()
}

// Stop cancels the sweep loop and waits for it to finish.
func (m *MaintenanceRunner) Stop() {
	m.cancelFunc()
	m.wg.Wait()
}

func (m *MaintenanceRunner) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("starting maintenance runner", "interval", m.interval)

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Debug("stopping maintenance runner")
			return

		case <-ticker.C:
			removed, err := m.purger.PurgeExpired(m.ctx)
			if err != nil {
				m.logger.Error("failed to purge expired tokens", "error", err)
				continue
			}
			if removed > 0 {
				m.logger.Info("purged expired revoked tokens", "count", removed)
			}
		}
	}
}
