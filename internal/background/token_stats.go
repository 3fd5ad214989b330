package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/dscatalog/internal/metrics"
)

// ValidTokenCounter counts recovery tokens that are unused and unexpired at now
type ValidTokenCounter interface {
	CountValid(ctx context.Context, now time.Time) (int64, error)
}

// TokenStatsReporter periodically publishes the number of valid recovery tokens.
// It only reads; expired tokens stay in the table.
type TokenStatsReporter struct {
	counter  ValidTokenCounter
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewTokenStatsReporter creates a new reporter
func NewTokenStatsReporter(counter ValidTokenCounter, logger *slog.Logger, interval time.Duration) *TokenStatsReporter {
	if interval <= 0 {
		interval = time.Minute
	}
	return &TokenStatsReporter{
		counter:  counter,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start blocks, reporting once immediately and then on every tick, until Stop or ctx is done
func (tr *TokenStatsReporter) Start(ctx context.Context) {
	ticker := time.NewTicker(tr.interval)
	defer ticker.Stop()

	tr.report(ctx)

	for {
		select {
		case <-ticker.C:
			tr.report(ctx)
		case <-tr.stopCh:
			tr.logger.Info("token stats reporter stopped")
			return
		case <-ctx.Done():
			tr.logger.Info("token stats reporter context cancelled")
			return
		}
	}
}

func (tr *TokenStatsReporter) report(ctx context.Context) {
	countCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, err := tr.counter.CountValid(countCtx, tr.now())
	if err != nil {
		tr.logger.Error("failed to count valid recovery tokens", slog.Any("error", err))
		return
	}

	metrics.RecoveryTokensValid.Set(float64(count))
	tr.logger.Debug("recovery token stats", slog.Int64("valid", count))
}

// Stop signals the reporter to stop. Safe to call more than once.
func (tr *TokenStatsReporter) Stop() {
	tr.stopOnce.Do(func() { close(tr.stopCh) })
}
