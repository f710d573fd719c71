package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/fixmart/fixmart/internal/logger"
	"github.com/fixmart/fixmart/internal/metrics"
	"github.com/go-redsync/redsync/v4"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepLockName = "fixmart:reconciler:prepay-sweep"

type PaymentService interface {
	// ExpireStalePrepayments closes orders whose prepayment window ran out
	ExpireStalePrepayments(ctx context.Context) (int, error)
}

// Reconciler is background sweep that force-closes orders with expired
// prepayment windows
type Reconciler struct {
	svc      PaymentService
	rs       *redsync.Redsync
	interval time.Duration
	cron     *cron.Cron
}

// NewReconciler creates new Reconciler instance. rs may be nil, then sweeps
// run without the cross-instance leader lock.
func NewReconciler(svc PaymentService, rs *redsync.Redsync, interval time.Duration) *Reconciler {
	return &Reconciler{
		svc:      svc,
		rs:       rs,
		interval: interval,
	}
}

// Start schedules periodic sweeps until Stop is called
func (r *Reconciler) Start(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", r.interval), func() {
		r.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	c.Start()
	r.cron = c

	logger.Log.Info("reconciler started", zap.Duration("interval", r.interval))
	return nil
}

// Stop stops scheduling and waits for running sweep to finish
func (r *Reconciler) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	logger.Log.Info("reconciler stopped")
}

// Sweep runs single reconciliation pass. Only one instance sweeps at a time:
// the leader lock expires with the sweep interval, an instance that fails to
// take it skips the pass instead of waiting.
func (r *Reconciler) Sweep(ctx context.Context) {
	if r.rs != nil {
		mutex := r.rs.NewMutex(sweepLockName,
			redsync.WithExpiry(r.interval),
			redsync.WithTries(1))
		if err := mutex.LockContext(ctx); err != nil {
			metrics.ReconcilerSweepsTotal.WithLabelValues("skipped").Inc()
			logger.Log.Debug("sweep skipped, lock not acquired", zap.Error(err))
			return
		}
		defer func() {
			if _, err := mutex.UnlockContext(ctx); err != nil {
				logger.Log.Warn("unlock sweep mutex", zap.Error(err))
			}
		}()
	}

	closed, err := r.svc.ExpireStalePrepayments(ctx)
	if err != nil {
		metrics.ReconcilerSweepsTotal.WithLabelValues("error").Inc()
		logger.Log.Error("reconciler sweep", zap.Error(err))
		return
	}

	metrics.ReconcilerSweepsTotal.WithLabelValues("ok").Inc()
	if closed > 0 {
		logger.Log.Info("reconciler sweep closed orders", zap.Int("closed", closed))
	}
}
