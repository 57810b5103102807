package reconcile

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/matthieukhl/pocketpos/internal/logger"
	"github.com/matthieukhl/pocketpos/internal/metrics"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

// ErrBusy is returned when a pass is requested while one is running
var ErrBusy = errors.New("reconcile already in progress")

type State int

const (
	Idle State = iota
	Syncing
)

func (s State) String() string {
	if s == Syncing {
		return "syncing"
	}
	return "idle"
}

// TenantSource lists the tenants a pass covers
type TenantSource func(ctx context.Context) ([]tenant.ID, error)

// Watcher runs a reconcile pass whenever connectivity comes back. At most
// one pass runs at a time; triggers that arrive during a pass are dropped.
type Watcher struct {
	rec     Reconciler
	tenants TenantSource
	log     *zap.Logger

	mu    sync.Mutex
	state State
	wg    sync.WaitGroup
}

func NewWatcher(rec Reconciler, tenants TenantSource, log *zap.Logger) *Watcher {
	return &Watcher{rec: rec, tenants: tenants, log: logger.OrNop(log).Named("watcher")}
}

func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Run consumes connectivity states until ctx ends or events is closed.
// Each change to online, the first online state included, starts a pass
// in the background. Run waits for a running pass before returning.
func (w *Watcher) Run(ctx context.Context, events <-chan bool) error {
	defer w.wg.Wait()

	var seen, last bool
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case online, ok := <-events:
			if !ok {
				return nil
			}
			cameOnline := online && (!seen || !last)
			seen, last = true, online
			if !cameOnline {
				continue
			}
			if !w.begin() {
				w.log.Debug("connectivity restored during a pass, ignored")
				continue
			}
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				defer w.end()
				w.log.Info("connectivity restored, reconciling")
				_, _ = w.pass(ctx)
			}()
		}
	}
}

// Trigger runs a pass over every tenant now and returns its reports
func (w *Watcher) Trigger(ctx context.Context) ([]Report, error) {
	if !w.begin() {
		return nil, ErrBusy
	}
	defer w.end()
	return w.pass(ctx)
}

// TriggerTenant runs a pass for a single tenant
func (w *Watcher) TriggerTenant(ctx context.Context, t tenant.ID) (Report, error) {
	if !w.begin() {
		return Report{}, ErrBusy
	}
	defer w.end()
	return w.rec.Reconcile(ctx, t)
}

func (w *Watcher) begin() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Syncing {
		return false
	}
	w.state = Syncing
	metrics.SyncSyncing.Set(1)
	return true
}

func (w *Watcher) end() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = Idle
	metrics.SyncSyncing.Set(0)
}

func (w *Watcher) pass(ctx context.Context) ([]Report, error) {
	tenants, err := w.tenants(ctx)
	if err != nil {
		w.log.Error("failed to list tenants", zap.Error(err))
		return nil, err
	}

	var (
		reports []Report
		errs    []error
	)
	for _, t := range tenants {
		report, err := w.rec.Reconcile(ctx, t)
		reports = append(reports, report)
		if err != nil {
			w.log.Error("reconcile failed", zap.Int64("tenant", t.Int64()), zap.Error(err))
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
	}
	return reports, errors.Join(errs...)
}
