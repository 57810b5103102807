package cmd

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matthieukhl/pocketpos/internal/reconcile"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

// slowReconciler blocks until its pass is cancelled, then takes a moment to wind down
type slowReconciler struct {
	started  chan struct{}
	finished atomic.Bool
}

func (r *slowReconciler) Reconcile(ctx context.Context, t tenant.ID) (reconcile.Report, error) {
	close(r.started)
	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)
	r.finished.Store(true)
	return reconcile.Report{Tenant: t}, ctx.Err()
}

func TestStartWatcherWaitsForPass(t *testing.T) {
	rec := &slowReconciler{started: make(chan struct{})}
	tenants := func(context.Context) ([]tenant.ID, error) { return []tenant.ID{7}, nil }
	w := reconcile.NewWatcher(rec, tenants, nil)

	events := make(chan bool, 1)
	stop := startWatcher(context.Background(), w, events, zap.NewNop())
	events <- true

	select {
	case <-rec.started:
	case <-time.After(2 * time.Second):
		require.FailNow(t, "pass did not start")
	}

	stop()
	assert.True(t, rec.finished.Load(), "stop returned before the pass finished")
	assert.Equal(t, reconcile.Idle, w.State())
}
