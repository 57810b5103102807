package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matthieukhl/pocketpos/internal/connectivity"
	"github.com/matthieukhl/pocketpos/internal/inventory"
	"github.com/matthieukhl/pocketpos/internal/media"
	"github.com/matthieukhl/pocketpos/internal/reconcile"
	"github.com/matthieukhl/pocketpos/internal/remote"
	"github.com/matthieukhl/pocketpos/internal/sales"
	"github.com/matthieukhl/pocketpos/internal/server"
	"github.com/matthieukhl/pocketpos/internal/users"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the PocketPOS server",
	Long: `Start the PocketPOS server which provides:
- REST API for products, sales, analytics and accounts
- Background sync to the remote store whenever it becomes reachable
- Prometheus metrics on /api/metrics`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	fmt.Println("🚀 PocketPOS Starting...")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("📝 Loading configuration and local store...")
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println("✅ Local store ready")

	products := inventory.NewStore(a.db, a.log)
	recorder := sales.NewRecorder(a.db, a.log)
	recorder.StrictStock = a.cfg.Sales.StrictStock

	engine, err := a.analytics(products)
	if err != nil {
		return err
	}

	deps := server.Deps{
		DB:                a.db,
		Products:          products,
		Sales:             recorder,
		Analytics:         engine,
		Users:             users.NewStore(a.db, a.log),
		LowStockThreshold: a.cfg.Sales.LowStockThreshold,
		AllowOrigins:      a.cfg.Server.AllowOrigins,
		Log:               a.log,
	}

	if a.cfg.Sync.Enabled {
		fmt.Printf("🔄 Connecting remote store (%s)...\n", a.cfg.Remote.Provider)
		rs, err := remote.New(ctx, &a.cfg.Remote)
		if err != nil {
			return fmt.Errorf("failed to create remote store: %w", err)
		}
		defer rs.Close()

		watcher := reconcile.NewWatcher(reconcile.NewFullResend(a.db, rs, a.log), a.db.ListTenants, a.log)
		deps.Sync = watcher

		prober := connectivity.NewProber(rs.Ping, a.cfg.Sync.ProbeInterval, a.cfg.Sync.ProbeTimeout, a.log)
		events := prober.Subscribe()
		if err := prober.Start(); err != nil {
			return err
		}
		defer prober.Stop()

		defer startWatcher(ctx, watcher, events, a.log)()
	}

	if a.cfg.Media.Enabled {
		fmt.Println("🖼️  Connecting image storage...")
		images, err := media.NewImageStore(&a.cfg.Media, a.log)
		if err != nil {
			return err
		}
		if err := images.EnsureBucket(ctx); err != nil {
			return err
		}
		deps.Images = images
	}

	fmt.Println("⚙️  Setting up server...")
	srv := server.NewServer(deps)

	fmt.Printf("🌐 Starting server on %s...\n", a.cfg.Server.Addr)
	if err := srv.Start(ctx, a.cfg.Server.Addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	fmt.Println("👋 Server stopped")
	return nil
}

// startWatcher runs w in the background. The returned func cancels it and
// blocks until any pass in flight has returned, so it must run before the
// remote store and the local database are closed.
func startWatcher(ctx context.Context, w *reconcile.Watcher, events <-chan bool, log *zap.Logger) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx, events); err != nil && ctx.Err() == nil {
			log.Error("sync watcher stopped", zap.Error(err))
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

