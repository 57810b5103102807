package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/matthieukhl/pocketpos/internal/analytics"
	"github.com/matthieukhl/pocketpos/internal/config"
	"github.com/matthieukhl/pocketpos/internal/connectivity"
	"github.com/matthieukhl/pocketpos/internal/database"
	"github.com/matthieukhl/pocketpos/internal/inventory"
	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/reconcile"
	"github.com/matthieukhl/pocketpos/internal/remote"
	"github.com/matthieukhl/pocketpos/internal/sales"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

// Walks through a day of selling without network, then coming back online
// and watching the records reach an in-memory remote.
func main() {
	dir, err := os.MkdirTemp("", "pocketpos-demo")
	if err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	db, err := database.NewConnection(&config.DBConfig{Path: filepath.Join(dir, "pos.db"), MaxOpenConns: 1})
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to setup schema: %v", err)
	}

	shop := tenant.FromEmail("owner@corner.shop")
	products := inventory.NewStore(db, nil)
	recorder := sales.NewRecorder(db, nil)
	engine := analytics.NewEngine(db, products)

	fmt.Printf("Tenant for owner@corner.shop: %d\n", shop.Int64())

	catalog := []models.ProductInput{
		{Name: "Soda", Price: 1.5, Stock: 24, IsAvailable: true},
		{Name: "Chips", Price: 2.0, Stock: 10, IsAvailable: true},
		{Name: "Gum", Price: 0.5, Stock: 5, IsAvailable: true},
	}
	var items []models.Product
	for _, in := range catalog {
		id, err := products.CreateProduct(ctx, shop, in)
		if err != nil {
			log.Fatalf("Failed to create product: %v", err)
		}
		p, err := products.GetProduct(ctx, id, shop)
		if err != nil {
			log.Fatalf("Failed to read product: %v", err)
		}
		items = append(items, *p)
	}

	// the remote starts unreachable
	mirror := remote.NewMemory()
	mirror.SetOnline(false)

	prober := connectivity.NewProber(mirror.Ping, time.Hour, time.Second, nil)
	events := prober.Subscribe()
	watcher := reconcile.NewWatcher(reconcile.NewFullResend(db, mirror, nil), db.ListTenants, nil)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- watcher.Run(runCtx, events) }()

	fmt.Printf("\n=== Offline: remote reachable = %t ===\n", prober.Check(ctx))

	for i := 0; i < 3; i++ {
		var cart sales.Cart
		for j, p := range items {
			if err := cart.Add(p, 1+(i+j)%2); err != nil {
				log.Fatalf("Failed to add to cart: %v", err)
			}
		}
		total := cart.Total()
		id, err := cart.Checkout(ctx, recorder, shop, time.Now())
		if err != nil {
			log.Fatalf("Failed to check out: %v", err)
		}
		fmt.Printf("Sale %d recorded locally, total %.2f\n", id, total)
	}

	d, err := engine.Dashboard(ctx, shop)
	if err != nil {
		log.Fatalf("Failed to build dashboard: %v", err)
	}
	fmt.Printf("\nToday: revenue %.2f, units %d\n", d.Today.Revenue, d.Today.Units)
	if d.MostSold != nil {
		fmt.Printf("Best seller: %s (%d)\n", d.MostSold.Name, d.MostSold.Quantity)
	}
	for _, p := range d.LowStock {
		fmt.Printf("Low stock: %s (%d left)\n", p.Name, p.Stock)
	}
	fmt.Printf("Remote holds %d sales\n", len(mirror.Sales()))

	mirror.SetOnline(true)
	fmt.Printf("\n=== Online: remote reachable = %t ===\n", prober.Check(ctx))

	deadline := time.Now().Add(5 * time.Second)
	for len(mirror.SaleItems()) < 9 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	for watcher.State() == reconcile.Syncing && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	fmt.Printf("Remote holds %d products, %d sales, %d line items\n",
		len(mirror.Products()), len(mirror.Sales()), len(mirror.SaleItems()))
	for _, sale := range mirror.Sales() {
		fmt.Printf("   sale %d at %s  %.2f\n", sale.ID, sale.Time().Local().Format("15:04:05"), sale.Total)
	}

	cancel()
	<-done
	prober.Stop()

	fmt.Println("\nOffline sync walkthrough completed successfully!")
}
