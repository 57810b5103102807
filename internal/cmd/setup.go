package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matthieukhl/pocketpos/internal/inventory"
	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/remote"
	"github.com/matthieukhl/pocketpos/internal/sales"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

var (
	dropFirst   bool
	seedData    bool
	seedTenant  int64
	setupRemote bool
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Set up the local store schema and optional demo data",
	Long: `Creates the local tables (products, sales, sales_products, users, plans).

With --seed, fills one tenant with a demo catalog and two weeks of sales
so the dashboard and reports have something to show. With --remote, also
creates the mirror tables on a MySQL remote store.`,
	RunE: setupStore,
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().BoolVar(&dropFirst, "drop-first", false, "Drop products and sales tables before creating")
	setupCmd.Flags().BoolVar(&seedData, "seed", false, "Populate a tenant with demo data")
	setupCmd.Flags().Int64Var(&seedTenant, "tenant", 0, "Tenant to seed")
	setupCmd.Flags().BoolVar(&setupRemote, "remote", false, "Create mirror tables on the remote store (mysql provider)")
}

func setupStore(cmd *cobra.Command, args []string) error {
	fmt.Println("🔧 Setting up local store...")

	ctx := cmd.Context()
	if seedData && seedTenant <= 0 {
		return fmt.Errorf("--seed needs --tenant")
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if dropFirst {
		fmt.Println("🗑️  Dropping existing tables...")
		if err := a.db.DropSchema(ctx); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
		if err := a.db.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	fmt.Println("📋 Schema ready")

	if seedData {
		fmt.Printf("📊 Seeding tenant %d...\n", seedTenant)
		if err := seed(ctx, inventory.NewStore(a.db, a.log), sales.NewRecorder(a.db, a.log), tenant.ID(seedTenant), time.Now()); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	if setupRemote {
		rs, err := remote.New(ctx, &a.cfg.Remote)
		if err != nil {
			return fmt.Errorf("failed to create remote store: %w", err)
		}
		defer rs.Close()

		mirror, ok := rs.(*remote.MySQL)
		if !ok {
			fmt.Printf("⚠️  Remote provider %q needs no setup\n", a.cfg.Remote.Provider)
		} else {
			fmt.Println("🌍 Creating remote mirror tables...")
			if err := mirror.Setup(ctx); err != nil {
				return err
			}
		}
	}

	fmt.Println("✅ Setup complete!")
	return nil
}

var demoCatalog = []models.ProductInput{
	{Name: "Soda 500ml", Price: 1.50, Stock: 120, IsAvailable: true},
	{Name: "Mineral Water", Price: 0.90, Stock: 200, IsAvailable: true},
	{Name: "Potato Chips", Price: 2.00, Stock: 80, IsAvailable: true},
	{Name: "Chocolate Bar", Price: 1.20, Stock: 60, IsAvailable: true},
	{Name: "Instant Coffee", Price: 4.75, Stock: 25, IsAvailable: true},
	{Name: "White Bread", Price: 2.30, Stock: 30, IsAvailable: true},
	{Name: "Milk 1L", Price: 1.10, Stock: 40, IsAvailable: true},
	{Name: "Eggs (dozen)", Price: 3.40, Stock: 18, IsAvailable: true},
	{Name: "Rice 1kg", Price: 1.80, Stock: 50, IsAvailable: true},
	{Name: "Chewing Gum", Price: 0.50, Stock: 12, IsAvailable: true},
}

// seed creates the demo catalog and three sales a day for the last 14 days,
// checked out through a cart so totals follow catalog prices
func seed(ctx context.Context, products *inventory.Store, recorder *sales.Recorder, t tenant.ID, now time.Time) error {
	fmt.Println("   📦 Creating products...")
	catalog := make([]models.Product, 0, len(demoCatalog))
	for _, in := range demoCatalog {
		id, err := products.CreateProduct(ctx, t, in)
		if err != nil {
			return err
		}
		catalog = append(catalog, models.Product{ID: id, TenantID: t.Int64(), Name: in.Name, Price: in.Price, Stock: in.Stock})
	}

	fmt.Println("   🛒 Creating sales...")
	sold := 0
	for day := 13; day >= 0; day-- {
		for n := 0; n < 3; n++ {
			at := now.AddDate(0, 0, -day).Add(-time.Duration(n*2) * time.Hour)

			var cart sales.Cart
			lines := 1 + (day+n)%3
			for i := 0; i < lines; i++ {
				p := catalog[(day*3+n+i*4)%len(catalog)]
				if err := cart.Add(p, 1+(i+n)%2); err != nil {
					return err
				}
			}
			if _, err := cart.Checkout(ctx, recorder, t, at); err != nil {
				return err
			}
			sold++
		}
	}

	fmt.Printf("   ✅ %d products, %d sales\n", len(catalog), sold)
	return nil
}
