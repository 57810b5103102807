package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matthieukhl/pocketpos/internal/analytics"
	"github.com/matthieukhl/pocketpos/internal/inventory"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

var (
	reportTenant int64
	reportDate   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the dashboard of a tenant",
	Long: `Prints the figures of the home screen: the day's revenue and units,
the best selling product, this week against last week, the per-day series
of the current week and the products running low.`,
	RunE: printReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().Int64Var(&reportTenant, "tenant", 0, "Tenant to report on (required)")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Day for the daily totals, YYYY-MM-DD (default today)")
	_ = reportCmd.MarkFlagRequired("tenant")
}

func printReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	engine, err := a.analytics(inventory.NewStore(a.db, a.log))
	if err != nil {
		return err
	}
	t := tenant.ID(reportTenant)

	d, err := engine.Dashboard(ctx, t)
	if err != nil {
		return err
	}

	if reportDate != "" {
		day, err := time.ParseInLocation(analytics.DayLayout, reportDate, engine.Location())
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		if d.Today, err = engine.DailyTotals(ctx, t, day); err != nil {
			return err
		}
		d.Date = reportDate
	}

	fmt.Printf("\n📋 Report for tenant %d on %s\n", t.Int64(), d.Date)
	fmt.Println(strings.Repeat("─", 60))

	fmt.Printf("💰 Revenue: %.2f | Units sold: %d\n", d.Today.Revenue, d.Today.Units)
	if d.MostSold != nil {
		fmt.Printf("🏆 Best seller: %s (%d sold at %.2f)\n", d.MostSold.Name, d.MostSold.Quantity, d.MostSold.Price)
	} else {
		fmt.Println("🏆 Best seller: no sales yet")
	}

	trend := "📈"
	if d.WeekDelta < 0 {
		trend = "📉"
	}
	fmt.Printf("%s Week over week: %+.2f\n", trend, d.WeekDelta)
	fmt.Printf("🧾 Lifetime revenue: %.2f\n", d.TotalRevenue)

	fmt.Println("\n📅 This week:")
	for _, day := range d.WeekSeries {
		fmt.Printf("   %s  %10.2f\n", day.Date, day.Total)
	}

	if len(d.LowStock) == 0 {
		fmt.Println("\n📦 Stock levels OK")
		return nil
	}
	fmt.Printf("\n⚠️  %d product(s) running low:\n", len(d.LowStock))
	for _, p := range d.LowStock {
		fmt.Printf("   #%d %-30s stock %d\n", p.ID, p.Name, p.Stock)
	}
	return nil
}
