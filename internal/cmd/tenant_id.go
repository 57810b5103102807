package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matthieukhl/pocketpos/internal/tenant"
)

var tenantIDCmd = &cobra.Command{
	Use:   "tenant-id <email>",
	Short: "Print the tenant id an owner email maps to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(tenant.FromEmail(args[0]).String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tenantIDCmd)
}
