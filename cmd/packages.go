package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List configured packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Packages) == 0 {
			fmt.Println("no packages configured")
			return nil
		}

		fmt.Printf("%-20s %-30s %-10s %-8s %s\n",
			"NAME", "LOCATION", "REMOTE", "ENABLED", "MAPPINGS")

		for _, pkg := range cfg.Packages {
			fmt.Printf("%-20s %-30s %-10s %-8t %d\n",
				pkg.Name, pkg.Location, pkg.Remote, pkg.Enabled, len(pkg.Mappings))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(packagesCmd)
}
