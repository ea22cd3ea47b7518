package cmd

import (
	"fmt"

	"sharesync/internal/gitcmd"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show shared repository status per package",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Packages) == 0 {
			fmt.Println("no packages configured")
			return nil
		}

		g := gitcmd.New(cfg.GitTimeout)

		fmt.Printf("%-20s %-8s %-8s %-8s %s\n",
			"PACKAGE", "REPO", "DIRTY", "AHEAD", "REMOTE")

		for _, pkg := range cfg.Packages {
			location := cfg.PackageLocation(pkg)

			if location == "" || !g.IsRepo(location) {
				fmt.Printf("%-20s %-8s %-8s %-8s %s\n", pkg.Name, "no", "-", "-", "-")
				continue
			}

			status, err := g.Status(location, pkg.Remote)
			if err != nil {
				fmt.Printf("%-20s %-8s error: %v\n", pkg.Name, "yes", err)
				continue
			}

			remote := "-"
			if ok, url := g.RemoteExists(location, pkg.Remote); ok {
				remote = url
			}

			dirty := fmt.Sprintf("%d", len(status.DirtyFiles))
			fmt.Printf("%-20s %-8s %-8s %-8d %s\n",
				pkg.Name, "yes", dirty, status.Ahead, remote)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
