package cmd

import (
	"fmt"

	"sharesync/internal/model"
	"sharesync/internal/repository"

	"github.com/spf13/cobra"
)

var (
	historyN      int
	historyFailed bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync history",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := repository.NewHistoryRepository()

		var histories []model.History
		var err error
		if historyFailed {
			histories, err = repo.GetFailed()
		} else {
			histories, err = repo.GetRecent(historyN)
		}
		if err != nil {
			return err
		}

		if len(histories) == 0 {
			fmt.Println("no history yet")
			return nil
		}

		for _, h := range histories {
			symbol := "✓"
			switch h.Status {
			case model.StatusFailed:
				symbol = "✗"
			case model.StatusWarning:
				symbol = "!"
			}

			line := fmt.Sprintf("%s [%s] %-14s %-11s %s <-> %s  →%d ←%d",
				symbol,
				h.SyncedAt.Format("2006-01-02 15:04:05"),
				h.Package,
				h.Direction,
				h.ProjectPath,
				h.SharedPath,
				h.FilesToShared,
				h.FilesFromShared)

			if h.DryRun {
				line += " [dry-run]"
			}
			if h.ErrMsg != "" {
				line += "  " + h.ErrMsg
			}

			fmt.Println(line)
		}

		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyN, "count", "n", 20, "number of history entries to show")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "show only failed runs")
	rootCmd.AddCommand(historyCmd)
}
