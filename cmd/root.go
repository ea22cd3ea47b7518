package cmd

import (
	"errors"
	"fmt"
	"os"

	"sharesync/internal/config"
	"sharesync/internal/conflict"
	"sharesync/internal/db"
	"sharesync/internal/logger"
	"sharesync/internal/prompt"

	"github.com/spf13/cobra"
)

var (
	cfg   *config.Config
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "sharesync",
	Short: "Keep project trees and a shared git-backed repository in sync",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		logger.Init(debug)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		clientCmds := map[string]bool{
			"status": true, "stop": true, "packages": true,
			"install": true, "uninstall": true,
		}
		if !clientCmds[cmd.Name()] {
			if err := db.Init(cfg.DBPath); err != nil {
				return err
			}
		}

		return nil
	},
	// Bare invocation is the interactive run: pick packages, direction and
	// strategy, then sync exactly like the sync command would.
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		names, direction, strategy, err := prompt.RunMenu(cfg.Packages)
		if err != nil {
			if errors.Is(err, conflict.ErrPromptAborted) {
				fmt.Println("aborted")
				return nil
			}
			return err
		}

		return runSync(names, direction, strategy, syncFlags{continueOnError: true})
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func daemonURL(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", cfg.DaemonPort, path)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
