package main

import (
	"github.com/spf13/cobra"
	"stormlightlabs.org/gamedb/cmd"
	"stormlightlabs.org/gamedb/internal/echo"
)

// RootCmd is the root command for the gamedb CLI
var RootCmd = &cobra.Command{
	Use:   "gamedb",
	Short: "Game-event ingest and reconstruction toolkit",
	Long: echo.HeaderStyle().Render("gamedb") + "\n\n" +
		"Ingests game snapshots from the chronicler archive and reconstructs\n" +
		"them into a queryable event-level store.",
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Path to config file (defaults to conf.toml)")
	RootCmd.AddCommand(cmd.IngestCmd())
	RootCmd.AddCommand(cmd.DbCmd())
	RootCmd.AddCommand(cmd.ServerCmd())
	RootCmd.AddCommand(cmd.CacheCmd())
}
