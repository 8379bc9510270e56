// Package main provides the CLI entry point for the RoomStage design service.
//
// RoomStage lets shoppers stage furniture, wall colors, wall textures, and
// floor tiles on a photo of their room and see AI-generated visualizations
// of the result, with undo/redo across renders.
//
// # Basic Usage
//
// Start the server:
//
//	roomstage serve --config roomstage.yaml
//
// Initialize the database schema:
//
//	roomstage migrate
//
// # Environment Variables
//
// Configuration values may reference environment variables with ${VAR}
// syntax; common ones:
//
//   - ROOMSTAGE_BACKEND_API_KEY: API key for the rendering backend
//   - ROOMSTAGE_JWT_SECRET: secret for session token signing
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "roomstage",
		Short:        "RoomStage - AI room visualization service",
		Long:         "RoomStage serves the design-canvas API: staged items, AI visualizations, undo/redo history, and saved looks.",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildMigrateCmd(),
		buildVersionCmd(),
	)

	return rootCmd
}
