package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup [world]",
	Short: "Back up a world of the active server",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleBackup(cmd.Context(), args[0])
	},
}

var worldsCmd = &cobra.Command{
	Use:   "worlds",
	Short: "List the worlds of the active server",
	Run: func(cmd *cobra.Command, args []string) {
		handleWorlds(cmd.Context())
	},
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List players known to the active server",
	Run: func(cmd *cobra.Command, args []string) {
		handlePlayers(cmd.Context())
	},
}

func init() {
	RootCmd.AddCommand(backupCmd, worldsCmd, playersCmd)
}

func handleBackup(ctx context.Context, world string) {
	requireSession()
	requireBackend()

	// archiving large worlds takes a while, so no request timeout here
	filename, err := App.Session.BackupWorld(ctx, world)
	if err != nil {
		fatal("Error creating backup: %v", err)
	}
	fmt.Println("Backup created successfully.")
	fmt.Printf("File: %s\n", filename)
}

func handleWorlds(ctx context.Context) {
	requireSession()
	requireBackend()

	ctx, cancel := requestContext(ctx)
	defer cancel()

	if err := App.Session.RefreshWorlds(ctx); err != nil {
		fatal("Error listing worlds: %v", err)
	}
	worlds := App.Session.Worlds()
	if len(worlds) == 0 {
		fmt.Println("No worlds found.")
		return
	}

	fmt.Printf("%-25s %-12s %s\n", "NAME", "SIZE", "LAST MODIFIED")
	for _, w := range worlds {
		fmt.Printf("%-25s %-12s %s\n", w.Name, fmt.Sprintf("%.2f MB", w.SizeMB), w.LastModified)
	}
}

func handlePlayers(ctx context.Context) {
	requireSession()
	requireBackend()

	ctx, cancel := requestContext(ctx)
	defer cancel()

	if err := App.Session.RefreshPlayers(ctx); err != nil {
		fatal("Error listing players: %v", err)
	}
	players := App.Session.Players()
	if len(players) == 0 {
		fmt.Println("No players have joined yet.")
		return
	}

	fmt.Printf("%-18s %-38s %-12s %s\n", "NAME", "UUID", "PLAYED", "STEPS")
	for _, p := range players {
		played := fmt.Sprintf("%.1f h", p.TimePlayed)
		fmt.Printf("%-18s %-38s %-12s %d\n", p.Name, p.UUID, played, p.Steps)
	}
}
