package cmd

import (
	"context"
	"fmt"
	"strings"

	"roam/internal/domain"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the active server",
	Run: func(cmd *cobra.Command, args []string) {
		handlePower(cmd.Context(), true)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active server",
	Run: func(cmd *cobra.Command, args []string) {
		handlePower(cmd.Context(), false)
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Start the active server if it is offline, stop it otherwise",
	Run: func(cmd *cobra.Command, args []string) {
		handleToggle(cmd.Context())
	},
}

var takeoverCmd = &cobra.Command{
	Use:   "takeover",
	Short: "Take control of an orphaned server process",
	Run: func(cmd *cobra.Command, args []string) {
		handleTakeover(cmd.Context())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active server's status",
	Run: func(cmd *cobra.Command, args []string) {
		handleStatus(cmd.Context())
	},
}

var consoleCmdCmd = &cobra.Command{
	Use:   "cmd [command...]",
	Short: "Send a console command to the running server",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleSendCommand(cmd.Context(), strings.Join(args, " "))
	},
}

func init() {
	RootCmd.AddCommand(startCmd, stopCmd, toggleCmd, takeoverCmd, statusCmd, consoleCmdCmd)
}

func requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, App.Config.RequestTimeout())
}

func handlePower(ctx context.Context, start bool) {
	requireSession()
	requireBackend()

	ctx, cancel := requestContext(ctx)
	defer cancel()

	if err := App.Session.RefreshStats(ctx); err != nil {
		fatal("Error getting server status: %v", err)
	}
	active := App.Session.Stats().Status.Active()
	switch {
	case start && active:
		fmt.Println("Server is already running.")
		return
	case !start && !active:
		fmt.Println("Server is not running.")
		return
	}

	if err := App.Session.ToggleServer(ctx); err != nil {
		fatal("Error: %v", err)
	}
	if start {
		fmt.Println("Start command sent.")
	} else {
		fmt.Println("Stop command sent.")
	}
}

func handleToggle(ctx context.Context) {
	requireSession()
	requireBackend()

	ctx, cancel := requestContext(ctx)
	defer cancel()

	if err := App.Session.RefreshStats(ctx); err != nil {
		fatal("Error getting server status: %v", err)
	}
	if err := App.Session.ToggleServer(ctx); err != nil {
		fatal("Error: %v", err)
	}
	fmt.Printf("Server is now %s.\n", App.Session.Stats().Status)
}

func handleTakeover(ctx context.Context) {
	requireSession()
	requireBackend()

	ctx, cancel := requestContext(ctx)
	defer cancel()

	if err := App.Session.TakeOverOrphan(ctx); err != nil {
		fatal("Error taking over server: %v", err)
	}
	fmt.Println("Orphaned process stopped and restarted under roam.")
}

func handleStatus(ctx context.Context) {
	active := App.Session.Active()
	if active == nil {
		fmt.Println("No server selected.")
		return
	}

	ctx, cancel := requestContext(ctx)
	defer cancel()

	if err := App.Session.RefreshStats(ctx); err != nil {
		fatal("Error getting server status: %v", err)
	}
	stats := App.Session.Stats()
	cores := stats.CoreCount
	if cores <= 1 {
		if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
			cores = n
		}
	}

	fmt.Println("\n--- SERVER STATUS ---")
	fmt.Printf("Server:   %s (%s)\n", active.DisplayName(), active.Path)
	fmt.Printf("Status:   %s\n", stats.Status)
	if !App.Session.Live() {
		fmt.Printf("Daemon:   not reachable at %s\n", App.Config.DaemonURL)
		return
	}
	fmt.Printf("CPU:      %.1f%% (%d cores)\n", stats.CPU, cores)
	fmt.Printf("Memory:   %d MB / %s\n", stats.Memory/1024/1024, active.MaxRAM)
	fmt.Printf("Players:  %d\n", stats.PlayerCount)
	if active.Tunnel != nil && active.Tunnel.Provider != domain.ProviderNone {
		fmt.Printf("Tunnel:   %s (%s)\n", active.Tunnel.Provider, stats.TunnelStatus)
	}
}

func handleSendCommand(ctx context.Context, text string) {
	requireSession()
	requireBackend()

	ctx, cancel := requestContext(ctx)
	defer cancel()

	if err := App.Session.RefreshStats(ctx); err != nil {
		fatal("Error getting server status: %v", err)
	}
	if App.Session.Stats().Status != domain.StatusRunning {
		fatal("Server is not running.")
	}
	if err := App.Session.SendCommand(ctx, text); err != nil {
		fatal("Error sending command: %v", err)
	}
	fmt.Println("Command sent.")
}
