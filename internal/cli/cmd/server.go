package cmd

import (
	"context"
	"fmt"
	"strconv"

	"roam/internal/server"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage configured servers",
}

var addName, addJar string
var addRam int

var serverAddCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Add a server directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleAdd(addName, args[0], addJar, addRam)
	},
}

var serverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all servers",
	Run: func(cmd *cobra.Command, args []string) {
		handleList()
	},
}

var deletePurge bool

var serverDeleteCmd = &cobra.Command{
	Use:   "delete [index]",
	Short: "Remove a server from the list",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if deletePurge {
			handlePurge(cmd.Context(), parseIndex(args[0]))
			return
		}
		handleDelete(parseIndex(args[0]))
	},
}

var serverSelectCmd = &cobra.Command{
	Use:   "select [index]",
	Short: "Make a server the active session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleSelect(cmd.Context(), parseIndex(args[0]))
	},
}

var serverOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the active server's folder",
	Run: func(cmd *cobra.Command, args []string) {
		handleOpen()
	},
}

var jarAdd bool
var jarRam int

var serverJarCmd = &cobra.Command{
	Use:   "jar",
	Short: "Pick a server jar through the daemon",
	Run: func(cmd *cobra.Command, args []string) {
		handleSelectJar(cmd.Context(), jarAdd, jarRam)
	},
}

func init() {
	serverAddCmd.Flags().StringVar(&addName, "name", "", "Server name")
	serverAddCmd.Flags().StringVar(&addJar, "jar", "server.jar", "Launcher jar inside the server directory")
	serverAddCmd.Flags().IntVar(&addRam, "ram", 4, "Maximum RAM in GB")

	serverDeleteCmd.Flags().BoolVar(&deletePurge, "purge", false, "Also delete the server directory through the daemon")

	serverJarCmd.Flags().BoolVar(&jarAdd, "add", false, "Add the picked server to the list")
	serverJarCmd.Flags().IntVar(&jarRam, "ram", 4, "Maximum RAM in GB when adding")

	serverCmd.AddCommand(serverAddCmd, serverListCmd, serverDeleteCmd, serverSelectCmd, serverOpenCmd, serverJarCmd)
	RootCmd.AddCommand(serverCmd)
}

func parseIndex(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		fatal("Invalid index %q: expected a number from `roam server list`", s)
	}
	return i
}

func handleAdd(name, path, jar string, ram int) {
	if err := App.Session.AddServer(name, path, jar, ram); err != nil {
		fatal("Error adding server: %v", err)
	}
	fmt.Printf("Server added at index %d.\n", len(App.Session.Servers())-1)
}

func handleList() {
	servers := App.Session.Servers()
	active := App.Session.Active()

	if len(servers) == 0 {
		fmt.Println("No servers configured. Add one with `roam server add <path>`.")
		return
	}

	fmt.Println("Servers:")
	for i, s := range servers {
		marker := " "
		if active != nil && active.Path == s.Path {
			marker = "*"
		}
		tunnel := ""
		if s.Tunnel != nil {
			tunnel = fmt.Sprintf(" tunnel:%s", s.Tunnel.Provider)
		}
		fmt.Printf("%s %d. %s (%s) [%s, %s-%s]%s\n", marker, i, s.DisplayName(), s.Path, s.JarName, s.MinRAM, s.MaxRAM, tunnel)
	}
}

func handleDelete(index int) {
	if err := App.Session.DeleteServer(index); err != nil {
		fatal("Error deleting server: %v", err)
	}
	fmt.Println("Server removed from the list.")
}

func handlePurge(ctx context.Context, index int) {
	requireBackend()
	ctx, cancel := context.WithTimeout(ctx, App.Config.RequestTimeout())
	defer cancel()

	if err := App.Session.DeleteServerFiles(ctx, index); err != nil {
		fatal("Error deleting server files: %v", err)
	}
	fmt.Println("Server files deleted and server removed from the list.")
}

func handleSelect(ctx context.Context, index int) {
	ctx, cancel := context.WithTimeout(ctx, App.Config.RequestTimeout())
	defer cancel()

	if err := App.Session.SelectServer(ctx, index); err != nil {
		fatal("Error selecting server: %v", err)
	}
	fmt.Printf("Selected %s.\n", App.Session.Active().DisplayName())
}

func handleOpen() {
	requireSession()
	dir, err := server.ResolveDir(App.Session.Active().Path)
	if err != nil {
		fatal("Error opening server folder: %v", err)
	}
	if err := browser.OpenFile(dir); err != nil {
		fatal("Error opening server folder: %v", err)
	}
}

func handleSelectJar(ctx context.Context, add bool, ram int) {
	requireBackend()

	cfg, err := App.Session.SelectJar(ctx)
	if err != nil {
		fatal("Error selecting jar: %v", err)
	}
	if cfg == nil {
		fmt.Println("No jar selected.")
		return
	}

	fmt.Printf("Jar: %s\nPath: %s\n", cfg.JarName, cfg.Path)
	if !add {
		return
	}
	name := ""
	if cfg.Name != nil {
		name = *cfg.Name
	}
	handleAdd(name, cfg.Path, cfg.JarName, ram)
}
