package cmd

import (
	"fmt"

	"roam/internal/cli/ui"

	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the live console of the active server",
	Run: func(cmd *cobra.Command, args []string) {
		requireSession()
		ui.RunConsole(App.Session)
	},
}

func init() {
	RootCmd.AddCommand(consoleCmd)
}

func RunDashboard() {
	for {
		switch ui.RunDashboard(App.Session) {
		case ui.ActionAddServer:
			if ui.RunAddServer(App.Session) {
				fmt.Println("Server added.")
			}
		case ui.ActionOpenConsole:
			if !ui.RunConsole(App.Session) {
				return
			}
		default:
			return
		}
	}
}
