package cmd

import (
	"fmt"

	"roam/internal/tray"

	"github.com/spf13/cobra"
)

var trayAutostart, trayNoAutostart bool

var trayCmd = &cobra.Command{
	Use:   "tray",
	Short: "Show the active server in the system tray",
	Run: func(cmd *cobra.Command, args []string) {
		handleTray(trayAutostart, trayNoAutostart)
	},
}

func init() {
	trayCmd.Flags().BoolVar(&trayAutostart, "autostart", false, "Start the tray when you log in")
	trayCmd.Flags().BoolVar(&trayNoAutostart, "no-autostart", false, "Stop starting the tray on login and exit")
	RootCmd.AddCommand(trayCmd)
}

func handleTray(enable, disable bool) {
	switch {
	case enable && disable:
		fatal("--autostart and --no-autostart are mutually exclusive")
	case disable:
		if err := tray.SetAutostart(false); err != nil {
			fatal("Error removing autostart entry: %v", err)
		}
		fmt.Println("Autostart disabled.")
		return
	case enable:
		if err := tray.SetAutostart(true); err != nil {
			fatal("Error creating autostart entry: %v", err)
		}
		fmt.Println("Autostart enabled.")
	}

	tray.New(App.Session, App.Logger, App.Config.RequestTimeout()).Run()
}
