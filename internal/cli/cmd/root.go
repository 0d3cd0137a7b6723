package cmd

import (
	"context"
	"fmt"
	"os"

	"roam/internal/app"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	App       *app.Container
	BaseURL   string
	ConfigDir string
)

var RootCmd = &cobra.Command{
	Use:   "roam",
	Short: "Manage Minecraft servers through the roam daemon",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		c, err := app.New(cmd.Context(), app.Options{ConfigDir: ConfigDir, DaemonURL: BaseURL})
		if err != nil {
			log.Fatalf("Error initialising roam: %v", err)
		}
		App = c
		App.ResumeSelection()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if App == nil {
			return
		}
		if err := App.RememberSelection(); err != nil {
			App.Logger.Warnf("could not remember active server: %v", err)
		}
		if err := App.Close(); err != nil {
			App.Logger.Warnf("error closing: %v", err)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		RunDashboard()
	},
}

func Execute() {
	RootCmd.PersistentFlags().StringVar(&BaseURL, "url", "", "URL of the roam daemon (default from config)")
	RootCmd.PersistentFlags().StringVar(&ConfigDir, "config-dir", "", "Directory holding config.json and the database")

	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// fatal releases the container before exiting so the database is closed cleanly.
func fatal(format string, args ...interface{}) {
	if App != nil {
		_ = App.Close()
	}
	log.Fatalf(format, args...)
}

func requireSession() {
	if App.Session.Active() == nil {
		fatal("No server selected. Run `roam server select <index>` first.")
	}
}

func requireBackend() {
	if !App.Session.Live() {
		fatal("The roam daemon is not reachable at %s.", App.Config.DaemonURL)
	}
}
