package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"roam/internal/domain"
	"roam/internal/server"

	"github.com/spf13/cobra"
)

var propsCmd = &cobra.Command{
	Use:   "props",
	Short: "Read and edit server.properties of the active server",
}

var propsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show all properties or a single one",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := ""
		if len(args) > 0 {
			key = args[0]
		}
		handlePropsGet(cmd.Context(), key)
	},
}

var propsSetCmd = &cobra.Command{
	Use:   "set [key=value...]",
	Short: "Change one or more properties",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handlePropsSet(cmd.Context(), args)
	},
}

var propsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the properties to a file (default server.properties, - for stdout)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		file := server.PropertiesFile
		if len(args) > 0 {
			file = args[0]
		}
		handlePropsExport(cmd.Context(), file)
	},
}

var propsImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace the properties with the contents of a file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handlePropsImport(cmd.Context(), args[0])
	},
}

var tunnelCmd = &cobra.Command{
	Use:   "tunnel",
	Short: "Configure the public tunnel of the active server",
}

var tunnelSetCmd = &cobra.Command{
	Use:   "set [none|playit|ngrok] [token]",
	Short: "Choose a tunnel provider",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		token := ""
		if len(args) > 1 {
			token = args[1]
		}
		handleTunnelSet(cmd.Context(), args[0], token)
	},
}

func init() {
	propsCmd.AddCommand(propsGetCmd, propsSetCmd, propsExportCmd, propsImportCmd)
	tunnelCmd.AddCommand(tunnelSetCmd)
	RootCmd.AddCommand(propsCmd, tunnelCmd)
}

func loadProperties(ctx context.Context) domain.ServerProperties {
	requireSession()
	requireBackend()

	if err := App.Session.RefreshProperties(ctx); err != nil {
		fatal("Error reading properties: %v", err)
	}
	return App.Session.Properties()
}

func handlePropsGet(ctx context.Context, key string) {
	ctx, cancel := requestContext(ctx)
	defer cancel()

	props := loadProperties(ctx)
	if key != "" {
		v, ok := props[key]
		if !ok {
			fatal("Property %q is not set.", key)
		}
		fmt.Println(v)
		return
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s=%s\n", k, props[k])
	}
}

func handlePropsSet(ctx context.Context, pairs []string) {
	ctx, cancel := requestContext(ctx)
	defer cancel()

	props := loadProperties(ctx)
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			fatal("Invalid property %q: expected key=value", pair)
		}
		props[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := App.Session.SaveProperties(ctx, props); err != nil {
		fatal("Error writing properties: %v", err)
	}
	fmt.Println("Properties updated. Restart the server to apply them.")
}

func handlePropsExport(ctx context.Context, file string) {
	ctx, cancel := requestContext(ctx)
	defer cancel()

	props := loadProperties(ctx)
	if file == "-" {
		if err := server.WriteProperties(os.Stdout, props); err != nil {
			fatal("Error exporting properties: %v", err)
		}
		return
	}
	if err := server.SavePropertiesFile(file, props); err != nil {
		fatal("Error exporting properties: %v", err)
	}
	fmt.Printf("Properties exported to %s\n", file)
}

func handlePropsImport(ctx context.Context, file string) {
	requireSession()
	requireBackend()

	props, err := server.LoadPropertiesFile(file)
	if err != nil {
		fatal("Error importing properties: %v", err)
	}

	ctx, cancel := requestContext(ctx)
	defer cancel()

	if err := App.Session.SaveProperties(ctx, props); err != nil {
		fatal("Error writing properties: %v", err)
	}
	fmt.Printf("Imported %d properties from %s\n", len(props), file)
}

func handleTunnelSet(ctx context.Context, providerName, token string) {
	requireSession()

	provider, ok := domain.ParseTunnelProvider(providerName)
	if !ok {
		fatal("Unknown tunnel provider %q (expected none, playit or ngrok)", providerName)
	}

	ctx, cancel := requestContext(ctx)
	defer cancel()

	if err := App.Session.UpdateTunnelConfig(ctx, provider, token); err != nil {
		fatal("Error updating tunnel: %v", err)
	}
	if !App.Session.Live() {
		fmt.Println("Tunnel saved. It will be applied when the daemon is running.")
		return
	}
	fmt.Println("Tunnel configuration updated.")
}
