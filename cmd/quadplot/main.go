package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recera/quadplot/internal/config"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// rootOptions holds flags shared by every command.
type rootOptions struct {
	configPath string
}

// load reads the config file named by --config, or quadplot.yaml.
func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.configPath)
}

func main() {
	opts := &rootOptions{}

	var rootCmd = &cobra.Command{
		Use:   "quadplot",
		Short: "quadplot - interactive quadratic plotting over websockets",
		Long: `quadplot plots y = a·x² + b·x + c in the terminal. A peer derives the curve
and its sample points from a number and streams them back over a websocket.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (defaults to ./"+config.FileName+")")

	// Add commands
	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newPlotCommand(opts))
	rootCmd.AddCommand(newSnapshotCommand(opts))
	rootCmd.AddCommand(newDiscoverCommand(opts))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
