package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	// Global flags
	verbose    bool
	configFile string

	// Convert flags
	convertOpts ConvertOptions

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "seedtrack",
	Short: "Convert track seeds into fitted tracks",
	Long: `seedtrack turns track seeds (ordered hit lists with helix parameters)
into tracks with a charge, a reference momentum, one state per hit and a
chi-square.

Use "convert" for a single event file and "serve" to convert events
arriving over MQTT.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the seeds of one event file or URL",
	Example: `  seedtrack convert --config config.yaml --event event.json --out tracks.json
  seedtrack convert --event http://host/events/17 --svg event.svg`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := NewApp(logger)
		if err := app.LoadConfig(configFile); err != nil {
			return err
		}
		return app.RunConvert(cmd.Context(), convertOpts, cmd.OutOrStdout())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Convert events from MQTT and serve the latest one over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := NewApp(logger)
		if err := app.LoadConfig(configFile); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return app.RunService(ctx)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "seedtrack version: %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Path to configuration file")

	convertCmd.Flags().StringVarP(&convertOpts.Event, "event", "e", "", "Event file path or http(s) URL (required)")
	convertCmd.Flags().StringVarP(&convertOpts.Output, "out", "o", "-", "Track output file, - for stdout")
	convertCmd.Flags().StringVar(&convertOpts.SVG, "svg", "", "Write the transverse event display as SVG")
	convertCmd.Flags().StringVar(&convertOpts.PNG, "png", "", "Write the labelled event display as PNG")
	convertCmd.Flags().StringVar(&convertOpts.GeoJSON, "geojson", "", "Write the transverse view as GeoJSON")
	_ = convertCmd.MarkFlagRequired("event")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the production logger, at debug level when verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
