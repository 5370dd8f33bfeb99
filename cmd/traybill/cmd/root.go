// Package cmd implements the traybill command line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/traybill/traybill/internal/config"
	"github.com/traybill/traybill/internal/version"
)

var (
	cfgFile   string
	modelsDir string
	menuPath  string
	verbose   bool
	logLevel  string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "traybill",
	Short: "Canteen tray analysis and billing",
	Long: `traybill detects dishes on canteen tray photos, classifies each one,
and produces an itemized bill with prices and calories.

Run "traybill serve" to start the HTTP API or "traybill analyze" for
one-off analysis from the command line.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		setupLogging(cfg)
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ./traybill.yaml)")
	rootCmd.PersistentFlags().StringVar(&modelsDir, "models-dir", "", "directory containing model assets")
	rootCmd.PersistentFlags().StringVar(&menuPath, "menu", "", "menu file (.csv or .yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func loadConfig() (*config.Config, error) {
	loader := config.NewLoader()

	var (
		c   *config.Config
		err error
	)
	if cfgFile != "" {
		c, err = loader.LoadWithFile(cfgFile)
	} else {
		c, err = loader.Load()
	}
	if err != nil {
		return nil, err
	}

	// Flags override file and environment.
	if modelsDir != "" {
		c.ModelsDir = modelsDir
	}
	if menuPath != "" {
		c.MenuPath = menuPath
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if verbose {
		c.Verbose = true
		c.LogLevel = "debug"
	}
	return c, c.Validate()
}

func setupLogging(c *config.Config) {
	level := slog.LevelInfo
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
