package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"squeeze/internal/config"
	"squeeze/internal/logging"
)

var (
	configPath string
	debugFlag  bool
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "squeeze",
	Short: "squeeze - shrink images before they are stored",
	Long:  "squeeze recompresses, resizes and transcodes images so they take less space, skipping files that are already small.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, _, _, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if debugFlag {
			loaded.Optimize.Debug = true
			loaded.Log.Level = "debug"
		}
		cfg = loaded
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the logger for a command. While the TUI owns the
// terminal, logs go to log.file or nowhere.
func newLogger(quiet bool) (*slog.Logger, io.Closer, error) {
	var out io.Writer = os.Stderr
	var closer io.Closer = io.NopCloser(nil)

	switch {
	case cfg.Log.File != "":
		file, err := logging.OpenFile(cfg.Log.File)
		if err != nil {
			return nil, nil, err
		}
		out, closer = file, file
	case quiet:
		return logging.NewNop(), closer, nil
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: out})
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return logger, closer, nil
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default ~/.config/squeeze/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}
