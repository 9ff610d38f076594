package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"squeeze/internal/codec"
	"squeeze/internal/pipeline"
	"squeeze/internal/runner"
	"squeeze/internal/sink"
	"squeeze/internal/tui"
	"squeeze/pkg/imgutil"
)

var (
	optInPlace      bool
	optOutputDir    string
	optMaxSizeMB    float64
	optMaxDimension int
	optQuality      float64
	optWebP         bool
	optNoWebP       bool
	optUpload       bool
	optPlain        bool
	optWorkers      int
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [flags] <path>",
	Short: "Optimize an image or every image under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if err := applyOptimizeFlags(cmd); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		useTUI := !optPlain && isatty.IsTerminal(os.Stdout.Fd())
		logger, closer, err := newLogger(useTUI)
		if err != nil {
			return err
		}
		defer closer.Close()

		out, err := buildSink(ctx)
		if err != nil {
			return err
		}

		if !cfg.Upload.Enabled {
			lock, err := runner.LockDestination(destinationDir(path))
			if err != nil {
				return err
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn("failed to release destination lock", "lock", lock.Path(), "error", err)
				}
			}()
		}

		popts := pipeline.Options{
			MaxWidthOrHeight: cfg.Optimize.MaxWidthOrHeight,
			MaxSizeMB:        cfg.Optimize.MaxSizeMB,
			Quality:          cfg.Optimize.Quality,
			UseWebP:          cfg.Optimize.UseWebP,
			Debug:            cfg.Optimize.Debug,
		}
		codecs := codec.Default()
		if popts.UseWebP && !codecs.CanEncode(imgutil.MIMEWebP) {
			logger.Info("webp encoder unavailable in this build; transcoding disabled")
		}
		optimizer := pipeline.New(pipeline.WithLogger(logger), pipeline.WithCodecs(codecs))

		opts := runner.Options{
			Pipeline: popts,
			Workers:  cfg.Optimize.Workers,
			Sink:     out,
			Logger:   logger,
		}
		if !cfg.Output.InPlace && !cfg.Upload.Enabled {
			opts.OutputDir = cfg.Output.Dir
		}

		var updates chan runner.Update
		uiDone := make(chan struct{})
		if useTUI {
			updates = make(chan runner.Update, 64)
			program := tea.NewProgram(tui.NewModel(updates, cancel))
			go func() {
				defer close(uiDone)
				if _, err := program.Run(); err != nil {
					cancel()
				}
				// The UI can quit before the run ends; keep the runner unblocked.
				for range updates {
				}
			}()
		} else {
			close(uiDone)
		}

		logger.Info("optimize started", "path", path, "workers", opts.Workers, "webp", popts.UseWebP)
		summary, reports, err := runner.Run(ctx, optimizer, path, opts, updates)
		if updates != nil {
			close(updates)
		}
		<-uiDone
		if err != nil {
			return err
		}

		if len(reports) > 0 {
			fmt.Fprintln(os.Stdout, tui.RenderReports(reports))
		}
		fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.SummaryRows(summary)))

		switch {
		case cfg.Upload.Enabled:
			fmt.Fprintf(os.Stdout, "Uploaded to: s3://%s/%s\n", cfg.Upload.Bucket, cfg.Upload.Prefix)
		case cfg.Output.InPlace:
			fmt.Fprintln(os.Stdout, "In-place optimization complete.")
		default:
			outPath := cfg.Output.Dir
			if abs, absErr := filepath.Abs(outPath); absErr == nil {
				outPath = abs
			}
			fmt.Fprintf(os.Stdout, "Optimized files written to: %s\n", outPath)
			fmt.Fprintln(os.Stdout, "Note: originals are unchanged unless --inplace is used.")
		}

		if summary.Errors > 0 {
			return fmt.Errorf("%d file(s) failed", summary.Errors)
		}
		return nil
	},
}

// applyOptimizeFlags layers explicitly set flags over the loaded config.
func applyOptimizeFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if optInPlace && optOutputDir != "" {
		return fmt.Errorf("--inplace cannot be used with --output")
	}
	if optWebP && optNoWebP {
		return fmt.Errorf("--webp cannot be used with --no-webp")
	}

	if flags.Changed("inplace") {
		cfg.Output.InPlace = optInPlace
	}
	if flags.Changed("output") {
		abs, err := filepath.Abs(optOutputDir)
		if err != nil {
			return err
		}
		cfg.Output.Dir = abs
		cfg.Output.InPlace = false
	}
	if flags.Changed("max-size") {
		cfg.Optimize.MaxSizeMB = optMaxSizeMB
	}
	if flags.Changed("max-dimension") {
		cfg.Optimize.MaxWidthOrHeight = optMaxDimension
	}
	if flags.Changed("quality") {
		cfg.Optimize.Quality = optQuality
	}
	if optWebP {
		cfg.Optimize.UseWebP = true
	}
	if optNoWebP {
		cfg.Optimize.UseWebP = false
	}
	if flags.Changed("upload") {
		cfg.Upload.Enabled = optUpload
	}
	if flags.Changed("workers") {
		cfg.Optimize.Workers = optWorkers
	}

	return cfg.Validate()
}

func buildSink(ctx context.Context) (sink.Sink, error) {
	if cfg.Upload.Enabled {
		return sink.NewS3(ctx, sink.S3Options{
			Bucket:          cfg.Upload.Bucket,
			Prefix:          cfg.Upload.Prefix,
			Region:          cfg.Upload.Region,
			Endpoint:        cfg.Upload.Endpoint,
			AccessKeyID:     cfg.Upload.AccessKeyID,
			SecretAccessKey: cfg.Upload.SecretAccessKey,
			UsePathStyle:    cfg.Upload.UsePathStyle,
		})
	}
	if !cfg.Output.InPlace {
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return nil, err
		}
	}
	return sink.File{OutputDir: cfg.Output.Dir, InPlace: cfg.Output.InPlace}, nil
}

// destinationDir is the directory local writes land in.
func destinationDir(path string) string {
	if !cfg.Output.InPlace {
		return cfg.Output.Dir
	}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Dir(path)
	}
	return path
}

func init() {
	flags := optimizeCmd.Flags()
	flags.BoolVarP(&optInPlace, "inplace", "i", false, "overwrite files in place")
	flags.StringVarP(&optOutputDir, "output", "o", "", "destination folder for optimized copies")
	flags.Float64Var(&optMaxSizeMB, "max-size", 0, "target size per image in MB")
	flags.IntVar(&optMaxDimension, "max-dimension", 0, "cap on the longest side in pixels")
	flags.Float64VarP(&optQuality, "quality", "q", 0, "lossy encoder quality in (0,1]")
	flags.BoolVar(&optWebP, "webp", false, "try transcoding to WebP")
	flags.BoolVar(&optNoWebP, "no-webp", false, "never transcode to WebP")
	flags.BoolVar(&optUpload, "upload", false, "upload results to the configured S3 bucket")
	flags.BoolVar(&optPlain, "plain", false, "disable the interactive progress display")
	flags.IntVarP(&optWorkers, "workers", "w", 0, "number of parallel workers (default: number of CPUs)")

	rootCmd.AddCommand(optimizeCmd)
}
