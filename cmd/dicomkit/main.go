package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/studiowebux/dicomkit/internal/app"
	"github.com/studiowebux/dicomkit/internal/cli"
	"github.com/studiowebux/dicomkit/internal/clock"
	"github.com/studiowebux/dicomkit/internal/config"
	"github.com/studiowebux/dicomkit/internal/keybinds"
	"github.com/studiowebux/dicomkit/internal/logging"
	"github.com/studiowebux/dicomkit/internal/simulate"
	"github.com/studiowebux/dicomkit/internal/tui"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dicomkit",
	Short: "DICOM toolkit - study viewer and tag editor",
	Long: `dicomkit is a terminal DICOM toolkit with an interactive TUI.

The viewer, tag editor, connection settings and request history are kept in
observable containers shared by every panel. Without a network collaborator the
TUI starts empty; --demo attaches a simulated PACS that fabricates a study.

Configuration is read from ./.dicomkit.yaml or ~/.dicomkit/config.yaml.

Examples:
  dicomkit                          # Start interactive TUI
  dicomkit --demo                   # TUI with a simulated PACS
  dicomkit demo --series 4 --verify # Headless simulated load
  dicomkit settings -o yaml         # Print effective settings
  dicomkit templates                # List anonymization templates
  dicomkit keys                     # List key bindings`,
	Version: version,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logFile, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, config.FilePermissions)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logFile.Close()

		logger, err := newLogger(cfg, logFile)
		if err != nil {
			return err
		}

		keys, err := keybinds.Load(cfg.Keybinds)
		if err != nil {
			return fmt.Errorf("failed to load keybinds: %w", err)
		}

		a, err := app.New(cfg, logger, clock.Real{})
		if err != nil {
			return err
		}
		defer a.Close()

		opts := []tui.Option{tui.WithVersion(version)}
		if flagDemo {
			sim := simulate.New(a, simulate.WithPace(flagPace))
			opts = append(opts, tui.WithSimulator(sim, studyRequest(), true))
		}
		return tui.Run(a, keys, opts...)
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Load a simulated study without the TUI",
	Long: `Load a fabricated study from a simulated PACS and print every loading and
request change. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err := newLogger(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		a, err := app.New(cfg, logger, clock.Real{})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return cli.RunDemo(ctx, a, cmd.OutOrStdout(), cli.DemoOptions{
			Request:     studyRequest(),
			Pace:        flagPace,
			Concurrency: flagConcurrency,
			Verify:      flagVerify,
			Browse:      flagBrowse,
			Color:       !flagNoColor && os.Getenv("NO_COLOR") == "",
		})
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		settings, err := cfg.InitialSettings()
		if err != nil {
			return err
		}
		return cli.PrintSettings(cmd.OutOrStdout(), settings, flagOutput)
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the built-in anonymization templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.PrintTemplates(cmd.OutOrStdout(), flagOutput)
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List key bindings, including config overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		keys, err := keybinds.Load(cfg.Keybinds)
		if err != nil {
			return fmt.Errorf("failed to load keybinds: %w", err)
		}
		return cli.PrintKeybinds(cmd.OutOrStdout(), keys, flagOutput)
	},
}

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
	flagDemo      bool
	flagPace      time.Duration
	flagOutput    string

	flagPatientName string
	flagPatientID   string
	flagModality    string
	flagSeries      int
	flagInstances   int
	flagFailSeries  int
	flagConcurrency int
	flagVerify      bool
	flagBrowse      int
	flagNoColor     bool
)

func init() {
	defaults := simulate.DefaultStudyRequest()

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default ./.dicomkit.yaml or ~/.dicomkit/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Override log format (text/json)")

	rootCmd.Flags().BoolVar(&flagDemo, "demo", false, "Attach a simulated PACS and load a study on start")

	// Simulated study flags (shared by root --demo and demo)
	for _, cmd := range []*cobra.Command{rootCmd, demoCmd} {
		cmd.Flags().DurationVar(&flagPace, "pace", 40*time.Millisecond, "Delay per simulated transfer step")
		cmd.Flags().StringVar(&flagPatientName, "patient-name", defaults.PatientName, "Patient name of the fabricated study")
		cmd.Flags().StringVar(&flagPatientID, "patient-id", defaults.PatientID, "Patient ID of the fabricated study")
		cmd.Flags().StringVarP(&flagModality, "modality", "m", defaults.Modality, "Modality of the fabricated study")
		cmd.Flags().IntVar(&flagSeries, "series", defaults.Series, "Number of series")
		cmd.Flags().IntVar(&flagInstances, "instances", defaults.InstancesPerSeries, "Instances per series")
		cmd.Flags().IntVar(&flagFailSeries, "fail-series", defaults.FailSeries, "Index of a series whose transfer fails (-1 for none)")
	}

	demoCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Series transferred at once (0 for default)")
	demoCmd.Flags().BoolVar(&flagVerify, "verify", false, "Echo configured peers after the load")
	demoCmd.Flags().IntVar(&flagBrowse, "browse", 0, "Step through this many instances after the load")
	demoCmd.Flags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	settingsCmd.Flags().StringVarP(&flagOutput, "output", "o", "text", "Output format (json/yaml/text)")
	templatesCmd.Flags().StringVarP(&flagOutput, "output", "o", "text", "Output format (json/yaml/text)")
	keysCmd.Flags().StringVarP(&flagOutput, "output", "o", "text", "Output format (json/yaml/text)")

	// Add subcommands
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(keysCmd)
}

func loadConfig() (*config.Config, error) {
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	path := flagConfig
	if path == "" {
		path = config.GetConfigFilePath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Log.Format = flagLogFormat
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, w)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger.With("version", version), nil
}

func studyRequest() simulate.StudyRequest {
	req := simulate.DefaultStudyRequest()
	req.PatientName = flagPatientName
	req.PatientID = flagPatientID
	req.Modality = flagModality
	req.Series = flagSeries
	req.InstancesPerSeries = flagInstances
	req.FailSeries = flagFailSeries
	return req
}
