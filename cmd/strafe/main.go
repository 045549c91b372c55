// Package main provides the CLI entrypoint for strafe.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/verte-zerg/strafe/internal/config"
	"github.com/verte-zerg/strafe/internal/input"
	"github.com/verte-zerg/strafe/internal/logging"
	"github.com/verte-zerg/strafe/internal/model"
	"github.com/verte-zerg/strafe/internal/stats"
	"github.com/verte-zerg/strafe/internal/store"
	"github.com/verte-zerg/strafe/internal/trainer"
	"github.com/verte-zerg/strafe/internal/tui"
)

const (
	defaultTickRate  = tui.DefaultTickRate
	defaultQueueSize = input.DefaultQueueSize
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
	summaryHolds     = 40
	envPrefix        = "STRAFE"
)

var (
	trainDevice    string
	trainTickRate  int
	trainLeftAlias bool
	trainQueueSize int
	trainDemo      bool
	trainPlain     bool

	logLevel  string
	logFormat string
	logFile   string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "strafe",
		Short:         "Terminal counter-strafe trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTrainCmd,
	}

	rootCmd.Flags().StringVar(&trainDevice, "device", "", "read a single input device (default: all keyboards)")
	rootCmd.Flags().IntVar(&trainTickRate, "tick-rate", defaultTickRate, "frames per second")
	rootCmd.Flags().BoolVar(&trainLeftAlias, "left-alias", true, "treat Left Alt as the left strafe key")
	rootCmd.Flags().IntVar(&trainQueueSize, "queue-size", defaultQueueSize, "input event buffer size")
	rootCmd.Flags().BoolVar(&trainDemo, "demo", false, "replay synthetic attempts instead of reading the keyboard")
	rootCmd.Flags().BoolVar(&trainPlain, "plain", false, "print one line per attempt instead of the TUI")
	rootCmd.Flags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&logFormat, "log-format", defaultLogFormat, "log format (json, text)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "log file used while the TUI runs")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDevicesCmd())

	return rootCmd
}

func runTrainCmd(cmd *cobra.Command, _ []string) error {
	if err := applyEnv(cmd); err != nil {
		return err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "device", &trainDevice, fileCfg.Trainer.Device)
	applyIntConfig(cmd, "tick-rate", &trainTickRate, fileCfg.Trainer.TickRate)
	applyBoolConfig(cmd, "left-alias", &trainLeftAlias, fileCfg.Trainer.LeftAlias)
	applyIntConfig(cmd, "queue-size", &trainQueueSize, fileCfg.Trainer.QueueSize)
	applyBoolConfig(cmd, "demo", &trainDemo, fileCfg.Trainer.Demo)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-format", &logFormat, fileCfg.Log.Format)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)

	cfg := model.Config{
		Device:    trainDevice,
		TickRate:  trainTickRate,
		LeftAlias: trainLeftAlias,
		QueueSize: trainQueueSize,
		Demo:      trainDemo,
		Plain:     trainPlain || !term.IsTerminal(int(os.Stdout.Fd())),
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	logger, closeLog, err := setupLogger(cfg, fileCfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	journal, err := store.OpenMemory()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := journal.Close(); cerr != nil {
			logger.Warn("failed to close journal", "error", cerr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := input.Start(ctx, newSource(cfg, logger), input.Options{
		Keys:      input.DefaultKeyMap(cfg.LeftAlias),
		QueueSize: cfg.QueueSize,
		Logger:    logger,
	})
	if err != nil {
		if errors.Is(err, input.ErrListenerUnavailable) {
			return listenerUnavailableError(err)
		}
		return err
	}

	tr := trainer.New(trainer.Options{Journal: journal, Logger: logger})
	logger.Info("session started", "run", tr.RunID(), "demo", cfg.Demo, "plain", cfg.Plain, "tick_rate", cfg.TickRate)

	if cfg.Plain {
		err = runPlain(ctx, tr, listener, cfg.TickRate, cmd.OutOrStdout())
	} else {
		program := tea.NewProgram(tui.NewModel(tr, listener, cfg.TickRate), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, perr := program.Run(); perr != nil && !errors.Is(perr, tea.ErrProgramKilled) {
			err = fmt.Errorf("failed to run TUI: %w", perr)
		}
	}
	if serr := listener.Stop(); serr != nil {
		logger.Warn("input listener stopped with error", "error", serr)
	}
	logger.Info("session ended", "run", tr.RunID(), "attempts", tr.Stats().Total, "dropped", listener.Dropped())
	if err != nil {
		return err
	}
	return printSummary(context.Background(), cmd.OutOrStdout(), tr, journal)
}

func newSource(cfg model.Config, logger *slog.Logger) input.Source {
	if cfg.Demo {
		return input.NewSynthetic(input.SyntheticOptions{})
	}
	return input.NewDeviceSource(input.DeviceOptions{Path: cfg.Device, Logger: logger})
}

func setupLogger(cfg model.Config, logCfg config.LogConfig) (*slog.Logger, func(), error) {
	opts := logging.Options{Level: logLevel, Format: logFormat}
	if cfg.Plain {
		logger, err := logging.New(opts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
		}
		return logger, func() {}, nil
	}

	rotation := logging.DefaultRotation
	applyPtr(&rotation.MaxSizeMB, logCfg.MaxSizeMB)
	applyPtr(&rotation.MaxBackups, logCfg.MaxBackups)
	applyPtr(&rotation.MaxAgeDays, logCfg.MaxAgeDays)
	applyPtr(&rotation.Compress, logCfg.Compress)

	path := logFile
	if path == "" {
		path = config.DefaultLogPath()
	}
	fl, err := logging.NewFile(path, opts, rotation)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	closeLog := func() {
		if cerr := fl.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}
	return fl.Logger, closeLog, nil
}

func printSummary(ctx context.Context, w io.Writer, tr *trainer.Trainer, journal *store.Store) error {
	if err := stats.RenderSummary(w, tr.Stats()); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	if tr.Stats().Total == 0 {
		return nil
	}
	aggs, err := journal.DirectionBreakdown(ctx)
	if err != nil {
		return err
	}
	if err := stats.RenderDirectionTable(w, aggs); err != nil {
		return fmt.Errorf("failed to write direction table: %w", err)
	}
	holds, err := journal.RecentHolds(ctx, summaryHolds)
	if err != nil {
		return err
	}
	if err := stats.RenderTrend(w, holds); err != nil {
		return fmt.Errorf("failed to write trend: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List keyboard devices and whether they are readable",
		Args:  cobra.NoArgs,
		RunE:  runDevicesCmd,
	}
}

func runDevicesCmd(cmd *cobra.Command, _ []string) error {
	devices, err := input.ListDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		logErrln("No keyboard devices found.")
		return fmt.Errorf("no keyboard devices found")
	}
	rows := make([][]string, 0, len(devices))
	unreadable := false
	for _, d := range devices {
		readable := "yes"
		if !d.Readable {
			readable = "no"
			unreadable = true
		}
		rows = append(rows, []string{d.Path, readable, d.Name})
	}
	if err := stats.WriteTable(cmd.OutOrStdout(), []string{"Device", "Readable", "Name"}, rows); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if unreadable {
		logErrln(permissionHint...)
	}
	return nil
}

// applyEnv copies STRAFE_* environment values onto flags the user did not
// pass, so they rank above the config file and below explicit flags.
func applyEnv(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var firstErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if firstErr != nil || f.Changed {
			return
		}
		if !v.IsSet(f.Name) {
			return
		}
		if err := cmd.Flags().Set(f.Name, v.GetString(f.Name)); err != nil {
			firstErr = fmt.Errorf("invalid %s_%s: %w", envPrefix, strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), err)
		}
	})
	return firstErr
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyPtr[T any](target *T, value *T) {
	if value != nil {
		*target = *value
	}
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# strafe configuration
# Uncomment a value to enable it. STRAFE_* environment variables override
# config values, and CLI flags override both.

[trainer]
# device = "/dev/input/event3"   # Read one device instead of every keyboard
# tick-rate = %d                # Frames per second
# left-alias = true              # Treat Left Alt as the left strafe key
# queue-size = %d               # Input event buffer size
# demo = false                   # Replay synthetic attempts

[log]
# level = %q                 # debug, info, warn, error
# format = %q                # json, text
# file = ""                      # Default: $XDG_STATE_HOME/strafe/strafe.log
# max-size-mb = %d
# max-backups = %d
# max-age-days = %d
# compress = false
`,
		defaultTickRate,
		defaultQueueSize,
		defaultLogLevel,
		defaultLogFormat,
		logging.DefaultRotation.MaxSizeMB,
		logging.DefaultRotation.MaxBackups,
		logging.DefaultRotation.MaxAgeDays,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.TickRate <= 0 || cfg.TickRate > 1000 {
		return fmt.Errorf("--tick-rate must be between 1 and 1000")
	}
	if cfg.QueueSize <= 0 {
		return fmt.Errorf("--queue-size must be > 0")
	}
	if cfg.Demo && cfg.Device != "" {
		return fmt.Errorf("--device and --demo are incompatible")
	}
	if _, err := logging.ParseLevel(logLevel); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	return nil
}

var permissionHint = []any{
	"Reading keyboard devices needs access to /dev/input:",
	"  sudo usermod -a -G input $USER   (then log out and back in)",
	"or run strafe --demo to try the trainer without a keyboard hook.",
}

func listenerUnavailableError(err error) error {
	lines := []string{
		fmt.Sprintf("failed to start keyboard capture: %v", err),
		"Run: strafe devices",
		"Add your user to the input group: sudo usermod -a -G input $USER",
		"Or try without a keyboard hook: strafe --demo",
	}
	return fmt.Errorf("%s: %w", strings.Join(lines, "\n"), input.ErrListenerUnavailable)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
