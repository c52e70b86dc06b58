// Package main provides the CLI entrypoint for bpmcheck.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/bpmcheck/internal/config"
	"github.com/verte-zerg/bpmcheck/internal/gamepad"
	"github.com/verte-zerg/bpmcheck/internal/logging"
	"github.com/verte-zerg/bpmcheck/internal/midiin"
	"github.com/verte-zerg/bpmcheck/internal/model"
	"github.com/verte-zerg/bpmcheck/internal/stats"
	"github.com/verte-zerg/bpmcheck/internal/store"
	"github.com/verte-zerg/bpmcheck/internal/tempo"
	"github.com/verte-zerg/bpmcheck/internal/tui"
)

var (
	runMode        int
	runSamples     int
	runIdleReset   time.Duration
	runGamepad     string
	runKeyboard    string
	runMIDI        string
	runMIDIChannel int
	runFrameRate   int
	runDebug       bool
	runLogFile     string
	runLogLevel    string
	runQuiet       bool
	runNoMouse     bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bpmcheck",
		Short:         "Measure tapping tempo in the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTempoCmd,
	}

	rootCmd.Flags().IntVar(&runMode, "mode", tempo.DefaultMode, "taps per beat (1, 2, 4 or 8)")
	rootCmd.Flags().IntVar(&runSamples, "samples", tempo.DefaultSamples, "intervals in the moving average")
	rootCmd.Flags().DurationVar(&runIdleReset, "idle-reset", tempo.DefaultIdleReset, "reset after this long without taps")
	rootCmd.Flags().StringVar(&runGamepad, "gamepad", "", "joystick device to read buttons from (e.g. /dev/input/js0)")
	rootCmd.Flags().StringVar(&runKeyboard, "keyboard", "", "evdev keyboard device; filters auto-repeat")
	rootCmd.Flags().StringVar(&runMIDI, "midi", "", "MIDI input port name")
	rootCmd.Flags().IntVar(&runMIDIChannel, "midi-channel", midiin.AnyChannel, "MIDI channel 0-15 (-1 for any)")
	rootCmd.Flags().IntVar(&runFrameRate, "frame-rate", gamepad.DefaultFrameRate, "gamepad polls per second")
	rootCmd.Flags().BoolVar(&runDebug, "debug", false, "start with the gamepad debug panel open")
	rootCmd.Flags().StringVar(&runLogFile, "log-file", "", "write logs to this file (debug level defaults to the state dir)")
	rootCmd.Flags().StringVar(&runLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&runQuiet, "quiet", false, "do not print the session summary on exit")
	rootCmd.Flags().BoolVar(&runNoMouse, "no-mouse", false, "disable mouse taps")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDevicesCmd())

	return rootCmd
}

func runTempoCmd(cmd *cobra.Command, _ []string) error {
	configPath := config.DefaultConfigPath()
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "mode", &runMode, fileCfg.Tempo.Mode)
	applyIntConfig(cmd, "samples", &runSamples, fileCfg.Tempo.Samples)
	applyMillisConfig(cmd, "idle-reset", &runIdleReset, fileCfg.Tempo.IdleResetMs)
	applyStringConfig(cmd, "gamepad", &runGamepad, fileCfg.Input.Gamepad)
	applyStringConfig(cmd, "keyboard", &runKeyboard, fileCfg.Input.Keyboard)
	applyStringConfig(cmd, "midi", &runMIDI, fileCfg.Input.MIDI)
	applyIntConfig(cmd, "midi-channel", &runMIDIChannel, fileCfg.Input.MIDIChannel)
	applyIntConfig(cmd, "frame-rate", &runFrameRate, fileCfg.Input.FrameRate)
	applyStringConfig(cmd, "log-file", &runLogFile, fileCfg.Log.File)
	applyStringConfig(cmd, "log-level", &runLogLevel, fileCfg.Log.Level)
	if fileCfg.Input.Mouse != nil && !cmd.Flags().Changed("no-mouse") {
		runNoMouse = !*fileCfg.Input.Mouse
	}

	cfg := model.Config{
		Mode:         runMode,
		Samples:      runSamples,
		IdleReset:    runIdleReset,
		FrameRate:    runFrameRate,
		GamepadPath:  runGamepad,
		KeyboardPath: runKeyboard,
		MIDIPort:     runMIDI,
		MIDIChannel:  runMIDIChannel,
		Debug:        runDebug,
		Mouse:        !runNoMouse,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return fmt.Errorf("bpmcheck needs an interactive terminal")
	}

	closeLog, err := logging.Setup(resolveLogFile(runLogFile, runLogLevel), runLogLevel)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeLog(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	st, err := store.Open(store.MemoryDSN)
	if err != nil {
		return fmt.Errorf("failed to open session log: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close session log: %v\n", cerr)
		}
	}()

	var joystick *gamepad.Joystick
	var pads gamepad.Source
	if cfg.GamepadPath != "" {
		joystick, err = gamepad.OpenJoystick(cfg.GamepadPath)
		if err != nil {
			return err
		}
		pads = joystick
	}

	m := tui.NewModel(tui.Options{Config: cfg, Store: st, Pads: pads})
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	program := tea.NewProgram(m, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srcs, err := startSources(ctx, program, cfg, pads)
	if err != nil {
		if joystick != nil {
			_ = joystick.Close()
		}
		return err
	}
	go func() {
		if err := config.Watch(ctx, configPath, func(c config.FileConfig) {
			program.Send(tui.ConfigMsg{Config: c})
		}); err != nil {
			slog.Warn("config: live reload disabled", "err", err)
		}
	}()

	slog.Info("starting", "mode", cfg.Mode, "samples", cfg.Samples, "idle_reset", cfg.IdleReset)
	_, runErr := program.Run()
	cancel()
	srcs.close()
	if joystick != nil {
		if cerr := joystick.Close(); cerr != nil {
			slog.Debug("joystick close failed", "err", cerr)
		}
	}
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}

	if runQuiet {
		return nil
	}
	sessions, err := st.ListSessions(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	if err := stats.RenderSummary(cmd.OutOrStdout(), sessions); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
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

func applyMillisConfig(cmd *cobra.Command, name string, target *time.Duration, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = time.Duration(*value) * time.Millisecond
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# bpmcheck configuration
# Uncomment a value to enable it. CLI flags override config values.
# Changes to mode and samples apply to a running bpmcheck.

[tempo]
# mode = %d                # Taps per beat: 1, 2, 4 or 8
# samples = %d            # Intervals in the moving average
# idle-reset-ms = %d    # Reset after this many milliseconds without taps

[input]
# gamepad = "/dev/input/js0"
# keyboard = "/dev/input/by-id/usb-Keyboard-event-kbd"
# midi = "MIDI port name"
# midi-channel = %d       # 0-15, -1 for any
# frame-rate = %d         # Gamepad polls per second
# mouse = true

[log]
# file = %q   # Used by default when level is "debug"
# level = "info"
`,
		tempo.DefaultMode,
		tempo.DefaultSamples,
		tempo.DefaultIdleReset.Milliseconds(),
		midiin.AnyChannel,
		gamepad.DefaultFrameRate,
		config.DefaultLogPath(),
	)
}

func validateConfig(cfg model.Config) error {
	if !slices.Contains(tempo.Modes, cfg.Mode) {
		return fmt.Errorf("--mode must be one of %v", tempo.Modes)
	}
	if cfg.Samples <= 0 {
		return fmt.Errorf("--samples must be > 0")
	}
	if cfg.IdleReset <= 0 {
		return fmt.Errorf("--idle-reset must be > 0")
	}
	if cfg.FrameRate <= 0 {
		return fmt.Errorf("--frame-rate must be > 0")
	}
	if cfg.MIDIChannel < midiin.AnyChannel || cfg.MIDIChannel > 15 {
		return fmt.Errorf("--midi-channel must be between -1 and 15")
	}
	if _, err := logging.ParseLevel(runLogLevel); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	return nil
}

// resolveLogFile returns the log file to write. Debug logging without an
// explicit file goes to the default state path; other levels log nowhere.
func resolveLogFile(file, level string) string {
	if file != "" {
		return file
	}
	if lvl, err := logging.ParseLevel(level); err == nil && lvl <= slog.LevelDebug {
		return config.DefaultLogPath()
	}
	return ""
}

func isTerminal(file *os.File) bool {
	return term.IsTerminal(int(file.Fd()))
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
