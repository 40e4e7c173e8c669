// Package main provides the CLI entrypoint for sight-translation.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bilo1967/sight-translation/internal/config"
	"github.com/bilo1967/sight-translation/internal/holdrepeat"
	"github.com/bilo1967/sight-translation/internal/i18n"
	"github.com/bilo1967/sight-translation/internal/model"
	"github.com/bilo1967/sight-translation/internal/script"
	"github.com/bilo1967/sight-translation/internal/scroller"
	"github.com/bilo1967/sight-translation/internal/stats"
	"github.com/bilo1967/sight-translation/internal/statsui"
	"github.com/bilo1967/sight-translation/internal/store"
	"github.com/bilo1967/sight-translation/internal/surface"
	"github.com/bilo1967/sight-translation/internal/timerq"
	"github.com/bilo1967/sight-translation/internal/tui"
)

const (
	defaultCurveWindow = 20
	statsPlotHeight    = 8
)

var (
	configPath string
	dbPath     string
	debugLog   bool

	playerSpeed   int
	playerLang    string
	playerSpacing int
	playerWidth   int
	playerRewind  int

	statsLang        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool

	simHold     time.Duration
	simRelease  string
	simDelay    time.Duration
	simInterval time.Duration
	simAccel    float64
	simAfter    int
	simMinimum  time.Duration
	simMaxIter  int
	simMaxDur   time.Duration
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sight-translation [script]",
		Short:         "Terminal teleprompter for sight translation practice",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayerCmd,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "database path")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "write a debug log to "+config.DefaultLogPath())

	rootCmd.Flags().IntVar(&playerSpeed, "speed", scroller.DefaultSpeed, "scrolling speed in words per minute")
	rootCmd.Flags().StringVar(&playerLang, "lang", "", "interface language (default: saved or from the environment)")
	rootCmd.Flags().IntVar(&playerSpacing, "spacing", scroller.DefaultSpacing, "blank lines between wrapped lines")
	rootCmd.Flags().IntVar(&playerWidth, "width", 0, "wrap width in cells (0 follows the terminal)")
	rootCmd.Flags().IntVar(&playerRewind, "rewind", int(scroller.DefaultRewind/time.Second), "seconds skipped back by rewind")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLangsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newSimulateCmd())

	return rootCmd
}

func runPlayerCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "speed", &playerSpeed, fileCfg.Player.Speed)
	applyStringConfig(cmd, "lang", &playerLang, fileCfg.Player.Lang)
	applyIntConfig(cmd, "spacing", &playerSpacing, fileCfg.Player.Spacing)
	applyIntConfig(cmd, "width", &playerWidth, fileCfg.Player.Width)
	applyIntConfig(cmd, "rewind", &playerRewind, fileCfg.Player.Rewind)

	logger, closeLog, err := openDebugLog()
	if err != nil {
		return err
	}
	defer closeLog()

	scr, err := script.Load(args[0])
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	speedSet := cmd.Flags().Changed("speed") || fileCfg.Player.Speed != nil
	if !speedSet {
		if saved, ok := loadIntPreference(ctx, st, store.PrefTextSpeed); ok {
			playerSpeed = scroller.ClampSpeed(saved)
		}
	}
	savedLang, err := st.GetPreference(ctx, store.PrefLanguage)
	if err != nil && !errors.Is(err, store.ErrNoPreference) {
		logErrf("failed to load language preference: %v\n", err)
	}
	lang := i18n.Default().Resolve(playerLang, savedLang, i18n.EnvLocale())

	cfg := model.Config{
		Speed:         playerSpeed,
		Lang:          lang.String(),
		Spacing:       playerSpacing,
		Width:         playerWidth,
		RewindSeconds: playerRewind,
		ScriptPath:    scr.Path,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	m := tui.NewModel(cfg, st, scr, tui.Options{
		Hold:   holdrepeat.ParseOptions(fileCfg.Hold),
		Logger: logger,
	})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// openDebugLog routes the standard logger to the debug log file when
// --debug is set. Without it the returned logger is nil.
func openDebugLog() (*log.Logger, func(), error) {
	if !debugLog {
		return nil, func() {}, nil
	}
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := tea.LogToFile(path, "sight-translation")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	return log.Default(), func() {
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close debug log: %v\n", cerr)
		}
	}, nil
}

func loadIntPreference(ctx context.Context, st *store.Store, key string) (int, bool) {
	raw, err := st.GetPreference(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNoPreference) {
			logErrf("failed to load %s preference: %v\n", key, err)
		}
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		logErrf("ignoring invalid %s preference %q\n", key, raw)
		return 0, false
	}
	return n, true
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
	if _, err := config.WriteTemplate(configPath); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], configPath)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List interface languages",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	return writeLangs(cmd.OutOrStdout(), i18n.Default())
}

func writeLangs(w io.Writer, bundle *i18n.Bundle) error {
	for _, l := range bundle.Languages() {
		line := fmt.Sprintf("%-4s %s", l.Tag, l.Name)
		if missing := bundle.Missing(l.Tag); len(missing) > 0 {
			line += fmt.Sprintf(" (%d untranslated)", len(missing))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show reading stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsLang, "lang", "", "interface language filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the interactive view")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}

	cfg := model.StatsConfig{
		Lang:        statsLang,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return writeStatsReport(cmd.Context(), cmd.OutOrStdout(), st, cfg, 0)
	}
	program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

// writeStatsReport prints the text report. A zero width follows the terminal.
func writeStatsReport(ctx context.Context, w io.Writer, st *store.Store, cfg model.StatsConfig, width int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := stats.BuildReport(ctx, st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	if err := stats.RenderSummary(w, report.Sessions); err != nil {
		return err
	}
	if err := stats.RenderSessionTable(w, report.Sessions); err != nil {
		return err
	}
	if err := stats.RenderCurves(w, report.Sessions, cfg.CurveWindow, width, statsPlotHeight); err != nil {
		return err
	}
	return stats.RenderAdjustments(w, report.SpeedChanges)
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Trace a press-and-hold on a virtual clock",
		Long: "Presses a button, holds it for --hold, releases it with --release and prints\n" +
			"every gesture event. Options start from the [hold] config table.",
		Args: cobra.NoArgs,
		RunE: runSimulateCmd,
	}
	cmd.Flags().DurationVar(&simHold, "hold", time.Second, "how long the button is held")
	cmd.Flags().StringVar(&simRelease, "release", surface.EventPointerUp, "release signal: pointerup, pointerleave, pointercancel, touchend or touchcancel")
	cmd.Flags().DurationVar(&simDelay, "initial-delay", holdrepeat.Defaults.InitialDelay, "delay before the first repeat")
	cmd.Flags().DurationVar(&simInterval, "repeat-interval", holdrepeat.Defaults.RepeatInterval, "interval between repeats")
	cmd.Flags().Float64Var(&simAccel, "acceleration", 0, "interval factor once accelerating (0 disables)")
	cmd.Flags().IntVar(&simAfter, "accelerate-after", holdrepeat.Defaults.AccelerateAfter, "repeats before accelerating")
	cmd.Flags().DurationVar(&simMinimum, "min-repeat-interval", holdrepeat.Defaults.MinRepeatInterval, "fastest interval when accelerating")
	cmd.Flags().IntVar(&simMaxIter, "max-iterations", 0, "repeat cap (0 is unlimited)")
	cmd.Flags().DurationVar(&simMaxDur, "max-duration", 0, "hold time cap (0 is unlimited)")
	return cmd
}

func runSimulateCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	opts := holdrepeat.ParseOptions(fileCfg.Hold).Merge(simulateFlagOptions(cmd))
	return simulate(cmd.OutOrStdout(), opts, simHold, simRelease)
}

// simulateFlagOptions collects the options set explicitly on the command line.
func simulateFlagOptions(cmd *cobra.Command) holdrepeat.Options {
	var opts holdrepeat.Options
	flags := cmd.Flags()
	if flags.Changed("initial-delay") {
		opts.InitialDelay = holdrepeat.Ptr(simDelay)
	}
	if flags.Changed("repeat-interval") {
		opts.RepeatInterval = holdrepeat.Ptr(simInterval)
	}
	if flags.Changed("acceleration") && simAccel > 0 {
		opts.Acceleration = holdrepeat.Ptr(simAccel)
	}
	if flags.Changed("accelerate-after") {
		opts.AccelerateAfter = holdrepeat.Ptr(simAfter)
	}
	if flags.Changed("min-repeat-interval") {
		opts.MinRepeatInterval = holdrepeat.Ptr(simMinimum)
	}
	if flags.Changed("max-iterations") && simMaxIter > 0 {
		opts.MaxIterations = holdrepeat.Ptr(simMaxIter)
	}
	if flags.Changed("max-duration") && simMaxDur > 0 {
		opts.MaxDuration = holdrepeat.Ptr(simMaxDur)
	}
	return opts
}

var releaseSignals = map[string]bool{
	surface.EventPointerUp:     true,
	surface.EventPointerLeave:  true,
	surface.EventPointerCancel: true,
	surface.EventTouchEnd:      true,
	surface.EventTouchCancel:   true,
}

// simulate holds a delegated button on a virtual clock and writes one line
// per event.
func simulate(w io.Writer, opts holdrepeat.Options, hold time.Duration, release string) error {
	if !releaseSignals[release] {
		return fmt.Errorf("unknown release signal %q", release)
	}
	if hold < 0 {
		return fmt.Errorf("--hold must be >= 0")
	}
	start := time.Unix(0, 0)
	clock := timerq.NewQueue(start)
	engine := holdrepeat.NewEngine(clock)

	root := surface.NewNode("toolbar", "toolbar")
	button := surface.NewNode("button", "inc-speed", "speed")
	root.Append(button)
	if err := engine.Bind(root, "#inc-speed", opts); err != nil {
		return err
	}
	cfg := engine.Configure(opts)
	if _, err := fmt.Fprintf(w, "config: %s\n", describeConfig(cfg)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	var writeErr error
	trace := func(ev *surface.Event) {
		if writeErr != nil {
			return
		}
		at := clock.Now().Sub(start)
		_, writeErr = fmt.Fprintf(w, "%8s  %-17s %s\n", at, ev.Type, describeDetail(ev))
	}
	for _, typ := range []string{
		holdrepeat.EventHoldStart,
		holdrepeat.EventHoldRepeat,
		holdrepeat.EventHoldRepeatHalt,
		holdrepeat.EventHoldStop,
		surface.EventActivate,
	} {
		root.On(typ, trace)
	}

	surface.Dispatch(&surface.Event{Type: surface.EventPointerDown, Target: button, Time: clock.Now()})
	clock.Advance(hold)
	surface.Dispatch(&surface.Event{Type: release, Target: button, Time: clock.Now()})
	clock.Advance(0)
	return writeErr
}

func describeConfig(cfg holdrepeat.Config) string {
	parts := []string{
		"initial-delay=" + cfg.InitialDelay.String(),
		"repeat-interval=" + cfg.RepeatInterval.String(),
	}
	if cfg.Accelerate {
		parts = append(parts,
			fmt.Sprintf("acceleration=%g", cfg.Acceleration),
			fmt.Sprintf("accelerate-after=%d", cfg.AccelerateAfter),
			"min-repeat-interval="+cfg.MinRepeatInterval.String())
	}
	if cfg.MaxIterations > 0 {
		parts = append(parts, fmt.Sprintf("max-iterations=%d", cfg.MaxIterations))
	}
	if cfg.MaxDuration > 0 {
		parts = append(parts, "max-duration="+cfg.MaxDuration.String())
	}
	return strings.Join(parts, " ")
}

func describeDetail(ev *surface.Event) string {
	switch d := ev.Detail.(type) {
	case holdrepeat.HoldRepeat:
		s := fmt.Sprintf("iteration=%d interval=%s", d.Iteration, d.CurrentInterval)
		if d.Accelerating {
			s += " accelerating"
		}
		return s
	case holdrepeat.HoldRepeatHalt:
		return fmt.Sprintf("reason=%q iteration=%d", d.Reason, d.Iteration)
	case holdrepeat.HoldStop:
		return fmt.Sprintf("duration=%s iterations=%d", d.Duration, d.Iterations)
	}
	if ev.Type == surface.EventActivate && ev.Synthetic {
		return "tap"
	}
	return ""
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

func validateConfig(cfg model.Config) error {
	if cfg.Speed < scroller.MinSpeed || cfg.Speed > scroller.MaxSpeed {
		return fmt.Errorf("--speed must be between %d and %d", scroller.MinSpeed, scroller.MaxSpeed)
	}
	if cfg.Spacing < scroller.MinSpacing || cfg.Spacing > scroller.MaxSpacing {
		return fmt.Errorf("--spacing must be between %d and %d", scroller.MinSpacing, scroller.MaxSpacing)
	}
	if cfg.Width < 0 {
		return fmt.Errorf("--width must be >= 0")
	}
	if cfg.RewindSeconds <= 0 {
		return fmt.Errorf("--rewind must be > 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
