package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/v0xg/pagepilot/internal/action"
	"github.com/v0xg/pagepilot/internal/agent"
	"github.com/v0xg/pagepilot/internal/ai"
	"github.com/v0xg/pagepilot/internal/annotator"
	"github.com/v0xg/pagepilot/internal/config"
	"github.com/v0xg/pagepilot/internal/gifgen"
	"github.com/v0xg/pagepilot/internal/logger"
	"github.com/v0xg/pagepilot/internal/recorder"
	"github.com/v0xg/pagepilot/internal/session"
)

var (
	configPath string
	headless   bool
	timeout    time.Duration
	width      int
	height     int
	provider   string
	model      string
	logsDir    string
	replayGIF  bool
	verbose    bool
	profile    string
	chromeBin  string
	noStealth  bool

	output  string
	waitFor time.Duration
)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pagepilot",
		Short: "Let a vision model browse the web for you",
		Long: `pagepilot opens a browser, marks every link, field, dropdown and scrollable
area on the page, and lets a vision model drive it one action at a time.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "pagepilot.yaml", "YAML config file (optional)")
	flags.BoolVar(&headless, "headless", false, "Run the browser without a window")
	flags.DurationVar(&timeout, "timeout", 5*time.Second, "Wait bound for loads and new tabs")
	flags.IntVar(&width, "width", 1440, "Viewport width")
	flags.IntVar(&height, "height", 800, "Viewport height")
	flags.StringVar(&profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	flags.StringVar(&chromeBin, "bin", "", "Chrome/Chromium binary (default: auto-detect)")
	flags.BoolVar(&noStealth, "no-stealth", false, "Disable stealth evasions on the first page")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")

	runCmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Start an interactive browsing session",
		Long: `Start a browsing session. The first prompt comes from the argument or stdin;
after each answer you can give a follow-up. An empty line ends the session.

Example:
  pagepilot run "find the cheapest flight from Berlin to Lisbon next Friday"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSession,
	}
	runCmd.Flags().StringVar(&provider, "provider", "", "AI provider: claude, openai (default: from config or claude)")
	runCmd.Flags().StringVar(&model, "model", "", "Specific model override")
	runCmd.Flags().StringVar(&logsDir, "logs", "", "Directory for screenshots and steps.json (default: from config)")
	runCmd.Flags().BoolVar(&replayGIF, "gif", false, "Also write replay.gif with click markers")

	annotateCmd := &cobra.Command{
		Use:   "annotate <url>",
		Short: "Annotate a page and save the screenshot",
		Long: `Open a URL, mark its interactive elements and save the annotated screenshot.
Use --wait with a visible browser to dismiss banners before the capture.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnnotate,
	}
	annotateCmd.Flags().StringVarP(&output, "output", "o", "annotated.png", "Output filename")
	annotateCmd.Flags().DurationVar(&waitFor, "wait", 0, "Pause before annotating")

	rootCmd.AddCommand(runCmd, annotateCmd)
	return rootCmd
}

// loadConfig layers command-line flags over the file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("headless") {
		cfg.Browser.Headless = headless
	}
	if changed("timeout") {
		cfg.Session.Timeout = timeout
	}
	if changed("width") {
		cfg.Browser.Viewport.Width = width
	}
	if changed("height") {
		cfg.Browser.Viewport.Height = height
	}
	if changed("profile") {
		cfg.Browser.UserDataDir = profile
	}
	if changed("bin") {
		cfg.Browser.Bin = chromeBin
	}
	if changed("no-stealth") {
		cfg.Browser.Stealth = !noStealth
	}
	if changed("provider") {
		cfg.AI.Provider = provider
	}
	if changed("model") {
		cfg.AI.Model = model
	}
	if changed("logs") {
		cfg.LogsDir = logsDir
	}
	if changed("gif") {
		cfg.ReplayGIF = replayGIF
	}
	if verbose {
		cfg.LogLevel = logger.DEBUG.String()
	}
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.NewWithWriter(logger.ParseLevel(cfg.LogLevel), "pagepilot", os.Stderr)
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Model, cfg.AI.MaxTokens)
	if err != nil {
		return fmt.Errorf("AI provider init failed: %w", err)
	}

	fmt.Printf("→ Launching browser... ")
	ctrl, err := session.Open(ctx, cfg, log.WithPrefix("session"))
	if err != nil {
		fmt.Println("failed")
		return err
	}
	fmt.Println("done")

	rec := recorder.New(cfg.LogsDir, log.WithPrefix("recorder"))
	defer func() {
		saveLogs(ctrl, rec, cfg)
		if err := ctrl.Close(); err != nil {
			log.Debug("browser close: %v", err)
		}
	}()

	ag := agent.New(aiProvider, ctrl, agent.Options{
		MaxSteps:    cfg.Agent.MaxSteps,
		MaxFailures: cfg.Agent.MaxFailures,
	}, log.WithPrefix("agent"))
	ag.OnAction = func(a action.Action) {
		fmt.Printf("→ %s\n", a.Describe())
	}

	lines := readLines(ctx, os.Stdin)
	prompt := ""
	if len(args) == 1 {
		prompt = args[0]
	} else {
		fmt.Print("You: ")
		prompt = next(ctx, lines)
	}

	for strings.TrimSpace(prompt) != "" {
		fmt.Printf("→ Thinking via %s...\n", aiProvider.Name())
		res, err := ag.Run(ctx, prompt)
		switch {
		case ctx.Err() != nil:
			fmt.Println()
			return nil
		case errors.Is(err, agent.ErrStepLimit), errors.Is(err, agent.ErrTooManyFailures):
			fmt.Printf("⚠ %v\n", err)
		case err != nil:
			return err
		default:
			fmt.Printf("\nAssistant: %s\n\n", res.Answer)
		}

		fmt.Print("You: ")
		prompt = next(ctx, lines)
	}
	return nil
}

func saveLogs(ctrl *session.Controller, rec *recorder.Recorder, cfg *config.Config) {
	entries := ctrl.Logs()
	if len(entries) == 0 {
		return
	}
	fmt.Printf("→ Saving %d step(s)... ", len(entries))
	dir, err := rec.Save(entries, recorder.Options{
		ReplayGIF:    cfg.ReplayGIF,
		GIF:          gifgen.Options{MaxWidth: 800},
		PointerScale: cfg.Browser.Viewport.DeviceScaleFactor,
	})
	if err != nil {
		fmt.Println("failed")
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		return
	}
	fmt.Println("done")
	fmt.Printf("✓ Saved to %s\n", dir)
}

// readLines feeds lines from r until EOF or ctx ends.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case out <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// next returns the next line, or "" on EOF or cancellation.
func next(ctx context.Context, lines <-chan string) string {
	select {
	case line, ok := <-lines:
		if !ok {
			return ""
		}
		return line
	case <-ctx.Done():
		return ""
	}
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	url := args[0]
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("→ Launching browser... ")
	ctrl, err := session.Open(ctx, cfg, log.WithPrefix("session"))
	if err != nil {
		fmt.Println("failed")
		return err
	}
	fmt.Println("done")
	defer ctrl.Close()

	fmt.Printf("→ Loading %s... ", url)
	snap, err := ctrl.Navigate(ctx, url)
	if err != nil {
		fmt.Println("failed")
		return err
	}
	fmt.Println("done")

	if waitFor > 0 {
		fmt.Printf("→ Waiting %s before capture...\n", waitFor)
		select {
		case <-time.After(waitFor):
		case <-ctx.Done():
			return ctx.Err()
		}
		if snap, err = ctrl.Snapshot(ctx); err != nil {
			return err
		}
	}

	if err := os.WriteFile(output, snap.Screenshot, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Printf("  clickable: %d, text inputs: %d, selects: %d, scrollable areas: %d\n",
		snap.Count(annotator.Clickable), snap.Count(annotator.TextInput),
		snap.Count(annotator.Select), snap.Count(annotator.ScrollableArea))
	for _, s := range snap.SelectOptions {
		fmt.Printf("  %s: %s\n", s.ID, strings.Join(s.Options, ", "))
	}
	fmt.Printf("✓ Saved to %s\n", output)
	return nil
}
