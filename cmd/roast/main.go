// Package main provides the roast CLI.
//
// roast points a panel of critique personas at a UI screenshot and merges
// their findings into a ranked Markdown report, iterating until the
// screen is good enough to ship.
//
// Usage:
//
//	roast run --url <url> [--topic name] [--focus tag]   Roast a live page
//	roast run --image <path> [--topic name]              Roast a screenshot file
//	roast watch [--dir path]                             Roast screenshots dropped in a folder
//	roast personas                                       List critique personas
//	roast reports                                        List stored reports
//	roast report <topic> [--iteration N]                 Print a stored report
//	roast status                                         Show per-topic session state
//	roast reset <topic>                                  Forget a topic's history
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/ternarybob/arbor"

	"roast/internal/config"
	"roast/internal/logger"
	"roast/pkg/capture"
	"roast/pkg/llm"
	"roast/pkg/memory"
	"roast/pkg/persona"
	"roast/pkg/report"
	"roast/pkg/roast"
	"roast/pkg/session"
	"roast/pkg/watch"
)

// version is set via -ldflags at build time
var version = "dev"

// geminiOpenAIEndpoint is Gemini's OpenAI-compatible API, used for
// embedding findings into the recurrence memory.
const geminiOpenAIEndpoint = "https://generativelanguage.googleapis.com/v1beta/openai"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "run":
		err = cmdRun(args)
	case "watch":
		err = cmdWatch(args)
	case "personas":
		err = cmdPersonas(args)
	case "reports":
		err = cmdReports(args)
	case "report":
		err = cmdReport(args)
	case "status":
		err = cmdStatus(args)
	case "reset":
		err = cmdReset(args)
	case "version", "-v", "--version":
		fmt.Printf("roast %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`roast - merciless UI review by a panel of critique personas

Commands:
  run --url <url> | --image <path>   Roast a page or screenshot
      [--topic name]                 Topic for report naming (default: derived)
      [--focus tag]                  Weight one persona's focus 1.5x
      [--iterations N]               Maximum iterations (default: 2)
      [--fix-mode quick|deep|ship]   Skip the interactive prompt
  watch [--dir path]                 Roast screenshots dropped into a folder
  personas                           List critique personas
  reports                            List stored reports
  report <topic> [--iteration N]     Print a stored report
  status                             Show per-topic session state
  reset <topic>                      Forget a topic's reports and history
  version                            Show version
  help                               Show this help`)
}

// loadConfig loads configuration honoring ROAST_CONFIG.
func loadConfig() (*config.Config, error) {
	path := os.Getenv("ROAST_CONFIG")
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

// buildRegistry loads builtin personas plus any custom TOML files.
func buildRegistry(cfg *config.Config, log arbor.ILogger) (*persona.Registry, error) {
	registry := persona.NewRegistry()

	n, err := persona.LoadDir(registry, cfg.Roast.PersonasDir)
	if err != nil {
		return nil, fmt.Errorf("load custom personas: %w", err)
	}
	if n > 0 {
		log.Info().Int("count", n).Str("dir", cfg.Roast.PersonasDir).Msg("Loaded custom personas")
	}

	return registry, nil
}

// buildOrchestrator wires the LLM router, browser, memory and reports.
func buildOrchestrator(cfg *config.Config, registry *persona.Registry, focus string, iterations int, mode roast.FixMode, log arbor.ILogger) (*roast.Orchestrator, func(), error) {
	provider, err := llm.NewGeminiProvider(llm.GeminiConfig{
		APIKey:   cfg.LLM.APIKey,
		Thinking: cfg.LLM.Thinking,
		Timeout:  time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create provider: %w", err)
	}

	router := llm.NewRouter(provider).
		SetCritiqueModel(cfg.LLM.CritiqueModel).
		SetSynthesisModel(cfg.LLM.SynthesisModel)

	workdir, err := report.NewWorkdir(cfg.Roast.ReportsDir)
	if err != nil {
		return nil, nil, err
	}

	embed := chromem.NewEmbeddingFuncOpenAICompat(geminiOpenAIEndpoint, cfg.LLM.APIKey, "text-embedding-004", nil)
	store, err := memory.NewStore(cfg.MemoryDir(), embed)
	if err != nil {
		return nil, nil, fmt.Errorf("open finding memory: %w", err)
	}

	browser, err := capture.NewBrowser(capture.Options{
		WindowWidth:  cfg.Capture.WindowWidth,
		WindowHeight: cfg.Capture.WindowHeight,
		FullPage:     cfg.Capture.FullPage,
		Timeout:      time.Duration(cfg.Capture.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("start browser: %w", err)
	}

	orch, err := roast.NewOrchestrator(router,
		roast.WithRegistry(registry),
		roast.WithWorkdir(workdir),
		roast.WithMemory(store),
		roast.WithCapture(browser.CaptureURL),
		roast.WithLogger(log),
		roast.WithSessionDir(cfg.SessionsDir()),
		roast.WithConfig(roast.Config{
			Iterations:   iterations,
			Focus:        focus,
			FixMode:      mode,
			FocusBoost:   cfg.Roast.FocusBoost,
			OffFocusDamp: cfg.Roast.OffFocusDamp,
		}),
	)
	if err != nil {
		browser.Close()
		return nil, nil, err
	}

	return orch, browser.Close, nil
}

// cmdRun roasts a single target.
func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	url := fs.String("url", "", "URL to capture and roast")
	image := fs.String("image", "", "screenshot file to roast")
	topic := fs.String("topic", "", "topic for report naming")
	focus := fs.String("focus", "", "persona focus tag to weight 1.5x")
	iterations := fs.Int("iterations", 0, "maximum iterations")
	fixMode := fs.String("fix-mode", "", "quick, deep or ship (skips the prompt)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *url == "" && *image == "" {
		return fmt.Errorf("one of --url or --image is required")
	}
	if *url != "" && *image != "" {
		return fmt.Errorf("--url and --image are mutually exclusive")
	}

	mode, err := roast.ParseFixMode(*fixMode)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	if *focus == "" {
		*focus = cfg.Roast.Focus
	}
	if *iterations <= 0 {
		*iterations = cfg.Roast.Iterations
	}

	log := logger.SetupLogger(cfg)
	defer logger.Stop()

	registry, err := buildRegistry(cfg, log)
	if err != nil {
		return err
	}

	orch, closeBrowser, err := buildOrchestrator(cfg, registry, *focus, *iterations, mode, log)
	if err != nil {
		return err
	}
	defer closeBrowser()

	target := roast.Target{Topic: *topic, URL: *url}
	if *image != "" {
		data, mime, err := capture.CaptureFile(*image)
		if err != nil {
			return err
		}
		target.Image = data
		target.MIMEType = mime
		if target.Topic == "" {
			target.Topic = watch.Topic(*image)
		}
	}
	if target.Topic == "" {
		target.Topic = topicFromURL(*url)
	}

	// Interactive decider unless a fix mode was preselected
	var decide roast.Decider
	if mode == "" {
		decide = promptDecider(os.Stdin)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := orch.Run(ctx, target, decide)
	if err != nil {
		return err
	}

	fmt.Printf("\nRoast of %q complete (%s).\n", result.Topic, result.Stopped)
	for _, iter := range result.Iterations {
		fmt.Printf("  iteration %d: %d findings (%d new, %d recurring) -> %s\n",
			iter.Number, len(iter.Findings), iter.New, iter.Recurring, iter.ReportPath)
	}

	return nil
}

// promptDecider returns a decider that asks on the terminal.
func promptDecider(in *os.File) roast.Decider {
	reader := bufio.NewReader(in)

	return func(iter *roast.Iteration) roast.Decision {
		fmt.Printf("\nIteration %d: %d findings (%d new, %d recurring).\n",
			iter.Number, len(iter.Findings), iter.New, iter.Recurring)
		fmt.Println("How do you want to proceed?")
		fmt.Println("  1) quick - patch the top three findings, then re-roast")
		fmt.Println("  2) deep  - work the full list, then re-roast")
		fmt.Println("  3) ship  - good enough, stop here")

		for {
			fmt.Print("Choice [1-3]: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return roast.Decision{Mode: roast.FixModeShip}
			}

			switch strings.TrimSpace(line) {
			case "1", "quick":
				return roast.Decision{Mode: roast.FixModeQuick, Continue: true}
			case "2", "deep":
				return roast.Decision{Mode: roast.FixModeDeep, Continue: true}
			case "3", "ship":
				return roast.Decision{Mode: roast.FixModeShip}
			}
			fmt.Println("Please answer 1, 2 or 3.")
		}
	}
}

// topicFromURL derives a topic from a URL when none was given.
func topicFromURL(url string) string {
	s := url
	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimSuffix(s, "/")
	return report.SanitizeTopic(s)
}

// cmdWatch roasts screenshots dropped into a folder.
func cmdWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	dir := fs.String("dir", "", "drop folder to watch")
	focus := fs.String("focus", "", "persona focus tag to weight 1.5x")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	if *dir == "" {
		*dir = cfg.Roast.WatchDir
	}
	if *dir == "" {
		*dir = "drop"
	}
	if *focus == "" {
		*focus = cfg.Roast.Focus
	}

	log := logger.SetupLogger(cfg)
	defer logger.Stop()

	registry, err := buildRegistry(cfg, log)
	if err != nil {
		return err
	}

	// Dropped screenshots run non-interactively in deep mode
	orch, closeBrowser, err := buildOrchestrator(cfg, registry, *focus, cfg.Roast.Iterations, roast.FixModeDeep, log)
	if err != nil {
		return err
	}
	defer closeBrowser()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	handler := func(topic, path string) {
		data, mime, err := capture.CaptureFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping dropped file")
			return
		}

		result, err := orch.Run(ctx, roast.Target{Topic: topic, Image: data, MIMEType: mime}, nil)
		if err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("Roast failed")
			return
		}
		for _, iter := range result.Iterations {
			fmt.Printf("%s iteration %d -> %s\n", topic, iter.Number, iter.ReportPath)
		}
	}

	watcher, err := watch.NewWatcher(*dir, cfg.Roast.DebounceMs, handler, log)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	fmt.Printf("Watching %s for screenshots (Ctrl-C to stop)...\n", *dir)
	<-ctx.Done()
	return nil
}

// cmdPersonas lists the critique personas.
func cmdPersonas(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.SetupLogger(cfg)
	defer logger.Stop()

	registry, err := buildRegistry(cfg, log)
	if err != nil {
		return err
	}

	for _, p := range registry.List() {
		fmt.Printf("%-12s %-15s %s\n", p.ID, p.Focus, p.Name)
	}
	return nil
}

// cmdReports lists stored reports.
func cmdReports(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	workdir, err := report.NewWorkdir(cfg.Roast.ReportsDir)
	if err != nil {
		return err
	}

	infos, err := workdir.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No reports stored.")
		return nil
	}

	for _, info := range infos {
		fmt.Printf("%-30s iteration %-3d %s\n", info.Topic, info.Iteration, info.Path)
	}
	return nil
}

// cmdReport prints a stored report.
func cmdReport(args []string) error {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		return fmt.Errorf("usage: roast report <topic> [--iteration N]")
	}
	topic := args[0]

	fs := flag.NewFlagSet("report", flag.ExitOnError)
	iteration := fs.Int("iteration", 0, "iteration to print (default: latest)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	workdir, err := report.NewWorkdir(cfg.Roast.ReportsDir)
	if err != nil {
		return err
	}

	if *iteration <= 0 {
		*iteration = workdir.LatestIteration(topic)
		if *iteration == 0 {
			return fmt.Errorf("no reports found for topic %q", topic)
		}
	}

	content, err := workdir.ReadReport(topic, *iteration)
	if err != nil {
		return err
	}

	fmt.Print(content)
	return nil
}

// cmdStatus shows per-topic session state.
func cmdStatus(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	topics, err := session.List(cfg.SessionsDir())
	if err != nil {
		return err
	}
	if len(topics) == 0 {
		fmt.Println("No active topics.")
		return nil
	}

	for _, topic := range topics {
		sess, err := session.New(cfg.SessionsDir(), topic, "")
		if err != nil {
			continue
		}
		state := "in progress"
		if sess.Completed() {
			state = "shipped"
		}
		fmt.Printf("%-30s iteration %-3d %s\n", topic, sess.Iteration(), state)
	}
	return nil
}

// cmdReset forgets a topic's session and finding memory.
func cmdReset(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: roast reset <topic>")
	}
	topic := report.SanitizeTopic(args[0])

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := session.Reset(cfg.SessionsDir(), topic); err != nil {
		return err
	}

	embed := chromem.NewEmbeddingFuncOpenAICompat(geminiOpenAIEndpoint, cfg.LLM.APIKey, "text-embedding-004", nil)
	store, err := memory.NewStore(cfg.MemoryDir(), embed)
	if err == nil {
		// A missing collection is fine, the topic may never have run
		_ = store.Forget(topic)
	}

	fmt.Printf("Reset %q.\n", topic)
	return nil
}
