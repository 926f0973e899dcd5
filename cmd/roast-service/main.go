// Package main provides the entry point for roast-service.
//
// roast-service is a standalone service providing:
// - REST API for triggering roasts and reading reports
// - Drop-folder watcher for screenshot-driven roasts
// - MCP server for AI assistant integration
//
// Usage:
//
//	roast-service                   Start the service (default)
//	roast-service serve             Start the service
//	roast-service version           Show version
//	roast-service status            Show service status
//	roast-service stop              Stop the running service
//	roast-service mcp               Start MCP server (stdio mode)
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/ternarybob/arbor"

	"roast/internal/api"
	"roast/internal/config"
	"roast/internal/logger"
	"roast/internal/mcp"
	"roast/internal/service"
	"roast/pkg/capture"
	"roast/pkg/llm"
	"roast/pkg/memory"
	"roast/pkg/persona"
	"roast/pkg/report"
	"roast/pkg/roast"
	"roast/pkg/watch"
)

// version is set via -ldflags at build time
var version = "dev"

// geminiOpenAIEndpoint is Gemini's OpenAI-compatible API, used for
// embedding findings into the recurrence memory.
const geminiOpenAIEndpoint = "https://generativelanguage.googleapis.com/v1beta/openai"

func main() {
	// Set version in API package
	api.SetVersion(version)

	if len(os.Args) < 2 {
		// Default: start service
		if err := cmdServe(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var err error
	switch os.Args[1] {
	case "serve", "start":
		err = cmdServe()
	case "version", "-v", "--version":
		cmdVersion()
	case "status":
		err = cmdStatus()
	case "stop":
		err = cmdStop()
	case "mcp", "mcp-server":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`roast-service - UI critique service

Usage:
  roast-service [command]

Commands:
  serve         Start the service (default)
  version       Show version information
  status        Show service status
  stop          Stop the running service
  mcp           Start MCP server (stdio mode for AI assistant integration)
  help          Show this help

Environment:
  GEMINI_API_KEY    API key for critique and synthesis models

Configuration:
  Config file: ~/.roast/config.yaml (or $APPDATA/roast on Windows)

Examples:
  roast-service                             Start the service
  roast-service mcp                         Start MCP server
  curl localhost:8430/health                Check service health
  curl localhost:8430/personas              List critique personas`)
}

func cmdVersion() {
	fmt.Printf("roast-service version %s\n", version)
}

// runner implements api.Runner against shared service dependencies.
type runner struct {
	cfg      *config.Config
	router   *llm.Router
	registry *persona.Registry
	workdir  *report.Workdir
	store    *memory.Store
	browser  *capture.Browser
	log      arbor.ILogger
}

// Roast executes one roast run for an API or MCP request.
func (r *runner) Roast(ctx context.Context, req api.RoastRequest) (*roast.RunResult, error) {
	mode, err := roast.ParseFixMode(req.FixMode)
	if err != nil {
		return nil, err
	}
	// Service runs are non-interactive; deep mode unless told otherwise
	if mode == "" {
		mode = roast.FixModeDeep
	}

	iterations := req.Iterations
	if iterations <= 0 {
		iterations = r.cfg.Roast.Iterations
	}

	orch, err := roast.NewOrchestrator(r.router,
		roast.WithRegistry(r.registry),
		roast.WithWorkdir(r.workdir),
		roast.WithMemory(r.store),
		roast.WithCapture(r.browser.CaptureURL),
		roast.WithLogger(r.log),
		roast.WithSessionDir(r.cfg.SessionsDir()),
		roast.WithConfig(roast.Config{
			Iterations:   iterations,
			Focus:        req.Focus,
			FixMode:      mode,
			FocusBoost:   r.cfg.Roast.FocusBoost,
			OffFocusDamp: r.cfg.Roast.OffFocusDamp,
		}),
	)
	if err != nil {
		return nil, err
	}

	target := roast.Target{Topic: req.Topic, URL: req.URL}
	if req.ImagePath != "" {
		data, mime, err := capture.CaptureFile(req.ImagePath)
		if err != nil {
			return nil, err
		}
		target.Image = data
		target.MIMEType = mime
	}

	return orch.Run(ctx, target, nil)
}

// buildRunner wires the shared service dependencies.
func buildRunner(cfg *config.Config, log arbor.ILogger) (*runner, func(), error) {
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

	registry := persona.NewRegistry()
	if n, err := persona.LoadDir(registry, cfg.Roast.PersonasDir); err != nil {
		return nil, nil, fmt.Errorf("load custom personas: %w", err)
	} else if n > 0 && log != nil {
		log.Info().Int("count", n).Msg("Loaded custom personas")
	}

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

	r := &runner{
		cfg:      cfg,
		router:   router,
		registry: registry,
		workdir:  workdir,
		store:    store,
		browser:  browser,
		log:      log,
	}

	return r, browser.Close, nil
}

func cmdServe() error {
	// Load configuration
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Check if already running
	if running, pid := service.IsRunning(cfg); running {
		return fmt.Errorf("service already running (PID %d)", pid)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	log := logger.SetupLogger(cfg)
	defer logger.Stop()

	run, closeBrowser, err := buildRunner(cfg, log)
	if err != nil {
		return err
	}
	defer closeBrowser()

	// Create API server
	apiServer := api.NewServer(cfg, run.registry, run.workdir, run)

	// Create daemon
	daemon := service.NewDaemon(cfg)

	// Start service
	if err := daemon.Start(apiServer.Handler()); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	// Drop-folder watcher, when configured
	if cfg.Roast.WatchDir != "" {
		watcher, err := watch.NewWatcher(cfg.Roast.WatchDir, cfg.Roast.DebounceMs, func(topic, path string) {
			_, err := run.Roast(context.Background(), api.RoastRequest{Topic: topic, ImagePath: path})
			if err != nil {
				log.Error().Err(err).Str("topic", topic).Msg("Drop-folder roast failed")
			}
		}, log)
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		defer watcher.Stop()
	}

	fmt.Printf("roast-service v%s started on %s\n", version, cfg.Address())
	fmt.Printf("API: http://%s/personas\n", cfg.Address())

	// Wait for shutdown signal
	daemon.Wait()

	return nil
}

func cmdStatus() error {
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	running, pid := service.IsRunning(cfg)
	if running {
		fmt.Printf("roast-service: running (PID %d)\n", pid)
		fmt.Printf("Address: %s\n", cfg.Address())
	} else {
		fmt.Println("roast-service: stopped")
	}

	return nil
}

func cmdStop() error {
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	running, pid := service.IsRunning(cfg)
	if !running {
		fmt.Println("roast-service is not running")
		return nil
	}

	fmt.Printf("Stopping roast-service (PID %d)...\n", pid)
	if err := service.StopRunning(cfg); err != nil {
		return err
	}

	fmt.Println("roast-service stopped")
	return nil
}

func cmdMCP() error {
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	// Stdio transport; keep process logs out of the protocol stream
	log := logger.SetupLogger(cfg)
	defer logger.Stop()

	run, closeBrowser, err := buildRunner(cfg, log)
	if err != nil {
		return err
	}
	defer closeBrowser()

	mcpServer := mcp.NewServer(run, run.registry, run.workdir)
	return mcpServer.ServeStdio()
}
