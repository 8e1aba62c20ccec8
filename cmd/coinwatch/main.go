package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"coinwatch/internal/config"
	"coinwatch/internal/dedup"
	"coinwatch/internal/extract"
	"coinwatch/internal/ingest"
	"coinwatch/internal/mcp"
	"coinwatch/internal/provider/tavily"
	"coinwatch/internal/resolve"
	"coinwatch/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"search": true, "extract": true, "latest": true,
	"fetch": true, "web": true, "help": true,
}

// deps bundles the engine components constructed once at startup and
// passed by reference to every transport.
type deps struct {
	cfg       *config.Config
	store     *store.Store
	resolver  *resolve.Resolver
	extractor *extract.Adapter
	scheduler *ingest.Scheduler
	log       *slog.Logger
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  coinwatch — cached crypto news over MCP

  Usage: coinwatch <command> [options]
         coinwatch --help

  MCP server mode requires piped input.`)
}

// buildDeps validates configuration and wires the engine components.
func buildDeps() (*deps, error) {
	cfg := config.FromEnv()
	if err := cfg.LoadSources(sourcesPath()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	// stdout carries the MCP wire; everything loggable goes to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	st := store.New(rdb,
		store.WithTTL(cfg.TTL()),
		store.WithMaxIndexSize(cfg.MaxIndexSize),
	)
	gate := dedup.NewGate(st)
	tav := tavily.New(cfg.TavilyAPIKey)

	return &deps{
		cfg:   cfg,
		store: st,
		resolver: resolve.New(st, gate, tav, cfg.IncludeDomains, log),
		extractor: extract.New(tav, log,
			extract.WithLocalFallback(),
		),
		scheduler: ingest.New(st, gate, tav, ingest.Options{
			Queries:        cfg.Queries,
			IncludeDomains: cfg.IncludeDomains,
			MaxResults:     cfg.SweepMaxResults,
			Days:           cfg.SweepDays,
			Feeds:          cfg.Feeds,
		}, log),
		log: log,
	}, nil
}

// sourcesPath resolves the optional YAML sources file location.
func sourcesPath() string {
	if p := os.Getenv("SOURCES_FILE"); p != "" {
		return p
	}
	return "sources.yaml"
}

func main() {
	// Optional .env; absence is fine.
	_ = godotenv.Load()

	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before wiring (no config needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	d, err := buildDeps()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(d)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'coinwatch --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default): scheduler loop alongside stdio transport
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.scheduler.Run(ctx, d.cfg.FetchInterval)

	if err := mcp.Run(d.resolver, d.extractor, d.store, d.scheduler, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
