package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hivetrace/internal/audit"
	"hivetrace/internal/config"
	"hivetrace/internal/engine"
	"hivetrace/internal/geo"
	"hivetrace/internal/ingest"
	"hivetrace/internal/metrics"
	"hivetrace/internal/parser"
	"hivetrace/internal/score"
	"hivetrace/internal/server"
	"hivetrace/internal/types"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCommand(os.Args[2:])
	case "report":
		reportCommand(os.Args[2:])
	case "watch":
		watchCommand(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: hivetrace <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  run       Serve reports over the dashboard API")
	fmt.Println("  report    Parse one service's logs and print the report as JSON")
	fmt.Println("  watch     Follow honeypot logs and print matched events live")
}

// loadConfig reads the config file, falling back to defaults when the
// file does not exist.
func loadConfig(path string) *types.Config {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		// LoadConfig wraps the open error, so unwrap-aware matching is needed.
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("[CONFIG] %s not found, using defaults", path)
			return config.Default()
		}
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// buildEngine wires the engine and returns it with a shutdown hook that
// persists the geo cache.
func buildEngine(cfg *types.Config) (*engine.Engine, func()) {
	rules := score.DefaultRules()
	if cfg.Scoring.RulesPath != "" {
		loaded, err := score.LoadRules(cfg.Scoring.RulesPath)
		if err != nil {
			log.Printf("[SCORING] failed to load rules from %s, using defaults: %v", cfg.Scoring.RulesPath, err)
		} else {
			rules = loaded
		}
	}

	chain := geo.NewChain(
		geo.NewIPAPIResolver(cfg.Geo.PrimaryURL, cfg.Geo.Timeout),
		geo.NewIPWhoisResolver(cfg.Geo.FallbackURL, cfg.Geo.Timeout),
	)
	cache := geo.NewCache(chain)

	var store *geo.Store
	if cfg.Geo.CachePath != "" {
		s, err := geo.NewStore(cfg.Geo.CachePath)
		if err != nil {
			log.Printf("[GEO] failed to open cache store: %v", err)
		} else {
			store = s
			if records, err := store.LoadAll(); err == nil && len(records) > 0 {
				cache.Warm(records)
				log.Printf("[GEO] restored %d cached locations", len(records))
			}
		}
	}

	auditLogger := audit.NewLogger(cfg.Output.AuditLogPath)
	eng := engine.New(cfg, rules, cache, auditLogger)

	shutdown := func() {
		if store != nil {
			if err := store.SaveAll(cache.Snapshot()); err != nil {
				log.Printf("[GEO] failed to persist cache: %v", err)
			}
			store.Close()
		}
	}
	return eng, shutdown
}

func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "hivetrace.yml", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	eng, shutdown := buildEngine(cfg)
	defer shutdown()

	if cfg.Metrics.Enabled {
		go func() {
			log.Printf("[METRICS] Starting on %s", cfg.Metrics.Port)
			if err := metrics.StartServer(cfg.Metrics.Port); err != nil {
				log.Printf("[METRICS] Failed to start: %v", err)
			}
		}()
	}

	srv := server.New(eng, cfg.Dashboard.Port)
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Dashboard server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
}

func reportCommand(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", "hivetrace.yml", "Path to config file")
	fs.Parse(args)

	service := fs.Arg(0)
	if service == "" {
		fmt.Println("Usage: hivetrace report [-config path] <service>")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	eng, shutdown := buildEngine(cfg)
	defer shutdown()

	rep := eng.Parse(context.Background(), service)

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode report: %v", err)
	}
	fmt.Println(string(out))
}

func watchCommand(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", "hivetrace.yml", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)

	var followers []*ingest.Follower
	events := make(chan types.Event)

	for _, paths := range cfg.Sources {
		for _, sf := range parser.AdaptersFor(paths) {
			f := ingest.NewFollower(sf.Path, sf.Adapter)
			ch, err := f.Start()
			if err != nil {
				log.Printf("Warning: failed to follow %s: %v", sf.Path, err)
				continue
			}
			followers = append(followers, f)
			go func(ch <-chan types.Event) {
				for evt := range ch {
					events <- evt
				}
			}(ch)
		}
	}

	if len(followers) == 0 {
		log.Fatal("No log files to follow")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case evt := <-events:
			fmt.Printf("[%s] %s %s actor=%s user=%s level=%s %s\n",
				evt.Timestamp.Format("2006-01-02 15:04:05"),
				evt.Kind, evt.Type, evt.IP, evt.User, evt.Level, evt.Verb)
		case <-sigChan:
			fmt.Println("\nShutting down...")
			for _, f := range followers {
				f.Stop()
			}
			return
		}
	}
}
