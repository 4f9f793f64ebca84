package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/vtstudio/transcript-studio/internal/backend"
	"github.com/vtstudio/transcript-studio/internal/config"
	"github.com/vtstudio/transcript-studio/internal/history"
	"github.com/vtstudio/transcript-studio/internal/session"
	"github.com/vtstudio/transcript-studio/internal/ui"
	"github.com/vtstudio/transcript-studio/pkg/log"
)

func main() {
	setKey := flag.Bool("set-api-key", false, "prompt for the backend API key and store it in the OS keyring")
	noHistory := flag.Bool("no-history", false, "disable the recent-jobs history store")
	flag.Usage = usage
	flag.Parse()

	// Optional; env vars take precedence over .env entries already set.
	_ = godotenv.Load()

	if *setKey {
		if err := promptAndStoreAPIKey(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("API key stored.")
		return
	}

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	inputFile := flag.Arg(0)
	if _, err := os.Stat(inputFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot open %s: %v\n", inputFile, err)
		os.Exit(1)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "error: studio needs an interactive terminal")
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns stderr, so logs go to a file for the whole run.
	fileLogger, err := log.InitFileLogger(cfg.Logging.File, log.ParseLevel(cfg.Logging.Level))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer fileLogger.Close()

	var hist *history.Store
	if !*noHistory {
		hist, err = history.NewStore(cfg.Storage.HistoryDBPath())
		if err != nil {
			log.Warn("History store unavailable, continuing without it: %v", err)
		} else {
			defer hist.Close()
			ttl := time.Duration(cfg.Cleanup.TTLHours) * time.Hour
			purger, perr := history.NewPurger(hist, cfg.Cleanup.CronExpr, ttl, cfg.Storage.AudioCacheDir())
			if perr != nil {
				log.Warn("Purge schedule disabled: %v", perr)
			} else {
				purger.Run()
				purger.Start()
				defer purger.Stop()
			}
			if recent, rerr := hist.Recent(context.Background(), 1); rerr == nil && len(recent) > 0 {
				log.Info("Last job: %s (%s)", recent[0].OriginalFilename, recent[0].Status)
			}
		}
	}

	client := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		APIKey:  cfg.Backend.APIKey,
		Timeout: time.Duration(cfg.Backend.TimeoutSeconds) * time.Second,
	})

	s := session.New(cfg, client, hist)
	defer s.Close()

	program := tea.NewProgram(ui.New(s, inputFile), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// promptAndStoreAPIKey reads the key without echo and saves it to the
// OS keyring.
func promptAndStoreAPIKey() error {
	fmt.Print("Backend API key: ")
	key, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	if len(key) == 0 {
		return fmt.Errorf("empty API key")
	}
	return config.StoreAPIKey(string(key))
}

func usage() {
	fmt.Fprintf(os.Stderr, `transcript-studio - synchronized transcript editor

Usage:
  studio [flags] <media-file>

Flags:
`)
	flag.PrintDefaults()
}
