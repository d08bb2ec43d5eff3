// Command omniport imports an exported article archive (metadata JSON,
// per-article HTML content and markdown highlight notes) into an Omnivore
// instance, re-placing each highlight inside the stored HTML.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"omniport/internal/config"
	"omniport/internal/importer"
	"omniport/internal/ledger"
	"omniport/internal/omnivore"
)

func main() {
	setupLogging()

	cfg := config.Load()
	apiKey := flag.String("api-key", cfg.APIKey, "Omnivore API key (found at /settings/api)")
	apiURL := flag.String("api-url", cfg.APIURL, "Omnivore GraphQL endpoint")
	folder := flag.String("folder", "", "path to the extracted archive folder")
	flag.Parse()

	if *folder == "" {
		fmt.Fprintln(os.Stderr, "usage: omniport --folder <archive> [--api-key KEY] [--api-url URL]")
		os.Exit(2)
	}
	if info, err := os.Stat(*folder); err != nil || !info.IsDir() {
		slog.Error("archive folder not found", "folder", *folder)
		os.Exit(1)
	}

	key := *apiKey
	if key == "" {
		prompted, err := promptAPIKey()
		if err != nil {
			slog.Error("api key required", "err", err)
			os.Exit(2)
		}
		key = prompted
	}

	ledgerPath := cfg.LedgerPath
	if ledgerPath == "" {
		ledgerPath = filepath.Join(*folder, ".omniport.sqlite")
	}
	led, err := ledger.Open(ledgerPath)
	if err != nil {
		slog.Error("open ledger", "path", ledgerPath, "err", err)
		os.Exit(1)
	}
	defer led.Close()

	ctx := context.Background()
	if err := led.Init(ctx); err != nil {
		slog.Error("init ledger", "err", err)
		os.Exit(1)
	}

	api := omnivore.New(*apiURL, key)
	imp := importer.New(api, led, cfg.Cutoff)
	if err := imp.ImportFolder(ctx, *folder); err != nil {
		slog.Error("import failed", "err", err)
		os.Exit(1)
	}

	if n, err := led.Count(ctx); err == nil {
		slog.Info("done", "imported_total", n)
	}
}

func setupLogging() {
	level := parseLogLevel(os.Getenv("OMNIPORT_DEBUG_LEVEL"))
	pretty := strings.EqualFold(os.Getenv("OMNIPORT_LOG_PRETTY"), "1") ||
		strings.EqualFold(os.Getenv("OMNIPORT_LOG_PRETTY"), "true")

	var handler slog.Handler
	if pretty {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func parseLogLevel(raw string) slog.Leveler {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}
	return level
}

func promptAPIKey() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("no --api-key flag, OMNIPORT_API_KEY unset and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "API key: ")
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read api key: %w", err)
	}
	trimmed := strings.TrimSpace(string(key))
	if trimmed == "" {
		return "", errors.New("empty api key")
	}
	return trimmed, nil
}
