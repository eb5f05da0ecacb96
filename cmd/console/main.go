package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/outbreak-engine/data"
	"github.com/jwebster45206/outbreak-engine/internal/config"
	"github.com/jwebster45206/outbreak-engine/internal/storage"
)

type ConsoleConfig struct {
	NominalInterval time.Duration
	FastInterval    time.Duration
	Seed            int64
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	var scenarioFS fs.FS = data.FS
	if cfg.DataDir != "" {
		scenarioFS = os.DirFS(cfg.DataDir)
	}
	// Logging would draw over the alt screen.
	library := storage.NewScenarioLibrary(scenarioFS, slog.New(slog.DiscardHandler))

	scenarios, err := library.ListScenarios(context.Background())
	if err != nil || len(scenarios) == 0 {
		fmt.Fprintf(os.Stderr, "Failed to list scenarios: %v\n", err)
		os.Exit(1)
	}

	console := &ConsoleConfig{
		NominalInterval: cfg.TickInterval,
		FastInterval:    cfg.FastTickInterval,
		Seed:            cfg.RandomSeed,
	}

	p := tea.NewProgram(NewConsoleUI(console, library, scenarios),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
