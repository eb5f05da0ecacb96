package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jwebster45206/outbreak-engine/data"
	"github.com/jwebster45206/outbreak-engine/internal/config"
	"github.com/jwebster45206/outbreak-engine/internal/logger"
	"github.com/jwebster45206/outbreak-engine/internal/storage"
	"github.com/jwebster45206/outbreak-engine/pkg/engine"
)

func main() {
	scenarioID := flag.String("scenario", "", "Scenario id to simulate (required)")
	dataDir := flag.String("data", "", "Load scenarios from this directory instead of the bundled ones")
	seed := flag.Int64("seed", 1, "Random seed; 0 seeds from the clock")
	days := flag.Int("days", 120, "Stop after this many days if the game has not ended")
	planFlag := flag.String("plan", "", "Actions to activate, as action@day pairs (e.g. case-interviews@1,recall@4)")
	choice := flag.Int("choice", 0, "Choice index used to answer every event")
	chartPath := flag.String("chart", "", "Write a PNG chart of cases and deaths to this file")
	csvPath := flag.String("csv", "", "Write the daily figures as CSV to this file")
	verbose := flag.Bool("v", false, "Print every notification")
	flag.Parse()

	if *scenarioID == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -scenario <id> [flags]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	plan, err := ParsePlan(*planFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Notifications are the interesting output; logging stays quiet unless something breaks.
	log := logger.Setup(&config.Config{Environment: "development", LogLevel: slog.LevelWarn})

	var scenarioFS fs.FS = data.FS
	if *dataDir != "" {
		scenarioFS = os.DirFS(*dataDir)
	}
	library := storage.NewScenarioLibrary(scenarioFS, log)
	sc, err := library.GetScenario(context.Background(), *scenarioID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scenario: %v\n", err)
		os.Exit(1)
	}

	e := engine.New(sc, log).WithRand(engine.NewRand(*seed))
	rep, err := Simulate(e, plan, *choice, *days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Simulation failed: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		for _, n := range rep.Notes {
			fmt.Printf("Day %3d  [%s] %s", n.Day, n.Severity, n.Message)
			if n.EffectSummary != "" {
				fmt.Printf(" (%s)", n.EffectSummary)
			}
			fmt.Println()
		}
		fmt.Println()
	}
	WriteSummary(os.Stdout, fmt.Sprintf("%s (seed %d)", sc.Title, *seed), rep)

	if *csvPath != "" {
		if err := writeFile(*csvPath, func(f *os.File) error { return WriteCSV(f, rep.Samples) }); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write CSV: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Daily figures written to %s\n", *csvPath)
	}
	if *chartPath != "" {
		if err := writeFile(*chartPath, func(f *os.File) error { return RenderChart(f, sc.Title, rep.Samples) }); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write chart: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Chart written to %s\n", *chartPath)
	}
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
