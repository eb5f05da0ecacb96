package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/outbreak-engine/internal/storage"
	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <scenario.json | dir>...\n", os.Args[0])
		os.Exit(1)
	}

	files, err := collectFiles(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	failed := 0
	for _, f := range files {
		fmt.Printf("Validating %s...\n", f)
		if err := validateFile(f); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		}
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d scenario files failed validation\n", failed, len(files))
		os.Exit(1)
	}
	fmt.Printf("%d scenario file(s) valid!\n", len(files))
}

// collectFiles expands directory arguments to the JSON files they contain.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.json"))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, errors.New("no scenario files found")
	}
	return files, nil
}

func validateFile(filename string) error {
	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("scenario file must have .json extension: %s", baseName)
	}

	id := strings.TrimSuffix(baseName, ".json")
	if !scenario.IsValidID(id) {
		return fmt.Errorf("scenario filename '%s' must be lowercase kebab-case (e.g., county-fair.json, not county_fair.json or CountyFair.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	s, err := storage.DecodeScenario(data)
	if err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	var errs []error
	if s.ID != id {
		errs = append(errs, fmt.Errorf("scenario id %q does not match filename %s", s.ID, baseName))
	}
	if err := s.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation errors in %s:\n%w", filename, errors.Join(errs...))
	}
	return nil
}
