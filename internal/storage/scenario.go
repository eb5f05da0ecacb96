package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
	"github.com/jwebster45206/outbreak-engine/pkg/storage"
)

const scenariosDir = "scenarios"

// ScenarioLibrary reads scenario descriptors from the scenarios/ directory of a filesystem.
type ScenarioLibrary struct {
	fsys   fs.FS
	logger *slog.Logger
}

// NewScenarioLibrary creates a library over fsys, typically the embedded data package
// or os.DirFS of a data directory.
func NewScenarioLibrary(fsys fs.FS, logger *slog.Logger) *ScenarioLibrary {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ScenarioLibrary{fsys: fsys, logger: logger}
}

// ListScenarios returns the catalogue sorted by id. Unreadable files are logged and skipped.
func (l *ScenarioLibrary) ListScenarios(ctx context.Context) ([]scenario.Summary, error) {
	entries, err := fs.ReadDir(l.fsys, scenariosDir)
	if err != nil {
		l.logger.Error("Failed to read scenarios directory", "error", err)
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}

	out := make([]scenario.Summary, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		s, err := l.load(path.Join(scenariosDir, e.Name()))
		if err != nil {
			l.logger.Warn("Failed to load scenario file", "file", e.Name(), "error", err)
			continue
		}
		out = append(out, s.Summary())
	}

	slices.SortFunc(out, func(a, b scenario.Summary) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// GetScenario loads scenarios/<id>.json with its action effects compiled.
func (l *ScenarioLibrary) GetScenario(ctx context.Context, id string) (*scenario.Scenario, error) {
	if !scenario.IsValidID(id) {
		return nil, storage.ErrScenarioNotFound
	}
	p := path.Join(scenariosDir, id+".json")
	l.logger.Debug("Loading scenario", "id", id, "path", p)

	s, err := l.load(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrScenarioNotFound
		}
		return nil, err
	}
	if s.ID != id {
		return nil, fmt.Errorf("scenario file %s declares id %q", p, s.ID)
	}
	return s, nil
}

func (l *ScenarioLibrary) load(p string) (*scenario.Scenario, error) {
	data, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		return nil, err
	}
	s, err := DecodeScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return s, nil
}

// DecodeScenario strictly decodes a scenario descriptor and compiles its effects.
// Unknown fields are rejected.
func DecodeScenario(data []byte) (*scenario.Scenario, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var s scenario.Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario: %w", err)
	}
	s.CompileEffects()
	return &s, nil
}
