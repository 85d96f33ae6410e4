package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"custodycal/internal/config"
	"custodycal/internal/custody"
	appLog "custodycal/internal/log"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Load reads every input file named by cfg and builds the engine.
//
//   - The schedule map is required.
//   - A schedule CSV that does not exist is skipped; the engine then rejects
//     it if the map assigns weeks to that schedule.
//   - Interaction files are optional and ignored for schedules that were
//     not loaded.
func Load(cfg *config.Config) (*custody.Engine, error) {
	mapPath := cfg.Resolve(cfg.ScheduleMap)
	data, err := readFile(mapPath)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", mapPath, err)
	}
	assignment, err := ParseScheduleMap(data)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", mapPath, err)
	}
	appLog.Info("schedule map loaded",
		"path", mapPath,
		"start_year", assignment.StartYear(),
		"end_year", assignment.EndYear(),
		"schedules", assignment.Schedules(),
	)

	cycles := make([]*custody.Cycle, 0, len(cfg.Schedules))
	loaded := make(map[string]bool)
	for _, name := range sortedKeys(cfg.Schedules) {
		path := cfg.Resolve(cfg.Schedules[name])
		data, err := readFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Info("schedule file not found; skipping", "schedule", name, "path", path)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loader: read %s: %w", path, err)
		}
		windows, err := ParseWindows(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("loader: %s: %w", path, err)
		}
		cycle, err := custody.NewCycle(name, windows)
		if err != nil {
			return nil, fmt.Errorf("loader: %s: %w", path, err)
		}
		appLog.Debug("schedule loaded", "schedule", name, "windows", len(windows), "cycle_weeks", cycle.Length())
		cycles = append(cycles, cycle)
		loaded[name] = true
	}

	restrictions := make(map[string]*custody.Restriction)
	for _, name := range sortedKeys(cfg.Interactions) {
		path := cfg.Resolve(cfg.Interactions[name])
		if !loaded[name] {
			appLog.Warn("interaction file for a schedule without a cycle; ignoring", "schedule", name, "path", path)
			continue
		}
		data, err := readFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Info("interaction file not found; interaction time disabled", "schedule", name, "path", path)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loader: read %s: %w", path, err)
		}
		r, err := ParseInteraction(data)
		if err != nil {
			return nil, fmt.Errorf("loader: %s: %w", path, err)
		}
		if r != nil {
			restrictions[name] = r
		}
	}

	engine, err := custody.NewEngine(assignment, cycles, restrictions)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	return engine, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return bytes.TrimPrefix(data, utf8BOM), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
