package loader

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"custodycal/internal/custody"
)

// scheduleMapFile mirrors schedule_map.json:
//
//	{"start_year": 2025, "end_year": 2026,
//	 "map": {"school_weeks": [1, 2, ...], "summer_weeks": [24, 25, ...]}}
//
// YAML with the same keys is accepted too.
type scheduleMapFile struct {
	StartYear *int             `yaml:"start_year"`
	EndYear   *int             `yaml:"end_year"`
	Map       map[string][]int `yaml:"map"`
}

// ParseScheduleMap decodes a schedule map. A "<name>_weeks" list assigns
// its weeks to schedule <name>; a week may appear in at most one list.
func ParseScheduleMap(data []byte) (*custody.Assignment, error) {
	var f scheduleMapFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: schedule map: %v", custody.ErrConfiguration, err)
	}
	if f.StartYear == nil || f.EndYear == nil {
		return nil, fmt.Errorf("%w: schedule map must contain start_year and end_year", custody.ErrConfiguration)
	}

	// Sorted keys keep the duplicate-week message deterministic.
	keys := make([]string, 0, len(f.Map))
	for k := range f.Map {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	weeks := make(map[int]string)
	for _, key := range keys {
		name := strings.TrimSuffix(strings.TrimSpace(key), "_weeks")
		for _, w := range f.Map[key] {
			if prev, ok := weeks[w]; ok && prev != name {
				return nil, fmt.Errorf("%w: week %d is assigned to both %q and %q",
					custody.ErrConfiguration, w, prev, name)
			}
			weeks[w] = name
		}
	}

	return custody.NewAssignment(*f.StartYear, *f.EndYear, weeks)
}
