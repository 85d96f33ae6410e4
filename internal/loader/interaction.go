package loader

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"custodycal/internal/custody"
	"custodycal/internal/model"
)

type clockRangeFile struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// ParseInteraction decodes an interaction file such as
//
//	{"monday": {"start": "17:00", "end": "20:00"}}
//
// An empty document yields a nil restriction.
func ParseInteraction(data []byte) (*custody.Restriction, error) {
	var f map[string]clockRangeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: interaction file: %v", custody.ErrConfiguration, err)
	}
	if len(f) == 0 {
		return nil, nil
	}

	ranges := make(map[time.Weekday]model.ClockRange, len(f))
	for day, cr := range f {
		wd, err := custody.ParseWeekday(day)
		if err != nil {
			return nil, err
		}
		if _, dup := ranges[wd]; dup {
			return nil, fmt.Errorf("%w: interaction range for %s given twice", custody.ErrConfiguration, wd)
		}
		start, err := custody.ParseClock(cr.Start)
		if err != nil {
			return nil, fmt.Errorf("%s start: %w", wd, err)
		}
		end, err := custody.ParseClock(cr.End)
		if err != nil {
			return nil, fmt.Errorf("%s end: %w", wd, err)
		}
		ranges[wd] = model.ClockRange{Start: start, End: end}
	}
	return custody.NewRestriction(ranges)
}
