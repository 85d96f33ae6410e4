package custody

import (
	"errors"
	"fmt"
)

// Error kinds returned by the engine. Callers match them with errors.Is.
var (
	// ErrConfiguration reports a schedule that cannot be resolved: unknown
	// weekday, time outside 00:00-24:00, a cycle that does not tile, or a
	// schedule name with no cycle.
	ErrConfiguration = errors.New("configuration error")

	// ErrRange reports an invalid year range or week number.
	ErrRange = errors.New("range error")

	// ErrOutOfOrder is returned when a WeekClassifier is asked about a week
	// earlier than one it has already classified.
	ErrOutOfOrder = errors.New("week classified out of order")
)

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func rangeErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRange, fmt.Sprintf(format, args...))
}
