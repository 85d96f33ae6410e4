package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// NOTE: Load creates a default config on first run; Save writes
// atomically with 0600 permissions.

// OutputConfig lists the files written by a one-shot run. Empty paths are
// skipped.
type OutputConfig struct {
	// ICS is the iCalendar export of merged custody events.
	ICS string `yaml:"ics" json:"ics"`
	// AuditCSV is the percentage calculation audit report.
	AuditCSV string `yaml:"audit_csv" json:"audit_csv"`
	// JSON is the per-day visualization document.
	JSON string `yaml:"json" json:"json"`
	// CalendarName is shown by calendar applications (X-WR-CALNAME).
	CalendarName string `yaml:"calendar_name" json:"calendar_name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone attached to exported events
	// (e.g. "America/Chicago"). Empty means the system local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron spec (e.g. "*/15 * * * *") controlling how often
	// the server reloads the input files and recomputes.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// ScheduleMap is the year range + week-to-schedule file (JSON or YAML).
	ScheduleMap string `yaml:"schedule_map" json:"schedule_map"`

	// Schedules maps a schedule name to its custody window CSV.
	Schedules map[string]string `yaml:"schedules" json:"schedules"`

	// Interactions maps a schedule name to its optional interaction file.
	Interactions map[string]string `yaml:"interactions" json:"interactions"`

	Output OutputConfig `yaml:"output" json:"output"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// dir is the directory of the loaded file; relative paths resolve
	// against it.
	dir string
}

// DefaultConfig returns an in-memory default configuration matching the
// classic school/summer file layout.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "",
		RefreshCron: "*/15 * * * *",
		LogLevel:    "info",
		ScheduleMap: "schedule_map.json",
		Schedules: map[string]string{
			"school": "school_schedule.csv",
			"summer": "summer_schedule.csv",
		},
		Interactions: map[string]string{
			"school": "school_interaction.json",
			"summer": "summer_interaction.json",
		},
		Output: OutputConfig{
			ICS:          "custody_calendar.ics",
			AuditCSV:     "custody_calculation_audit.csv",
			JSON:         "custody_calendar.json",
			CalendarName: "Custody Calendar",
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	} else if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		// Unparseable spec; keep the server refreshing on the default.
		c.RefreshCron = def.RefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.ScheduleMap == "" {
		c.ScheduleMap = def.ScheduleMap
	}
	if c.Schedules == nil {
		c.Schedules = def.Schedules
	}
	if c.Interactions == nil {
		c.Interactions = map[string]string{}
	}
	if c.Output.CalendarName == "" {
		c.Output.CalendarName = def.Output.CalendarName
	}
}

// Resolve returns p unchanged when absolute or empty, otherwise p relative
// to the directory the config was loaded from.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			cfg.dir = filepath.Dir(path)
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.dir = filepath.Dir(path)

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".custodycal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
