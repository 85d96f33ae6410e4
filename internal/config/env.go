package config

import (
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "CUSTODYCAL_"

// ApplyEnv overlays environment variables onto c. Keys follow the YAML
// names, with "__" separating nested keys:
//
//	CUSTODYCAL_LISTEN=0.0.0.0:8080
//	CUSTODYCAL_LOG_LEVEL=debug
//	CUSTODYCAL_OUTPUT__ICS=/srv/custody.ics
//	CUSTODYCAL_SCHEDULES__HOLIDAY=holiday.csv
func (c *Config) ApplyEnv() error {
	k := koanf.New(".")
	provider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(provider, nil); err != nil {
		return err
	}
	if len(k.Keys()) == 0 {
		return nil
	}
	if err := k.UnmarshalWithConf("", c, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return err
	}
	c.Normalize()
	return nil
}
