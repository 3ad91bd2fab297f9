package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigName is the config file stem searched for in the working
// directory when no explicit path is given.
const DefaultConfigName = "press"

const envPrefix = "PRESS"

// Load reads configuration from the named file, layered over DefaultConfig
// and overridable through PRESS_* environment variables (nested keys joined
// with underscores, e.g. PRESS_BUILD_OUTPUT_DIR). An empty path searches the
// working directory for press.yaml; a missing file is not an error in that
// case, the defaults simply apply.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		v.SetConfigFile(trimmed)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("press config: read %s: %w", v.ConfigFileUsed(), err)
		}
		if strings.TrimSpace(path) != "" {
			return cfg, fmt.Errorf("press config: file %s not found: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("press config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
