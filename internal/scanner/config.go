package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the optional per-project configuration, looked up at the
// project root.
const ConfigFile = ".impscan.yml"

// Config holds per-project settings read from ConfigFile. Flags override it.
type Config struct {
	// Exclude adds directory names to the fixed exclusion set.
	Exclude []string `yaml:"exclude"`
	// IncludeExternal controls whether external packages appear in outputs.
	// Nil means unset.
	IncludeExternal *bool `yaml:"include_external"`
}

// LoadConfig reads the project config from root. A missing file yields the
// zero config; a malformed one is an error so typos are not silently ignored.
func LoadConfig(root string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(filepath.Join(root, ConfigFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading %s: %w", ConfigFile, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", ConfigFile, err)
	}
	return cfg, nil
}
