package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the settings file looked up in the source directory.
const DefaultFile = ".pages-deploy.toml"

// LoadFile decodes a TOML settings file into setting name/value pairs. A
// missing file yields no values and no error.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	values := make(map[string]any)
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	return values, nil
}
