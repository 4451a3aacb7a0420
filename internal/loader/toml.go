package loader

import (
	"github.com/BurntSushi/toml"
)

// TOML loads .toml files. Date and time values are passed through as
// time.Time, which the validator rejects.
type TOML struct{}

// Extensions returns "toml".
func (TOML) Extensions() []string { return []string{"toml"} }

// Load parses the TOML file at path.
func (TOML) Load(path string) (map[string]any, error) {
	return load(path, "TOML", func(data []byte) (any, error) {
		config := map[string]any{}
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
		return config, nil
	})
}
