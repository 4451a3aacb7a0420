package conf

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultPath is the main settings file read by the command.
	DefaultPath = "/etc/configurator/config.toml"
	// DefaultDropInDir holds drop-in files applied after DefaultPath.
	DefaultDropInDir = "/etc/configurator/config.toml.d/"
)

// defaultConfig contains the embedded default settings. They are the base
// layer, applied before the main file and the drop-in files.
//
//go:embed defaults.toml
var defaultConfig string

// Config holds the resolved settings of the configurator command.
type Config struct {
	LogLevel slog.Level
	// Strategy names the merge strategy: "overwrite" or "strict".
	Strategy string
	// Format selects the output format: "flat" or "json".
	Format string
	// Extensions restricts which built-in loaders are registered.
	// Empty means all of them.
	Extensions []string
}

// Update applies non-nil values from a configDTO.
func (c *Config) Update(dto configDTO) {
	if dto.LogLevel != nil {
		switch strings.ToUpper(*dto.LogLevel) {
		case "DEBUG":
			c.LogLevel = slog.LevelDebug
		case "INFO":
			c.LogLevel = slog.LevelInfo
		case "WARN":
			c.LogLevel = slog.LevelWarn
		case "ERROR":
			c.LogLevel = slog.LevelError
		}
	}
	if dto.Strategy != nil {
		c.Strategy = *dto.Strategy
	}
	if dto.Format != nil {
		c.Format = *dto.Format
	}
	if dto.Extensions != nil {
		c.Extensions = make([]string, len(*dto.Extensions))
		copy(c.Extensions, *dto.Extensions)
	}
}

// ConfigSource orchestrates loading settings from multiple sources.
// See the Read method.
type ConfigSource struct {
	Path      string
	DropInDir string
}

// Read loads and returns the complete Config by merging all layers:
// 1. Embedded defaults
// 2. Main settings file
// 3. Drop-in files
func (cs *ConfigSource) Read() (Config, error) {
	resolved := Config{}

	dto, err := parseConfigDTO(defaultConfig)
	if err != nil {
		return resolved, fmt.Errorf("failed to parse embedded defaults: %w", err)
	}
	resolved.Update(dto)

	data, err := os.ReadFile(cs.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			// A file that exists but cannot be read is a real problem.
			return resolved, fmt.Errorf("failed to load %s: %w", cs.Path, err)
		}
		slog.Debug("settings file not found, using defaults", "path", cs.Path)
	} else {
		mainDTO, err := parseConfigDTO(string(data))
		if err != nil {
			return resolved, fmt.Errorf("failed to parse %s: %w", cs.Path, err)
		}
		resolved.Update(mainDTO)
	}

	dropInDTOs, err := cs.parseDropInFiles()
	if err != nil {
		slog.Error("failed to load drop-in files", "error", err, "dir", cs.DropInDir)
		return resolved, err
	}
	for _, dropInDTO := range dropInDTOs {
		resolved.Update(dropInDTO)
	}

	return resolved, nil
}

type configDTO struct {
	LogLevel   *string   `toml:"log-level"`
	Strategy   *string   `toml:"strategy"`
	Format     *string   `toml:"format"`
	Extensions *[]string `toml:"extensions"`
}

// parseConfigDTO parses a TOML string into a configDTO.
func parseConfigDTO(data string) (configDTO, error) {
	var dto configDTO

	if err := toml.Unmarshal([]byte(data), &dto); err != nil {
		return dto, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return dto, nil
}

// findDropInFiles returns sorted paths to drop-in files.
// Returns nil if the drop-in directory doesn't exist (not an error).
func (cs *ConfigSource) findDropInFiles() ([]string, error) {
	if cs.DropInDir == "" {
		return nil, nil
	}
	if _, err := os.Stat(cs.DropInDir); os.IsNotExist(err) {
		return nil, nil
	}

	entries, err := os.ReadDir(cs.DropInDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read drop-in directory %s: %w", cs.DropInDir, err)
	}

	var filenames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".toml") {
			filenames = append(filenames, filepath.Join(cs.DropInDir, entry.Name()))
		}
	}

	sort.Strings(filenames)

	return filenames, nil
}

// parseDropInFiles parses every drop-in file in order.
func (cs *ConfigSource) parseDropInFiles() ([]configDTO, error) {
	paths, err := cs.findDropInFiles()
	if err != nil {
		return nil, err
	}

	var dtos []configDTO
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		dto, err := parseConfigDTO(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		dtos = append(dtos, dto)
	}

	return dtos, nil
}
