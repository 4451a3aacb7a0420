// Package loader turns configuration files into nested mappings.
//
// A Loader declares the file extensions it handles (without the leading
// dot) and parses one file at a time. Every built-in loader distinguishes a
// missing file (ErrSourceNotFound), a file that cannot be read
// (ErrSourceUnreadable), content that does not parse (ErrMalformedSource)
// and content whose root is not a mapping (ErrInvalidSourceShape).
package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

var (
	ErrSourceNotFound     = errors.New("configuration file not found")
	ErrSourceUnreadable   = errors.New("configuration file is not readable")
	ErrMalformedSource    = errors.New("malformed configuration file")
	ErrInvalidSourceShape = errors.New("configuration file must contain a mapping at its root")
)

// ParseError reports content that the format's parser rejected.
type ParseError struct {
	Path   string
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s file %s: %v", e.Format, e.Path, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedSource, e.Err}
}

// Loader reads a configuration file into a nested mapping.
type Loader interface {
	Load(path string) (map[string]any, error)
	// Extensions lists the file extensions handled, without the dot.
	Extensions() []string
}

// Func adapts a function to the Loader interface.
type Func struct {
	Exts []string
	Fn   func(path string) (map[string]any, error)
}

// Load calls f.Fn.
func (f Func) Load(path string) (map[string]any, error) {
	return f.Fn(path)
}

// Extensions returns f.Exts.
func (f Func) Extensions() []string {
	return f.Exts
}

// Defaults returns one instance of every built-in loader.
func Defaults() []Loader {
	return []Loader{JSON{}, JSONC{}, YAML{}, TOML{}, CBOR{}}
}

// ReadSource reads the whole file at path. The file is closed before
// returning, whatever the outcome.
func ReadSource(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceUnreadable, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	return data, nil
}

// load reads path, parses it with parse and checks that the result is a
// mapping.
func load(path, format string, parse func([]byte) (any, error)) (map[string]any, error) {
	data, err := ReadSource(path)
	if err != nil {
		return nil, err
	}

	raw, err := parse(data)
	if err != nil {
		return nil, &ParseError{Path: path, Format: format, Err: err}
	}

	config, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s has a %T root", ErrInvalidSourceShape, path, raw)
	}
	return config, nil
}
