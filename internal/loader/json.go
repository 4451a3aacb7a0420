package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/tidwall/jsonc"
)

// JSON loads .json files. Numbers keep their literal form so that integers
// stay integers.
type JSON struct{}

// Extensions returns "json".
func (JSON) Extensions() []string { return []string{"json"} }

// Load parses the JSON file at path.
func (JSON) Load(path string) (map[string]any, error) {
	return load(path, "JSON", parseJSON)
}

// JSONC loads .jsonc files: JSON with // and /* */ comments and trailing
// commas.
type JSONC struct{}

// Extensions returns "jsonc".
func (JSONC) Extensions() []string { return []string{"jsonc"} }

// Load strips comments and trailing commas from the file at path and
// parses the rest as JSON.
func (JSONC) Load(path string) (map[string]any, error) {
	return load(path, "JSONC", func(data []byte) (any, error) {
		return parseJSON(jsonc.ToJSON(data))
	})
}

func parseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return raw, nil
}
