package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAML loads .yaml and .yml files. A document without content is an empty
// mapping; an explicit null root is rejected like any other non-mapping root.
// Non-string mapping keys, such as port numbers, are converted to strings.
type YAML struct{}

// Extensions returns "yaml" and "yml".
func (YAML) Extensions() []string { return []string{"yaml", "yml"} }

// Load parses the YAML file at path.
func (YAML) Load(path string) (map[string]any, error) {
	return load(path, "YAML", parseYAML)
}

func parseYAML(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if isEmptyDocument(&doc) {
		return map[string]any{}, nil
	}

	var raw any
	if err := doc.Decode(&raw); err != nil {
		return nil, err
	}
	return normalizeYAML(raw), nil
}

// isEmptyDocument reports whether doc has no content at all. A null written
// out as "~" or "null" is content.
func isEmptyDocument(doc *yaml.Node) bool {
	switch {
	case doc.Kind == 0:
		return true
	case doc.Kind != yaml.DocumentNode:
		return false
	case len(doc.Content) == 0:
		return true
	}
	root := doc.Content[0]
	return root.Kind == yaml.ScalarNode && root.Tag == "!!null" && root.Value == ""
}

func normalizeYAML(raw any) any {
	switch v := raw.(type) {
	case map[string]any:
		for key, item := range v {
			v[key] = normalizeYAML(item)
		}
		return v
	case map[any]any:
		m := make(map[string]any, len(v))
		for key, item := range v {
			m[fmt.Sprint(key)] = normalizeYAML(item)
		}
		return m
	case []any:
		for i, item := range v {
			v[i] = normalizeYAML(item)
		}
		return v
	}
	return raw
}
