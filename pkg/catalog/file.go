package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a mapping table from YAML. Two layouts are accepted:
//
//	squats: Squat            # ordered mapping, document order is kept
//	plank: Plank
//
//	- local: squats          # list of entries
//	  remote: Squat
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a YAML mapping table
func Parse(data []byte) (*Table, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		return parseMapping(root)
	case yaml.SequenceNode:
		var entries []Entry
		if err := root.Decode(&entries); err != nil {
			return nil, fmt.Errorf("failed to decode catalog entries: %w", err)
		}
		return New(entries...)
	default:
		return nil, fmt.Errorf("catalog must be a mapping or a list, got line %d", root.Line)
	}
}

// parseMapping walks key/value pairs directly so order and duplicates survive
func parseMapping(node *yaml.Node) (*Table, error) {
	entries := make([]Entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: catalog values must be plain strings", key.Line)
		}
		entries = append(entries, Entry{LocalID: key.Value, RemoteID: value.Value})
	}
	return New(entries...)
}
