package unified

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ToYAML returns the schema as a YAML byte slice.
func (s *Schema) ToYAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// ToJSON returns the schema as indented JSON.
func (s *Schema) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// WriteYAML writes the schema to a YAML file at the given path.
func (s *Schema) WriteYAML(path string) error {
	data, err := s.ToYAML()
	if err != nil {
		return fmt.Errorf("marshaling schema: %w", err)
	}
	return writeFile(path, data)
}

// WriteJSON writes the schema to a JSON file at the given path.
func (s *Schema) WriteJSON(path string) error {
	data, err := s.ToJSON()
	if err != nil {
		return fmt.Errorf("marshaling schema: %w", err)
	}
	return writeFile(path, data)
}

// LoadYAML reads a previously written schema document.
func LoadYAML(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	s := &Schema{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing schema file: %w", err)
	}
	return s, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Summary returns a human-readable summary of the schema.
func (s *Schema) Summary() string {
	var totalCols, totalRels, totalIdx int
	for _, t := range s.Tables {
		totalCols += len(t.Columns)
		totalRels += len(t.Relations)
		totalIdx += len(t.Indexes)
	}
	return fmt.Sprintf("Found %d tables, %d columns, %d relations, %d indexes",
		len(s.Tables), totalCols, totalRels, totalIdx)
}
