package querydef

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rebeliceyang/lazychart/internal/models"
	"gopkg.in/yaml.v3"
)

// Load reads a chart query definition from a YAML or JSON file
func Load(path string) (models.FormData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query definition: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes a query definition. ext selects JSON for ".json", YAML
// otherwise.
func Parse(data []byte, ext string) (models.FormData, error) {
	var raw map[string]any

	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse query definition: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse query definition: %w", err)
		}
	}

	if raw == nil {
		raw = map[string]any{}
	}
	formData, err := normalize(raw)
	if err != nil {
		return nil, err
	}
	if formData.Datasource() == "" {
		return nil, fmt.Errorf("query definition has no datasource")
	}
	return formData, nil
}

// normalize round-trips through JSON so YAML and JSON inputs carry the same
// Go types (float64 numbers, []any, map[string]any) as backend responses
func normalize(raw map[string]any) (models.FormData, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("query definition is not JSON-compatible: %w", err)
	}
	var out models.FormData
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("query definition is not JSON-compatible: %w", err)
	}
	return out, nil
}

// Save writes formData as YAML
func Save(path string, formData models.FormData) error {
	data, err := yaml.Marshal(map[string]any(formData))
	if err != nil {
		return fmt.Errorf("failed to marshal query definition: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write query definition: %w", err)
	}
	return nil
}
