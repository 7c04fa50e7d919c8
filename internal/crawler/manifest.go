package crawler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadManifest reads a route manifest: a JSON array of path patterns. Files
// ending in .yaml or .yml are decoded as a YAML sequence instead.
func LoadManifest(path string) ([]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: manifest path is empty", ErrManifest)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrManifest, path, err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrManifest, path, err)
	}

	patterns, err := parseManifest(raw, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrManifest, path, err)
	}
	return patterns, nil
}

type unmarshalFn func([]byte, any) error

func parseManifest(data []byte, ext string) ([]string, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	fn := unmarshalFn(json.Unmarshal)
	name := "json"
	if ext == ".yaml" || ext == ".yml" {
		fn = yaml.Unmarshal
		name = "yaml"
	}

	var patterns []string
	if err := fn(data, &patterns); err != nil {
		return nil, fmt.Errorf("decode %s manifest: %w", name, err)
	}
	if patterns == nil {
		return nil, errors.New("manifest must be an array of patterns")
	}
	for i, p := range patterns {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("manifest[%d] is empty", i)
		}
	}
	return patterns, nil
}
