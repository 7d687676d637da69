package capability

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// LoadFile reads a catalog file mapping capability names to values. The
// format follows the extension: .yaml/.yml, .toml or .json.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capability file: %w", err)
	}

	out := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &out)
	case ".toml":
		err = toml.Unmarshal(data, &out)
	case ".json":
		err = sonic.Unmarshal(data, &out)
	default:
		return nil, fmt.Errorf("unsupported capability file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode capability file %s: %w", path, err)
	}
	return out, nil
}

// RegisterFile loads path and registers every top-level entry as a static
// capability. It returns the registered names, sorted.
func (r *Registry) RegisterFile(path string) ([]string, error) {
	entries, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for name, value := range entries {
		p := &staticProvider{
			def:   Definition{Name: name, Description: "loaded from " + filepath.Base(path), Source: SourceFile},
			value: value,
		}
		if err := r.Register(p); err != nil {
			return nil, fmt.Errorf("capability file %s: %w", path, err)
		}
		names = append(names, strings.ToLower(name))
	}
	sort.Strings(names)
	return names, nil
}
