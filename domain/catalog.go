package domain

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

var (
	catalogOnce sync.Once
	catalog     []Activity
	catalogErr  error
)

// DefaultCatalog returns a fresh copy of the built-in activities, in catalog order.
// It panics if the embedded document is malformed, which can only happen at build time.
func DefaultCatalog() []Activity {
	catalogOnce.Do(func() {
		catalog, catalogErr = parseCatalog(catalogYAML)
	})
	if catalogErr != nil {
		panic(catalogErr)
	}
	out := make([]Activity, len(catalog))
	for i, a := range catalog {
		out[i] = a.Clone()
	}
	return out
}

func parseCatalog(data []byte) ([]Activity, error) {
	var items []Activity
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.ID == "" || item.Name == "" || item.Emoji == "" {
			return nil, fmt.Errorf("parse catalog: entry %d is incomplete", i)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate id %q", item.ID)
		}
		seen[item.ID] = struct{}{}
		if items[i].Moods == nil {
			items[i].Moods = []string{}
		}
		items[i].IsCustom = false
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("parse catalog: no entries")
	}
	return items, nil
}
