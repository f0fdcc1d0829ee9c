package sources

import (
	"fmt"
	"slices"
	"strings"
)

// BuildSources converts the catalog, list configuration and custom locations
// into the ordered source list. Catalog entries come first in catalog order,
// then configured lists unknown to the catalog sorted by ID, then custom
// locations. Optional catalog entries, and all of them when includeCatalog is
// false, are used only when explicitly enabled in configs.
func BuildSources(catalog []ListDefinition, configs map[string]ListConfig, custom []string, includeCatalog bool) []Source {
	sources := make([]Source, 0, len(catalog)+len(custom))

	known := make(map[string]struct{}, len(catalog))
	for _, def := range catalog {
		known[def.ID] = struct{}{}
		cfg, ok := configs[def.ID]
		enabled := includeCatalog && !def.Optional
		if ok {
			enabled = cfg.Enabled
		}
		if !enabled {
			continue
		}
		location := cfg.URL
		if location == "" {
			location = def.URL
		}
		sources = append(sources, newSource(def.ID, location, cfg))
	}

	extra := make([]string, 0, len(configs))
	for id := range configs {
		if _, ok := known[id]; !ok {
			extra = append(extra, id)
		}
	}
	slices.Sort(extra)
	for _, id := range extra {
		cfg := configs[id]
		if !cfg.Enabled || strings.TrimSpace(cfg.URL) == "" {
			continue
		}
		sources = append(sources, newSource(id, cfg.URL, cfg))
	}

	for i, entry := range custom {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		sources = append(sources, Source{
			ID:       fmt.Sprintf("custom_%d", i+1),
			Location: trimmed,
			Enabled:  true,
		})
	}

	return Dedup(sources)
}

func newSource(id, location string, cfg ListConfig) Source {
	return Source{
		ID:          id,
		Location:    strings.TrimSpace(location),
		ContentType: cfg.ContentType,
		Enabled:     true,
		Auth: AuthConfig{
			Username: cfg.Username,
			Password: cfg.Password,
			Token:    cfg.Token,
			Header:   cfg.Header,
			Scheme:   cfg.Scheme,
		},
	}
}

// Dedup removes sources whose location was already seen, keeping the first.
func Dedup(sources []Source) []Source {
	seen := make(map[string]struct{}, len(sources))
	unique := make([]Source, 0, len(sources))
	for _, source := range sources {
		if _, ok := seen[source.Location]; ok {
			continue
		}
		seen[source.Location] = struct{}{}
		unique = append(unique, source)
	}
	return unique
}
