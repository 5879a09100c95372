package publish

import (
	"sort"

	"conveyor/internal/config"
)

// Registry holds the configured platform adapters keyed by platform name.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds the adapter set from configuration, one adapter per
// enabled platform.
func NewRegistry(cfg config.Publishers) *Registry {
	registry := &Registry{adapters: make(map[string]Adapter)}
	if cfg.WordPress.Enabled {
		registry.Register(NewWordPress(cfg.WordPress, cfg.TimeoutSeconds))
	}
	if cfg.YouTube.Enabled {
		registry.Register(NewYouTube(cfg.YouTube, cfg.TimeoutSeconds))
	}
	if cfg.NaverBlog.Enabled {
		registry.Register(NewNaverBlog(cfg.NaverBlog, cfg.TimeoutSeconds))
	}
	return registry
}

// Register adds or replaces an adapter. Tests use this to install fakes.
func (r *Registry) Register(adapter Adapter) {
	r.adapters[adapter.Name()] = adapter
}

// Adapter returns the adapter for a platform, if one is configured.
func (r *Registry) Adapter(platform string) (Adapter, bool) {
	adapter, ok := r.adapters[platform]
	return adapter, ok
}

// Names returns the configured platform names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
