package plugin

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/justyntemme/rackgo/pkg/framework/module"
)

var (
	ErrPluginNotFound = errors.New("plugin not found")
	ErrModelNotFound  = errors.New("model not found")
)

// Registry resolves (plugin, model) slug pairs to models.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*Plugin
}

// NewRegistry creates a registry holding the given plugins.
func NewRegistry(plugins ...*Plugin) *Registry {
	r := &Registry{plugins: make(map[string]*Plugin)}
	for _, p := range plugins {
		r.plugins[p.Slug] = p
	}
	return r
}

// Add registers p, replacing any plugin with the same slug.
func (r *Registry) Add(p *Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[p.Slug] = p
}

// Plugin returns the plugin with the given slug.
func (r *Registry) Plugin(slug string) (*Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPluginNotFound, slug)
	}
	return p, nil
}

// Model resolves a model by plugin and model slug.
func (r *Registry) Model(pluginSlug, modelSlug string) (*module.Model, error) {
	p, err := r.Plugin(pluginSlug)
	if err != nil {
		return nil, err
	}
	mdl := p.Model(modelSlug)
	if mdl == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrModelNotFound, pluginSlug, modelSlug)
	}
	return mdl, nil
}

// Lookup resolves "plugin/model".
func (r *Registry) Lookup(ref string) (*module.Model, error) {
	pluginSlug, modelSlug, ok := strings.Cut(ref, "/")
	if !ok {
		return nil, fmt.Errorf("%w: %q is not plugin/model", ErrModelNotFound, ref)
	}
	return r.Model(pluginSlug, modelSlug)
}

// Plugins returns every plugin sorted by slug.
func (r *Registry) Plugins() []*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Plugin) int { return strings.Compare(a.Slug, b.Slug) })
	return out
}
