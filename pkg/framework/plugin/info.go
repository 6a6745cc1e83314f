// Package plugin groups module models under a plugin and resolves them by
// slug when a patch is loaded.
package plugin

import (
	"fmt"

	"github.com/justyntemme/rackgo/pkg/framework/module"
)

// Info contains plugin metadata
type Info struct {
	Slug     string // Unique plugin identifier, e.g. "Fundamental"
	Name     string // Display name
	Version  string // Semantic version, e.g. "2.0.0"
	Vendor   string // Company/developer name
	Category string
}

// Plugin is a set of models sharing a slug and version.
type Plugin struct {
	Info
	models []*module.Model
	bySlug map[string]*module.Model
}

// New creates an empty plugin.
func New(info Info) *Plugin {
	return &Plugin{Info: info, bySlug: make(map[string]*module.Model)}
}

// AddModel registers mdl and stamps it with the plugin slug and version.
func (p *Plugin) AddModel(mdl *module.Model) error {
	if mdl.Slug == "" {
		return fmt.Errorf("plugin %s: model has no slug", p.Slug)
	}
	if _, ok := p.bySlug[mdl.Slug]; ok {
		return fmt.Errorf("plugin %s: duplicate model %q", p.Slug, mdl.Slug)
	}
	mdl.Plugin = p.Slug
	mdl.Version = p.Version
	p.models = append(p.models, mdl)
	p.bySlug[mdl.Slug] = mdl
	return nil
}

// MustAddModel is AddModel for static plugin tables.
func (p *Plugin) MustAddModel(models ...*module.Model) *Plugin {
	for _, mdl := range models {
		if err := p.AddModel(mdl); err != nil {
			panic(err)
		}
	}
	return p
}

// Model returns the model with the given slug, or nil.
func (p *Plugin) Model(slug string) *module.Model {
	return p.bySlug[slug]
}

// Models returns the models in registration order.
func (p *Plugin) Models() []*module.Model {
	return p.models
}
