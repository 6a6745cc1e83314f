// Package fundamental provides the built-in signal modules: oscillators,
// filters, envelopes, utilities and polyphony helpers.
package fundamental

import (
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/plugin"
)

// Slug identifies the plugin in patch files.
const Slug = "Fundamental"

// Version is stamped on every module saved from this plugin.
const Version = "2.0.0"

// Models lists every model in the plugin, in browser order.
var Models = []*module.Model{
	VCOModel,
	VCFModel,
	VCAModel,
	LFOModel,
	ADSRModel,
	NoiseModel,
	DelayModel,
	MixerModel,
	SplitModel,
	MergeModel,
}

// Plugin returns the plugin with every model registered.
func Plugin() *plugin.Plugin {
	return plugin.New(plugin.Info{
		Slug:     Slug,
		Name:     "Fundamental",
		Version:  Version,
		Vendor:   "rackgo",
		Category: "Signal",
	}).MustAddModel(Models...)
}
