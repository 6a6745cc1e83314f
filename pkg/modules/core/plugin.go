// Package core provides the modules that connect a patch to the outside
// world: the audio driver bridge and MIDI input.
package core

import (
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/plugin"
)

// Slug identifies the plugin in patch files.
const Slug = "Core"

// Version is stamped on every module saved from this plugin.
const Version = "2.0.0"

// Models lists every model in the plugin.
var Models = []*module.Model{
	AudioModel,
	MIDICVModel,
	MIDIMapModel,
}

// Plugin returns the plugin with every model registered.
func Plugin() *plugin.Plugin {
	return plugin.New(plugin.Info{
		Slug:     Slug,
		Name:     "Core",
		Version:  Version,
		Vendor:   "rackgo",
		Category: "Host",
	}).MustAddModel(Models...)
}
