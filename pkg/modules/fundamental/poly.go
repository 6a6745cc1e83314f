package fundamental

import (
	"fmt"

	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/param"
	"github.com/justyntemme/rackgo/pkg/framework/port"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

// Split fans a polyphonic cable out to one mono output per channel. Outputs
// past the input's channel count carry no channels.
type Split struct {
	m *module.Module
}

// SplitModel builds Split modules.
var SplitModel = &module.Model{
	Slug:        "Split",
	Name:        "Split",
	Description: "Splits a polyphonic cable into mono cables",
	Tags:        []string{"polyphonic", "utility"},
	New: func(m *module.Module) module.Processor {
		m.Config(0, 1, port.MaxChannels, 0)
		m.ConfigInput(0, "Polyphonic")
		for c := 0; c < port.MaxChannels; c++ {
			m.ConfigOutput(c, fmt.Sprintf("Channel %d", c+1))
		}
		return &Split{m: m}
	},
}

// Process implements module.Processor.
func (s *Split) Process(process.Args) {
	in := s.m.Inputs[0]
	n := in.Channels()
	for c, out := range s.m.Outputs {
		if c < n {
			out.SetChannels(1)
			out.SetVoltage(in.Voltage(c), 0)
		} else {
			out.SetChannels(0)
		}
	}
}

// MergeChannels is the param that fixes the output channel count.
const MergeChannels = 0

// Merge packs up to 16 mono cables into one polyphonic cable. With the
// channel param at 0 the count is one past the last patched input.
type Merge struct {
	m *module.Module
}

// MergeModel builds Merge modules.
var MergeModel = &module.Model{
	Slug:        "Merge",
	Name:        "Merge",
	Description: "Merges mono cables into a polyphonic cable",
	Tags:        []string{"polyphonic", "utility"},
	New: func(m *module.Module) module.Processor {
		m.Config(1, port.MaxChannels, 1, 0)
		m.ConfigParam(param.New(MergeChannels, "Channels").Range(0, port.MaxChannels).Snap().NoRandomize().
			Formatter(func(v float64) string {
				if v == 0 {
					return "Auto"
				}
				return fmt.Sprintf("%.0f", v)
			}, nil))
		for c := 0; c < port.MaxChannels; c++ {
			m.ConfigInput(c, fmt.Sprintf("Channel %d", c+1))
		}
		m.ConfigOutput(0, "Polyphonic")
		return &Merge{m: m}
	},
}

// Process implements module.Processor.
func (g *Merge) Process(process.Args) {
	n := int(g.m.Params[MergeChannels].Value())
	if n == 0 {
		for c, in := range g.m.Inputs {
			if in.Active() {
				n = c + 1
			}
		}
	}
	out := g.m.Outputs[0]
	for c := 0; c < n; c++ {
		out.SetVoltage(g.m.Inputs[c].Voltage(0), c)
	}
	out.SetChannels(n)
}
