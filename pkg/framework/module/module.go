// Package module provides the Module, the processing unit of a patch, and
// the interfaces plugin code implements to give a module behaviour.
package module

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/justyntemme/rackgo/pkg/framework/param"
	"github.com/justyntemme/rackgo/pkg/framework/port"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

// BypassRoute copies an input to an output while the module is bypassed.
type BypassRoute struct {
	InputID  int
	OutputID int
}

// Module owns its params, ports and lights for its whole lifetime.
//
// Once a module is added to an engine, only the engine mutates its structure;
// everyone else refers to it by ID.
type Module struct {
	ID      int64
	Model   *Model
	Params  []*param.Param
	Inputs  []*port.Input
	Outputs []*port.Output
	Lights  []*Light

	BypassRoutes []BypassRoute

	LeftExpander  Expander
	RightExpander Expander

	proc     Processor
	bypassed atomic.Bool
	cpuTime  atomic.Uint64
}

// New creates an unconfigured module with no behaviour. Plugin code normally
// goes through Model.Create instead.
func New() *Module {
	return &Module{
		ID:            -1,
		LeftExpander:  Expander{ModuleID: -1},
		RightExpander: Expander{ModuleID: -1},
	}
}

// Config allocates the param, port and light arrays with placeholder names.
func (m *Module) Config(numParams, numInputs, numOutputs, numLights int) {
	m.Params = make([]*param.Param, numParams)
	for i := range m.Params {
		m.Params[i] = param.New(i, fmt.Sprintf("#%d", i+1)).Build()
	}
	m.Inputs = make([]*port.Input, numInputs)
	for i := range m.Inputs {
		m.Inputs[i] = port.NewInput(i, fmt.Sprintf("#%d", i+1))
	}
	m.Outputs = make([]*port.Output, numOutputs)
	for i := range m.Outputs {
		m.Outputs[i] = port.NewOutput(i, fmt.Sprintf("#%d", i+1))
	}
	m.Lights = make([]*Light, numLights)
	for i := range m.Lights {
		m.Lights[i] = &Light{Name: fmt.Sprintf("#%d", i+1)}
	}
}

// ConfigParam builds a param into the slot named by its ID.
func (m *Module) ConfigParam(b *param.Builder) *param.Param {
	p := b.Build()
	if p.ID < 0 || p.ID >= len(m.Params) {
		panic(fmt.Sprintf("module: param id %d out of range (have %d)", p.ID, len(m.Params)))
	}
	m.Params[p.ID] = p
	return p
}

// ConfigInput names input id.
func (m *Module) ConfigInput(id int, name string) *port.Input {
	m.Inputs[id] = port.NewInput(id, name)
	return m.Inputs[id]
}

// ConfigOutput names output id.
func (m *Module) ConfigOutput(id int, name string) *port.Output {
	m.Outputs[id] = port.NewOutput(id, name)
	return m.Outputs[id]
}

// ConfigLight names light id.
func (m *Module) ConfigLight(id int, name string) *Light {
	m.Lights[id].Name = name
	return m.Lights[id]
}

// ConfigBypass routes inputID to outputID while bypassed.
func (m *Module) ConfigBypass(inputID, outputID int) {
	if inputID < 0 || inputID >= len(m.Inputs) || outputID < 0 || outputID >= len(m.Outputs) {
		panic(fmt.Sprintf("module: bypass route %d->%d out of range", inputID, outputID))
	}
	m.BypassRoutes = append(m.BypassRoutes, BypassRoute{InputID: inputID, OutputID: outputID})
}

// Processor returns the plugin behaviour, or nil.
func (m *Module) Processor() Processor {
	return m.proc
}

// SetProcessor installs the plugin behaviour.
func (m *Module) SetProcessor(p Processor) {
	m.proc = p
}

// Process runs the plugin hook for one frame.
func (m *Module) Process(args process.Args) {
	if m.proc != nil {
		m.proc.Process(args)
	}
}

// ProcessBypass copies every bypass route's input channels and count to its
// output. Plugin code is not run.
func (m *Module) ProcessBypass() {
	for _, r := range m.BypassRoutes {
		m.Outputs[r.OutputID].CopyFrom(m.Inputs[r.InputID])
	}
}

// Bypassed reports whether the engine is bypassing the module.
func (m *Module) Bypassed() bool {
	return m.bypassed.Load()
}

// SetBypassed is called by the engine; use Engine.BypassModule instead.
func (m *Module) SetBypassed(bypassed bool) {
	m.bypassed.Store(bypassed)
}

// CPUTime returns the smoothed processing time per frame, in seconds.
func (m *Module) CPUTime() float64 {
	return math.Float64frombits(m.cpuTime.Load())
}

// SetCPUTime is called by the engine's meter.
func (m *Module) SetCPUTime(seconds float64) {
	m.cpuTime.Store(math.Float64bits(seconds))
}

// ResetParams resets every param and then calls the Resetter hook.
func (m *Module) ResetParams() {
	for _, p := range m.Params {
		p.Reset()
	}
	if r, ok := m.proc.(Resetter); ok {
		r.OnReset()
	}
}

// RandomizeParams randomizes every param and then calls the Randomizer hook.
func (m *Module) RandomizeParams() {
	for _, p := range m.Params {
		p.Randomize()
	}
	if r, ok := m.proc.(Randomizer); ok {
		r.OnRandomize()
	}
}

// Expander returns the expander on side.
func (m *Module) Expander(side Side) *Expander {
	if side == Left {
		return &m.LeftExpander
	}
	return &m.RightExpander
}

// String identifies the module in logs.
func (m *Module) String() string {
	if m.Model == nil {
		return fmt.Sprintf("module %d", m.ID)
	}
	return fmt.Sprintf("module %d (%s/%s)", m.ID, m.Model.Plugin, m.Model.Slug)
}
