// Package script provides a module whose behaviour is a Lua program.
//
// The program must define a global function process(), which is called once
// per frame. Before each call the globals inputs, knobs, frame, sampleRate and
// sampleTime are updated; after it, outputs[1..4] are read back as voltages.
// Only channel 0 of each port is used. A Lua error is raised as a panic,
// which the engine contains by bypassing the module.
package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/justyntemme/rackgo/pkg/framework/debug"
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/param"
	"github.com/justyntemme/rackgo/pkg/framework/plugin"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

// Slug identifies the plugin in patch files.
const Slug = "Script"

// Version is stamped on every module saved from this plugin.
const Version = "1.0.0"

// Ports is the number of inputs, outputs and knobs.
const Ports = 4

// ErrNoProcess is returned for programs that do not define process().
var ErrNoProcess = errors.New("script: no process function")

// DefaultSource passes every input straight through.
const DefaultSource = `function process()
  for i = 1, 4 do
    outputs[i] = inputs[i]
  end
end
`

var log = debug.Default().Named("script")

// Script runs a Lua program.
type Script struct {
	m      *module.Module
	source string

	L      *lua.LState
	fn     *lua.LFunction
	inputs *lua.LTable
	knobs  *lua.LTable
}

// Model builds Script modules.
var Model = &module.Model{
	Slug:        "Lua",
	Name:        "Lua script",
	Description: "Runs a Lua program once per frame",
	Tags:        []string{"script"},
	New:         newScript,
}

// Plugin returns the plugin with the script model registered.
func Plugin() *plugin.Plugin {
	return plugin.New(plugin.Info{
		Slug:     Slug,
		Name:     "Script",
		Version:  Version,
		Vendor:   "rackgo",
		Category: "Utility",
	}).MustAddModel(Model)
}

func newScript(m *module.Module) module.Processor {
	m.Config(Ports, Ports, Ports, 0)
	for i := 0; i < Ports; i++ {
		m.ConfigParam(param.New(i, fmt.Sprintf("Knob %d", i+1)))
		m.ConfigInput(i, fmt.Sprintf("Input %d", i+1))
		m.ConfigOutput(i, fmt.Sprintf("Output %d", i+1))
	}
	s := &Script{m: m}
	if err := s.SetSource(DefaultSource); err != nil {
		panic(err)
	}
	return s
}

// Source returns the running program.
func (s *Script) Source() string {
	return s.source
}

// SetSource compiles and runs src in a fresh interpreter, replacing the
// current one. On error the current program keeps running. Call it while
// the module is not processing.
func (s *Script) SetSource(src string) error {
	L := newState()
	if err := L.DoString(src); err != nil {
		L.Close()
		return fmt.Errorf("script: %w", err)
	}
	fn, ok := L.GetGlobal("process").(*lua.LFunction)
	if !ok {
		L.Close()
		return ErrNoProcess
	}

	s.close()
	s.L, s.fn, s.source = L, fn, src
	s.inputs = L.NewTable()
	s.knobs = L.NewTable()
	L.SetGlobal("inputs", s.inputs)
	L.SetGlobal("knobs", s.knobs)
	L.SetGlobal("outputs", L.NewTable())
	return nil
}

// newState opens the libraries a program may use. Nothing can touch the
// filesystem or load modules.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(luaPrint))
	return L
}

func luaPrint(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.Get(i + 1).String()
	}
	log.Info("%s", strings.Join(parts, "\t"))
	return 0
}

// Process implements module.Processor.
func (s *Script) Process(args process.Args) {
	L := s.L
	for i := 0; i < Ports; i++ {
		s.inputs.RawSetInt(i+1, lua.LNumber(s.m.Inputs[i].Voltage(0)))
		s.knobs.RawSetInt(i+1, lua.LNumber(s.m.Params[i].Value()))
	}
	L.SetGlobal("frame", lua.LNumber(args.Frame))
	L.SetGlobal("sampleRate", lua.LNumber(args.SampleRate))
	L.SetGlobal("sampleTime", lua.LNumber(args.SampleTime))

	if err := L.CallByParam(lua.P{Fn: s.fn, NRet: 0, Protect: true}); err != nil {
		panic(fmt.Errorf("script: %w", err))
	}

	outputs, _ := L.GetGlobal("outputs").(*lua.LTable)
	for i := 0; i < Ports; i++ {
		var v float32
		if outputs != nil {
			if n, ok := outputs.RawGetInt(i + 1).(lua.LNumber); ok {
				v = float32(n)
			}
		}
		s.m.Outputs[i].SetVoltage(v, 0)
	}
}

// OnRemove releases the interpreter.
func (s *Script) OnRemove() {
	s.close()
}

func (s *Script) close() {
	if s.L != nil {
		s.L.Close()
		s.L = nil
	}
}

type scriptData struct {
	Source string `json:"source"`
}

// DataToJSON implements module.DataSerializer.
func (s *Script) DataToJSON() (json.RawMessage, error) {
	return json.Marshal(scriptData{Source: s.source})
}

// DataFromJSON implements module.DataSerializer.
func (s *Script) DataFromJSON(data json.RawMessage) error {
	var d scriptData
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	return s.SetSource(d.Source)
}
