package engine

import (
	rdebug "runtime/debug"
	"sync/atomic"
	"time"

	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/param"
	"github.com/justyntemme/rackgo/pkg/framework/port"
	"github.com/justyntemme/rackgo/pkg/framework/process"
)

var sides = [...]module.Side{module.Left, module.Right}

// slot is the engine's arena entry for one module.
type slot struct {
	m       *module.Module
	faulted atomic.Bool

	// Touched only by the worker that owns the module during a block, and
	// by the goroutine holding the exclusive lock between blocks.
	smoothing []smoothState
	meterTime time.Duration
}

type smoothState struct {
	p *param.Param
	s param.Smoother
}

// inputPlan is one connected input and the outputs feeding it.
type inputPlan struct {
	in      *port.Input
	sources []*port.Output
}

// plan is one worker's share of the graph.
type plan struct {
	slots  []*slot
	inputs []inputPlan
}

func (e *Engine) modelName(m *module.Module) string {
	if m.Model == nil {
		return "unknown"
	}
	return m.Model.Plugin + "/" + m.Model.Slug
}

// partition splits the modules into n contiguous runs in insertion order.
// Each input is summed by the worker that owns its module, so a module's
// inputs, expander flips and smoothing all stay on one goroutine.
func (e *Engine) partition(n int) []plan {
	plans := make([]plan, n)
	total := len(e.slots)
	owner := make(map[*module.Module]int, total)
	for i, s := range e.slots {
		w := i * n / max(total, 1)
		plans[w].slots = append(plans[w].slots, s)
		owner[s.m] = w
	}

	for _, s := range e.slots {
		w := owner[s.m]
		for _, in := range s.m.Inputs {
			cables := e.inputCables[portKey{s.m.ID, in.ID}]
			if len(cables) == 0 {
				continue
			}
			ip := inputPlan{in: in, sources: make([]*port.Output, 0, len(cables))}
			for _, c := range cables {
				src := e.byID[c.OutputModuleID]
				ip.sources = append(ip.sources, src.m.Outputs[c.OutputID])
			}
			plans[w].inputs = append(plans[w].inputs, ip)
		}
	}
	return plans
}

// resolveExpanders re-resolves every expander link by id and notifies
// modules whose neighbour changed.
func (e *Engine) resolveExpanders() {
	for _, s := range e.slots {
		for _, side := range sides {
			x := s.m.Expander(side)
			var next *module.Module
			if x.ModuleID >= 0 {
				if n := e.byID[x.ModuleID]; n != nil {
					next = n.m
				}
			}
			if next == x.Module {
				continue
			}
			x.Module = next
			if ec, ok := s.m.Processor().(module.ExpanderChanger); ok {
				e.callHook(s, "OnExpanderChange", func() { ec.OnExpanderChange(side) })
			}
		}
	}
}

// drainSmoothing moves queued smooth writes into the owning slots.
func (e *Engine) drainSmoothing() {
	e.pendMu.Lock()
	pending := e.pending
	e.pending = e.spare[:0]
	e.spare = pending
	e.pendMu.Unlock()

	for _, req := range pending {
		s := e.byID[req.moduleID]
		if s == nil || req.paramID < 0 || req.paramID >= len(s.m.Params) {
			continue
		}
		p := s.m.Params[req.paramID]
		if req.settled {
			// a smoothing frame in the last block may have overwritten it
			s.stopSmoothing(p)
			p.SetValue(req.value)
			continue
		}
		if p.Snap {
			p.SetValue(req.value)
			continue
		}
		s.setSmoothTarget(p, p.Clamp(req.value))
	}
}

func (s *slot) setSmoothTarget(p *param.Param, target float64) {
	for i := range s.smoothing {
		if s.smoothing[i].p == p {
			s.smoothing[i].s.SetTarget(target)
			return
		}
	}
	st := smoothState{p: p, s: *param.NewSmoother()}
	st.s.SetTarget(target)
	s.smoothing = append(s.smoothing, st)
}

func (s *slot) stopSmoothing(p *param.Param) {
	for i := range s.smoothing {
		if s.smoothing[i].p == p {
			last := len(s.smoothing) - 1
			s.smoothing[i] = s.smoothing[last]
			s.smoothing = s.smoothing[:last]
			return
		}
	}
}

// advanceSmoothing moves every smoothed param one frame toward its target.
func (s *slot) advanceSmoothing(coef float64) {
	for i := 0; i < len(s.smoothing); {
		st := &s.smoothing[i]
		st.p.SetValue(st.s.Next(st.p.Value(), coef))
		if st.s.IsSmoothing() {
			i++
			continue
		}
		last := len(s.smoothing) - 1
		s.smoothing[i] = s.smoothing[last]
		s.smoothing = s.smoothing[:last]
	}
}

// process runs the module for one frame and converts a panic into a fault.
func (s *slot) process(args process.Args) (fault *PluginFault) {
	defer func() {
		if r := recover(); r != nil {
			fault = &PluginFault{ModuleID: s.m.ID, Hook: "Process", Value: r, Stack: rdebug.Stack()}
		}
	}()
	s.m.Process(args)
	return nil
}

// fault bypasses the module for good and silences it. Its bypass routes
// keep running like those of any bypassed module.
func (s *slot) fault() {
	s.faulted.Store(true)
	s.m.SetBypassed(true)
	for _, o := range s.m.Outputs {
		o.Clear(0)
	}
	for _, l := range s.m.Lights {
		l.SetBrightness(0)
	}
}

// callHook runs a lifecycle hook, faulting the module if it panics. It is
// called with either lock held.
func (e *Engine) callHook(s *slot, hook string, fn func()) (fault *PluginFault) {
	defer func() {
		if r := recover(); r != nil {
			fault = &PluginFault{ModuleID: s.m.ID, Model: e.modelName(s.m), Hook: hook, Value: r, Stack: rdebug.Stack()}
			s.fault()
			e.log.Warn("%v", fault)
		}
	}()
	fn()
	return nil
}
