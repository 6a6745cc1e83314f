package module

import (
	"encoding/json"

	"github.com/justyntemme/rackgo/pkg/framework/process"
)

// Processor is the behaviour plugin code supplies. Process runs once per
// frame on a worker goroutine; it reads inputs and writes outputs and must
// not block.
type Processor interface {
	Process(args process.Args)
}

// Host is the part of the engine a module may call. Every method is safe to
// call from Process.
type Host interface {
	Module(id int64) *Module
	SetParamValue(moduleID int64, paramID int, value float64)
	ParamValue(moduleID int64, paramID int) (float64, bool)
	SampleRate() float64
}

// Optional hooks. The engine checks for each with a type assertion.

// Adder is notified after the module is inserted.
type Adder interface {
	OnAdd(host Host)
}

// Remover is notified before the module is released.
type Remover interface {
	OnRemove()
}

// Resetter is notified after the params are reset.
type Resetter interface {
	OnReset()
}

// Randomizer is notified after the params are randomized.
type Randomizer interface {
	OnRandomize()
}

// Bypasser is notified when bypass is toggled.
type Bypasser interface {
	OnBypass()
	OnUnBypass()
}

// SampleRateChanger is notified of sample rate changes and once on insertion.
type SampleRateChanger interface {
	OnSampleRateChange(sampleRate float64)
}

// ExpanderChanger is notified when the module linked on a side changes.
type ExpanderChanger interface {
	OnExpanderChange(side Side)
}

// DataSerializer saves and restores custom state under the "data" key.
type DataSerializer interface {
	DataToJSON() (json.RawMessage, error)
	DataFromJSON(data json.RawMessage) error
}

// HandleOwner exposes param handles the engine registers on insertion and
// unregisters on removal.
type HandleOwner interface {
	ParamHandles() []*ParamHandle
}
