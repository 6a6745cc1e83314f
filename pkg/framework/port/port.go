// Package port provides the polyphonic Input and Output ports modules read
// and write on every frame.
package port

import "sync/atomic"

// MaxChannels is the maximum polyphony of a port.
const MaxChannels = 16

// Direction is fixed when a module is configured.
type Direction int

const (
	// DirectionInput ports receive cable sums.
	DirectionInput Direction = iota
	// DirectionOutput ports are written by their module.
	DirectionOutput
)

// String returns the direction name.
func (d Direction) String() string {
	if d == DirectionInput {
		return "input"
	}
	return "output"
}

// Info describes a port for display.
type Info struct {
	ID          int
	Name        string
	Description string
	Direction   Direction
}

// Port holds per-channel voltages and the active channel count.
//
// Voltages at or beyond Channels() read as 0.
type Port struct {
	Info
	voltages [MaxChannels]float32
	channels atomic.Int32
}

// Voltage returns the voltage of channel c, or 0 when c is not active.
func (p *Port) Voltage(c int) float32 {
	if c < 0 || c >= int(p.channels.Load()) {
		return 0
	}
	return p.voltages[c]
}

// Voltages returns the active voltages. The slice aliases the port.
func (p *Port) Voltages() []float32 {
	return p.voltages[:p.channels.Load()]
}

// Channels returns the number of active channels.
func (p *Port) Channels() int {
	return int(p.channels.Load())
}

// IsMonophonic reports exactly one channel.
func (p *Port) IsMonophonic() bool {
	return p.channels.Load() == 1
}

// IsPolyphonic reports more than one channel.
func (p *Port) IsPolyphonic() bool {
	return p.channels.Load() > 1
}

// PolyVoltage returns channel c, broadcasting channel 0 of a mono port.
func (p *Port) PolyVoltage(c int) float32 {
	if p.IsMonophonic() {
		return p.voltages[0]
	}
	return p.Voltage(c)
}

// VoltageSum returns the sum of all active channels.
func (p *Port) VoltageSum() float32 {
	var sum float32
	for _, v := range p.Voltages() {
		sum += v
	}
	return sum
}

func (p *Port) setChannels(n int) {
	if n < 0 {
		n = 0
	} else if n > MaxChannels {
		n = MaxChannels
	}
	for c := n; c < MaxChannels; c++ {
		p.voltages[c] = 0
	}
	p.channels.Store(int32(n))
}

// Output is written by its module during processing.
type Output struct {
	Port
}

// NewOutput creates a mono output.
func NewOutput(id int, name string) *Output {
	o := &Output{Port: Port{Info: Info{ID: id, Name: name, Direction: DirectionOutput}}}
	o.channels.Store(1)
	return o
}

// SetVoltage writes channel c. Writes outside 0..MaxChannels-1 are ignored.
func (o *Output) SetVoltage(v float32, c int) {
	if c < 0 || c >= MaxChannels {
		return
	}
	o.voltages[c] = v
}

// SetChannels sets the active channel count, clamped to 0..MaxChannels.
// Channels at or beyond n are zeroed. Cable sums observe the new count on the
// next frame.
func (o *Output) SetChannels(n int) {
	o.setChannels(n)
}

// Clear zeroes every channel and sets the count to n.
func (o *Output) Clear(n int) {
	for c := range o.voltages {
		o.voltages[c] = 0
	}
	o.setChannels(n)
}

// RawVoltage returns channel c regardless of the channel count.
func (o *Output) RawVoltage(c int) float32 {
	return o.voltages[c]
}

// Input receives the sum of its cables. Only the engine writes inputs.
type Input struct {
	Port
	active atomic.Bool
}

// NewInput creates a disconnected input.
func NewInput(id int, name string) *Input {
	return &Input{Port: Port{Info: Info{ID: id, Name: name, Direction: DirectionInput}}}
}

// Active reports whether at least one cable terminates here. A disconnected
// input is distinct from one carrying 0 V.
func (in *Input) Active() bool {
	return in.active.Load()
}

// NormalVoltage returns channel c when connected, otherwise normal.
func (in *Input) NormalVoltage(normal float32, c int) float32 {
	if !in.Active() {
		return normal
	}
	return in.Voltage(c)
}

// NormalPolyVoltage is NormalVoltage with mono broadcast.
func (in *Input) NormalPolyVoltage(normal float32, c int) float32 {
	if !in.Active() {
		return normal
	}
	return in.PolyVoltage(c)
}

// Connect marks the input connected or disconnected. Disconnecting zeroes it.
func (in *Input) Connect(active bool) {
	in.active.Store(active)
	if !active {
		in.setChannels(0)
	}
}

// Accumulate sums the given outputs into the input: the channel count becomes
// the maximum of the sources and each channel is the sum of the sources that
// carry it.
func (in *Input) Accumulate(sources []*Output) {
	var sum [MaxChannels]float32
	channels := 0
	for _, src := range sources {
		n := src.Channels()
		if n > channels {
			channels = n
		}
		for c := 0; c < n; c++ {
			sum[c] += src.voltages[c]
		}
	}
	in.voltages = sum
	in.channels.Store(int32(channels))
}

// CopyFrom copies the active voltages and channel count of src to o.
func (o *Output) CopyFrom(src *Input) {
	n := src.Channels()
	copy(o.voltages[:n], src.voltages[:n])
	o.setChannels(n)
}
