// Package param provides module parameters: bounded or unbounded values with
// optional snapping, display scaling and text formatting.
package param

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync/atomic"
)

// Bounds tags whether a parameter has a [Min, Max] range.
type Bounds int

const (
	// Bounded parameters are clamped to [Min, Max] and serialized.
	Bounded Bounds = iota
	// Unbounded parameters accept any finite value and are never serialized.
	Unbounded
)

// String returns the bounds tag name.
func (b Bounds) String() string {
	switch b {
	case Bounded:
		return "bounded"
	case Unbounded:
		return "unbounded"
	default:
		return "unknown"
	}
}

// Param is a single module parameter.
//
// The value is stored atomically so the engine, the audio thread and
// controllers may read and write it without locking. Everything else is
// configuration and must not change once the owning module is in an engine.
type Param struct {
	ID      int
	Name    string
	Unit    string
	Min     float64
	Max     float64
	Default float64
	Bounds  Bounds

	// Snap rounds every written value to the nearest integer.
	Snap bool

	ResetEnabled     bool
	RandomizeEnabled bool

	// Display mapping: 0 is linear, negative is logarithmic with base -DisplayBase,
	// positive is exponential with base DisplayBase.
	DisplayBase       float64
	DisplayMultiplier float64
	DisplayOffset     float64

	// Labels names each integer value of a snapped parameter.
	Labels []string

	value uint64

	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// IsBounded reports whether the parameter has a range.
func (p *Param) IsBounded() bool {
	return p.Bounds == Bounded
}

// Value returns the settled value.
func (p *Param) Value() float64 {
	return math.Float64frombits(atomic.LoadUint64(&p.value))
}

// SetValue clamps, snaps and stores value. NaN is dropped.
func (p *Param) SetValue(value float64) {
	if math.IsNaN(value) {
		return
	}
	atomic.StoreUint64(&p.value, math.Float64bits(p.Clamp(value)))
}

// Clamp returns value as SetValue would store it.
func (p *Param) Clamp(value float64) float64 {
	if p.Snap {
		value = math.Round(value)
	}
	if p.Bounds == Unbounded {
		return math.Max(-math.MaxFloat32, math.Min(math.MaxFloat32, value))
	}
	lo, hi := p.Min, p.Max
	if hi < lo {
		lo, hi = hi, lo
	}
	return math.Max(lo, math.Min(hi, value))
}

// Range returns Max - Min, or 0 when unbounded.
func (p *Param) Range() float64 {
	if p.Bounds == Unbounded {
		return 0
	}
	return p.Max - p.Min
}

// Normalized returns the value mapped to 0..1.
func (p *Param) Normalized() float64 {
	r := p.Range()
	if r == 0 {
		return 0
	}
	return (p.Value() - p.Min) / r
}

// Denormalize maps a 0..1 position into the param's range.
func (p *Param) Denormalize(normalized float64) float64 {
	return p.Min + normalized*(p.Max-p.Min)
}

// SetNormalized sets the value from a 0..1 position.
func (p *Param) SetNormalized(normalized float64) {
	if p.Bounds == Unbounded {
		return
	}
	p.SetValue(p.Denormalize(normalized))
}

// Reset restores the default value unless reset is disabled.
func (p *Param) Reset() {
	if !p.ResetEnabled {
		return
	}
	p.SetValue(p.Default)
}

// Randomize draws a uniform value in range unless randomization is disabled.
func (p *Param) Randomize() {
	if !p.RandomizeEnabled || p.Bounds == Unbounded {
		return
	}
	p.SetNormalized(rand.Float64())
}

// DisplayValue maps the stored value through the display mapping.
func (p *Param) DisplayValue() float64 {
	return p.toDisplay(p.Value())
}

func (p *Param) toDisplay(v float64) float64 {
	switch {
	case p.DisplayBase < 0:
		v = math.Log(v) / math.Log(-p.DisplayBase)
	case p.DisplayBase > 0:
		v = math.Pow(p.DisplayBase, v)
	}
	return v*p.displayMultiplier() + p.DisplayOffset
}

// SetDisplayValue inverts the display mapping and stores the result.
func (p *Param) SetDisplayValue(display float64) {
	v := (display - p.DisplayOffset) / p.displayMultiplier()
	switch {
	case p.DisplayBase < 0:
		v = math.Pow(-p.DisplayBase, v)
	case p.DisplayBase > 0:
		v = math.Log(v) / math.Log(p.DisplayBase)
	}
	p.SetValue(v)
}

func (p *Param) displayMultiplier() float64 {
	if p.DisplayMultiplier == 0 {
		return 1
	}
	return p.DisplayMultiplier
}

// String formats the current value for display.
func (p *Param) String() string {
	return p.Format(p.Value())
}

// Format formats an arbitrary stored value for display.
func (p *Param) Format(v float64) string {
	if len(p.Labels) > 0 {
		i := int(math.Round(v - p.Min))
		if i >= 0 && i < len(p.Labels) {
			return p.Labels[i]
		}
	}
	d := p.toDisplay(v)
	if p.formatFunc != nil {
		return p.formatFunc(d)
	}
	if p.Snap {
		return fmt.Sprintf("%.0f%s", d, p.Unit)
	}
	return strconv.FormatFloat(d, 'g', 5, 64) + p.Unit
}

// SetString parses text produced by String or typed by a user.
func (p *Param) SetString(s string) error {
	s = strings.TrimSpace(s)
	for i, label := range p.Labels {
		if strings.EqualFold(label, s) {
			p.SetValue(p.Min + float64(i))
			return nil
		}
	}
	if p.parseFunc != nil {
		d, err := p.parseFunc(s)
		if err != nil {
			return err
		}
		p.SetDisplayValue(d)
		return nil
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, strings.TrimSpace(p.Unit))), 64)
	if err != nil {
		return fmt.Errorf("param %q: %w", p.Name, err)
	}
	p.SetDisplayValue(d)
	return nil
}

// SetFormatter installs custom display formatting and parsing.
func (p *Param) SetFormatter(format func(float64) string, parse func(string) (float64, error)) {
	p.formatFunc = format
	p.parseFunc = parse
}
