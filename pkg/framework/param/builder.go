package param

// Builder provides a fluent API for configuring parameters
type Builder struct {
	param *Param
}

// New creates a new parameter builder for a bounded 0..1 parameter
func New(id int, name string) *Builder {
	return &Builder{
		param: &Param{
			ID:               id,
			Name:             name,
			Min:              0,
			Max:              1,
			Bounds:           Bounded,
			ResetEnabled:     true,
			RandomizeEnabled: true,
		},
	}
}

// Range sets the min and max values
func (b *Builder) Range(min, max float64) *Builder {
	b.param.Min = min
	b.param.Max = max
	b.param.Bounds = Bounded
	return b
}

// Unbounded removes the range; the value is never clamped to Min/Max and never serialized
func (b *Builder) Unbounded() *Builder {
	b.param.Bounds = Unbounded
	b.param.RandomizeEnabled = false
	return b
}

// Default sets the default value in the stored (not display) domain
func (b *Builder) Default(value float64) *Builder {
	b.param.Default = value
	return b
}

// Unit sets the unit suffix, including any leading space
func (b *Builder) Unit(unit string) *Builder {
	b.param.Unit = unit
	return b
}

// Display sets the display mapping (see Param.DisplayBase)
func (b *Builder) Display(base, multiplier, offset float64) *Builder {
	b.param.DisplayBase = base
	b.param.DisplayMultiplier = multiplier
	b.param.DisplayOffset = offset
	return b
}

// Snap rounds the value to integers
func (b *Builder) Snap() *Builder {
	b.param.Snap = true
	return b
}

// Labels names integer positions, implying Snap
func (b *Builder) Labels(labels ...string) *Builder {
	b.param.Labels = labels
	b.param.Snap = true
	return b
}

// NoReset excludes the parameter from module resets
func (b *Builder) NoReset() *Builder {
	b.param.ResetEnabled = false
	return b
}

// NoRandomize excludes the parameter from module randomization
func (b *Builder) NoRandomize() *Builder {
	b.param.RandomizeEnabled = false
	return b
}

// Formatter sets custom display formatting and parsing
func (b *Builder) Formatter(format func(float64) string, parse func(string) (float64, error)) *Builder {
	b.param.formatFunc = format
	b.param.parseFunc = parse
	return b
}

// Build returns the configured parameter set to its default value
func (b *Builder) Build() *Param {
	b.param.SetValue(b.param.Default)
	return b.param
}

// Switch creates a snapped parameter with one position per label
func Switch(id int, name string, labels ...string) *Builder {
	max := float64(len(labels) - 1)
	if max < 0 {
		max = 0
	}
	return New(id, name).Range(0, max).Labels(labels...).NoRandomize()
}

// Button creates a momentary 0/1 parameter
func Button(id int, name string) *Builder {
	return New(id, name).Range(0, 1).Snap().NoRandomize()
}
