package module

// Model describes a kind of module and builds instances of it.
type Model struct {
	Plugin      string // plugin slug, set when the model is added to a plugin
	Version     string // plugin version, set with Plugin
	Slug        string
	Name        string
	Description string
	Tags        []string

	// New configures m and returns its behaviour.
	New func(m *Module) Processor
}

// Create returns a configured, unregistered module.
func (mdl *Model) Create() *Module {
	m := New()
	m.Model = mdl
	if mdl.New != nil {
		m.proc = mdl.New(m)
	}
	return m
}
