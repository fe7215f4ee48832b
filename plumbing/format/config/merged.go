package config

// Scope tells where a config file comes from. Lower scopes take precedence.
type Scope int

const (
	// LocalScope is the .hg/hgrc file of a repository.
	LocalScope Scope = iota
	// GlobalScope is the hgrc file of the user.
	GlobalScope
	// SystemScope is the hgrc file of the system.
	SystemScope
)

type ScopedConfigs map[Scope]*Config

// Merged gives a single view over the config files of every scope.
type Merged struct {
	scopedConfigs ScopedConfigs
}

func NewMerged() *Merged {
	cfg := &Merged{
		scopedConfigs: make(ScopedConfigs),
	}
	for s := LocalScope; s <= SystemScope; s++ {
		cfg.scopedConfigs[s] = New()
	}

	return cfg
}

func (m *Merged) ResetScopedConfig(scope Scope) {
	m.scopedConfigs[scope] = New()
}

func (m *Merged) ScopedConfig(scope Scope) *Config {
	return m.scopedConfigs[scope]
}

func (m *Merged) SetScopedConfig(scope Scope, c *Config) {
	m.scopedConfigs[scope] = c
}

func (m *Merged) LocalConfig() *Config {
	return m.ScopedConfig(LocalScope)
}

func (m *Merged) SetLocalConfig(c *Config) {
	m.SetScopedConfig(LocalScope, c)
}

// LookupOption returns the value of the option from the most specific
// scope setting it.
func (m *Merged) LookupOption(section string, key string) (string, bool) {
	for s := LocalScope; s <= SystemScope; s++ {
		c, ok := m.scopedConfigs[s]
		if !ok {
			continue
		}

		if v, ok := c.LookupOption(section, key); ok {
			return v, true
		}
	}

	return "", false
}

// Flatten returns a single config where the options of the more specific
// scopes come last, and thus win.
func (m *Merged) Flatten() *Config {
	out := New()
	for s := SystemScope; s >= LocalScope; s-- {
		c, ok := m.scopedConfigs[s]
		if !ok {
			continue
		}

		for _, sect := range c.Sections {
			dst := out.Section(sect.Name)
			for _, o := range sect.Options {
				dst.AddOption(o.Key, o.Value)
			}
		}
	}

	return out
}
