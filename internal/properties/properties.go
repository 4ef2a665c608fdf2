// Package properties implements the option panel the display exposes: named,
// typed properties backed by getter/setter callbacks. A UI or HTTP layer sets
// values by name; the owning component notifies back through Changed when a
// value moves underneath the panel.
package properties

import (
	"fmt"
	"sync"
)

// Kind enumerates property value types.
type Kind int

const (
	KindEnum Kind = iota
	KindFloat
	KindBool
	KindColor
)

func (k Kind) String() string {
	switch k {
	case KindEnum:
		return "enum"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindColor:
		return "color"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Color is an RGB triple with components in [0,1].
type Color struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
}

// EnumOption is a labelled enum value.
type EnumOption struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Property is a single named option. Exactly one getter/setter pair is
// populated according to Kind.
type Property struct {
	name string
	kind Kind
	mgr  *Manager

	min    *float64
	legacy []string

	options []EnumOption

	getInt   func() int
	setInt   func(int)
	getFloat func() float32
	setFloat func(float32)
	getBool  func() bool
	setBool  func(bool)
	getColor func() Color
	setColor func(Color)
}

// Name returns the property's canonical name.
func (p *Property) Name() string { return p.name }

// Kind returns the property's value type.
func (p *Property) Kind() Kind { return p.kind }

// SetMin constrains a float property to values >= min.
func (p *Property) SetMin(min float64) { p.min = &min }

// AddLegacyName registers an alias accepted on input. The property is still
// reported under its canonical name.
func (p *Property) AddLegacyName(name string) {
	p.legacy = append(p.legacy, name)
	p.mgr.mu.Lock()
	p.mgr.aliases[name] = p.name
	p.mgr.mu.Unlock()
}

// AddOption appends a labelled value to an enum property.
func (p *Property) AddOption(label string, value int) {
	p.mgr.mu.Lock()
	defer p.mgr.mu.Unlock()
	p.options = append(p.options, EnumOption{Label: label, Value: value})
}

// ClearOptions removes all enum options.
func (p *Property) ClearOptions() {
	p.mgr.mu.Lock()
	defer p.mgr.mu.Unlock()
	p.options = p.options[:0]
}

// Options returns a copy of the enum option list.
func (p *Property) Options() []EnumOption {
	p.mgr.mu.Lock()
	defer p.mgr.mu.Unlock()
	out := make([]EnumOption, len(p.options))
	copy(out, p.options)
	return out
}

// Changed notifies the panel that the owning component updated the value
// outside a Set call. Never invokes the setter, so components may call it
// from inside their own setters without recursing.
func (p *Property) Changed() {
	p.mgr.notify(p.name)
}

// Manager owns a display's property set.
type Manager struct {
	mu      sync.Mutex
	props   map[string]*Property
	aliases map[string]string
	order   []string

	onChange func(name string)
}

// NewManager creates an empty property manager.
func NewManager() *Manager {
	return &Manager{
		props:   make(map[string]*Property),
		aliases: make(map[string]string),
	}
}

// OnChange registers a callback fired after any value change, with the
// manager's lock released. Used by publishers to push panel refreshes.
func (m *Manager) OnChange(fn func(name string)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

func (m *Manager) notify(name string) {
	m.mu.Lock()
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn(name)
	}
}

func (m *Manager) add(p *Property) *Property {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.props[p.name]; dup {
		panic(fmt.Sprintf("properties: duplicate property %q", p.name))
	}
	m.props[p.name] = p
	m.order = append(m.order, p.name)
	return p
}

// Enum registers an enum property.
func (m *Manager) Enum(name string, get func() int, set func(int)) *Property {
	return m.add(&Property{name: name, kind: KindEnum, mgr: m, getInt: get, setInt: set})
}

// Float registers a float property.
func (m *Manager) Float(name string, get func() float32, set func(float32)) *Property {
	return m.add(&Property{name: name, kind: KindFloat, mgr: m, getFloat: get, setFloat: set})
}

// Bool registers a bool property.
func (m *Manager) Bool(name string, get func() bool, set func(bool)) *Property {
	return m.add(&Property{name: name, kind: KindBool, mgr: m, getBool: get, setBool: set})
}

// Color registers a color property.
func (m *Manager) Color(name string, get func() Color, set func(Color)) *Property {
	return m.add(&Property{name: name, kind: KindColor, mgr: m, getColor: get, setColor: set})
}

// Lookup resolves a canonical or legacy name to its property.
func (m *Manager) Lookup(name string) (*Property, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if canonical, ok := m.aliases[name]; ok {
		name = canonical
	}
	p, ok := m.props[name]
	return p, ok
}

// Set assigns a value by name. Accepted value types per kind: enum int or
// float64 (JSON numbers), float float64/float32, bool bool, color Color.
// Equal-value updates are dropped before the setter runs, which breaks the
// setter -> Changed -> panel -> Set cycle.
func (m *Manager) Set(name string, value interface{}) error {
	p, ok := m.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown property %q", name)
	}

	switch p.kind {
	case KindEnum:
		v, err := asInt(value)
		if err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		if p.getInt() == v {
			return nil
		}
		p.setInt(v)
	case KindFloat:
		v, err := asFloat(value)
		if err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		if p.min != nil && float64(v) < *p.min {
			v = float32(*p.min)
		}
		if p.getFloat() == v {
			return nil
		}
		p.setFloat(v)
	case KindBool:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("property %q: expected bool, got %T", name, value)
		}
		if p.getBool() == v {
			return nil
		}
		p.setBool(v)
	case KindColor:
		v, ok := value.(Color)
		if !ok {
			return fmt.Errorf("property %q: expected color, got %T", name, value)
		}
		if p.getColor() == v {
			return nil
		}
		p.setColor(v)
	}
	return nil
}

// Get returns the current value of a property by name.
func (m *Manager) Get(name string) (interface{}, error) {
	p, ok := m.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown property %q", name)
	}
	switch p.kind {
	case KindEnum:
		return p.getInt(), nil
	case KindFloat:
		return p.getFloat(), nil
	case KindBool:
		return p.getBool(), nil
	default:
		return p.getColor(), nil
	}
}

// Info is a serialisable property description for panel clients.
type Info struct {
	Name    string       `json:"name"`
	Kind    string       `json:"kind"`
	Value   interface{}  `json:"value"`
	Options []EnumOption `json:"options,omitempty"`
	Legacy  []string     `json:"legacy_names,omitempty"`
}

// List describes every property in registration order.
func (m *Manager) List() []Info {
	m.mu.Lock()
	names := make([]string, len(m.order))
	copy(names, m.order)
	m.mu.Unlock()

	out := make([]Info, 0, len(names))
	for _, name := range names {
		p, ok := m.Lookup(name)
		if !ok {
			continue
		}
		v, _ := m.Get(name)
		info := Info{Name: name, Kind: p.kind.String(), Value: v, Legacy: p.legacy}
		if p.kind == KindEnum {
			info.Options = p.Options()
		}
		out = append(out, info)
	}
	return out
}

func asInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected int, got %T", value)
	}
}

func asFloat(value interface{}) (float32, error) {
	switch v := value.(type) {
	case float32:
		return v, nil
	case float64:
		return float32(v), nil
	case int:
		return float32(v), nil
	default:
		return 0, fmt.Errorf("expected float, got %T", value)
	}
}
