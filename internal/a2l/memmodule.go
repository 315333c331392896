package a2l

// MemModule is the in-memory Module implementation the Synthesizer and
// Update Coordinator operate on; a future lexer/printer (out of scope
// here) would load into and serialize out of one of these.
type MemModule struct {
	entities map[Kind]map[string]interface{}
}

// NewMemModule returns an empty module.
func NewMemModule() *MemModule {
	return &MemModule{entities: make(map[Kind]map[string]interface{})}
}

func (m *MemModule) bucket(kind Kind) map[string]interface{} {
	b, ok := m.entities[kind]
	if !ok {
		b = make(map[string]interface{})
		m.entities[kind] = b
	}
	return b
}

func (m *MemModule) Names(kind Kind) []string {
	b := m.entities[kind]
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	return names
}

func (m *MemModule) Lookup(kind Kind, name string) (interface{}, bool) {
	b := m.entities[kind]
	v, ok := b[name]
	return v, ok
}

func (m *MemModule) Insert(kind Kind, name string, entity interface{}) {
	m.bucket(kind)[name] = entity
}

func (m *MemModule) Remove(kind Kind, name string) {
	delete(m.bucket(kind), name)
}

var _ Module = (*MemModule)(nil)
