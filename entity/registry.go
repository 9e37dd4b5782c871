package entity

// MethodHandler receives a client-method invocation's decoded argument
// list.
type MethodHandler func(e *Entity, args []any)

// PropertyHandler receives a property's newly decoded value.
type PropertyHandler func(e *Entity, value any)

// NestedHandler receives a nested-property edit's leaf value; path is
// the dotted path split on ".", not including the root property name
// the handler was registered under.
type NestedHandler func(e *Entity, path []string, value any)

type regKey struct {
	Type   string
	Member string
}

// Registry is the static (type_name, member_name) -> subscriber table.
// It is built once, at controller construction, and never mutated
// during a parse; Entity holds no reference to it, so dispatch always
// flows caller (orchestrator/controller) -> registry -> handler.
type Registry struct {
	methods    map[regKey][]MethodHandler
	properties map[regKey][]PropertyHandler
	nested     map[regKey][]NestedHandler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		methods:    make(map[regKey][]MethodHandler),
		properties: make(map[regKey][]PropertyHandler),
		nested:     make(map[regKey][]NestedHandler),
	}
}

// OnMethod registers h to run, in registration order, whenever typeName
// invokes the client method named method.
func (reg *Registry) OnMethod(typeName, method string, h MethodHandler) {
	k := regKey{typeName, method}
	reg.methods[k] = append(reg.methods[k], h)
}

// OnProperty registers h to run whenever typeName's property named prop
// changes.
func (reg *Registry) OnProperty(typeName, prop string, h PropertyHandler) {
	k := regKey{typeName, prop}
	reg.properties[k] = append(reg.properties[k], h)
}

// OnNestedProperty registers h to run whenever typeName receives a
// nested-property edit whose dotted path is exactly path (e.g.
// "state.missions.teamsScore").
func (reg *Registry) OnNestedProperty(typeName, path string, h NestedHandler) {
	k := regKey{typeName, path}
	reg.nested[k] = append(reg.nested[k], h)
}

// FireMethod dispatches a decoded client-method call to all subscribers
// of (e.TypeName, method), in subscription order.
func (reg *Registry) FireMethod(e *Entity, method string, args []any) {
	for _, h := range reg.methods[regKey{e.TypeName, method}] {
		h(e, args)
	}
}

// FireProperty dispatches a decoded property change to all subscribers
// of (e.TypeName, prop), in subscription order.
func (reg *Registry) FireProperty(e *Entity, prop string, value any) {
	for _, h := range reg.properties[regKey{e.TypeName, prop}] {
		h(e, value)
	}
}

// FireNested dispatches a decoded nested-property edit to all
// subscribers of (e.TypeName, dottedPath), in subscription order.
func (reg *Registry) FireNested(e *Entity, dottedPath string, path []string, value any) {
	for _, h := range reg.nested[regKey{e.TypeName, dottedPath}] {
		h(e, path, value)
	}
}
