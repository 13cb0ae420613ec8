package descriptor

import (
	"time"

	"github.com/google/uuid"
)

// RequirementPlatform is the requirement kind declaring the minimum
// platform version a descriptor's plugin needs. It is currently the
// only recognized kind.
const RequirementPlatform = "platform"

// Metadata holds the seven required descriptor metadata fields.
// Every field must be supplied by the metadata primitive; none default.
type Metadata struct {
	Name        string
	Description string
	Author      string
	License     string
	Version     string
	URL         string
	Timeout     time.Duration
}

// Input describes one declared argument of an entity.
// Type-specific fields: string inputs carry Validation and MaxLength,
// list inputs carry the allowed-values List.
type Input struct {
	Name        string
	Prompt      string
	Description string
	Type        string
	Default     any
	Optional    bool

	// Validation is the secondary check for string inputs: a named
	// validator, a "cel:" expression, or a regex pattern.
	Validation string

	// MaxLength bounds string inputs; zero disables length checking.
	MaxLength int

	// List holds the allowed literal values for list inputs, in
	// declaration order.
	List []any
}

// Output describes one declared output field of an entity.
type Output struct {
	Name        string
	Description string
	DisplayAs   string
	Default     any
}

// Entity is a named unit within a descriptor (e.g. an action) owning
// its own ordered input and output declarations.
type Entity struct {
	name        string
	description string
	inputs      []*Input
	inputIndex  map[string]*Input
	outputs     []*Output
	outputIndex map[string]*Output
}

func newEntity(name, description string) *Entity {
	return &Entity{
		name:        name,
		description: description,
		inputIndex:  make(map[string]*Input),
		outputIndex: make(map[string]*Output),
	}
}

// Name returns the entity's unique name within the registry.
func (e *Entity) Name() string { return e.name }

// Description returns the entity's description, if one was declared.
func (e *Entity) Description() string { return e.description }

// Inputs returns the declared inputs in registration order.
func (e *Entity) Inputs() []*Input {
	out := make([]*Input, len(e.inputs))
	copy(out, e.inputs)
	return out
}

// Input returns the declared input with the given argument name.
func (e *Entity) Input(name string) (*Input, bool) {
	in, ok := e.inputIndex[name]
	return in, ok
}

// Outputs returns the declared outputs in registration order.
func (e *Entity) Outputs() []*Output {
	out := make([]*Output, len(e.outputs))
	copy(out, e.outputs)
	return out
}

// Output returns the declared output with the given field name.
func (e *Entity) Output(name string) (*Output, bool) {
	out, ok := e.outputIndex[name]
	return out, ok
}

// addInput stores an input declaration. Re-declaring an argument
// replaces the earlier entry in place, preserving registration order.
func (e *Entity) addInput(in *Input) {
	if prev, ok := e.inputIndex[in.Name]; ok {
		*prev = *in
		return
	}
	e.inputs = append(e.inputs, in)
	e.inputIndex[in.Name] = in
}

// addOutput stores an output declaration, replacing in place on
// re-declaration like addInput.
func (e *Entity) addOutput(out *Output) {
	if prev, ok := e.outputIndex[out.Name]; ok {
		*prev = *out
		return
	}
	e.outputs = append(e.outputs, out)
	e.outputIndex[out.Name] = out
}

// Registry is the in-memory representation of one loaded descriptor.
//
// A Registry is built by a single synchronous interpreter pass and is
// read-only afterwards: no writer exists once Load returns, so it is
// safe for unsynchronized concurrent reads by help rendering and
// argument validation. Every load builds a fresh Registry; nothing is
// merged across loads.
type Registry struct {
	id          uuid.UUID
	pluginName  string
	pluginKind  string
	metadata    Metadata
	hasMetadata bool

	requirements map[string]string
	entities     []*Entity
	entityIndex  map[string]*Entity
	usage        string

	developmentBypassed bool
}

func newRegistry(pluginName, pluginKind string) *Registry {
	return &Registry{
		id:           uuid.New(),
		pluginName:   pluginName,
		pluginKind:   pluginKind,
		requirements: make(map[string]string),
		entityIndex:  make(map[string]*Entity),
	}
}

// ID returns the load-correlation identifier assigned to this registry.
// Every load produces a distinct ID, which ties log lines and trace
// spans back to a specific registry instance.
func (r *Registry) ID() uuid.UUID { return r.id }

// PluginName returns the plugin name this descriptor was loaded for.
func (r *Registry) PluginName() string { return r.pluginName }

// PluginKind returns the plugin kind this descriptor was loaded for.
func (r *Registry) PluginKind() string { return r.pluginKind }

// Metadata returns the descriptor metadata.
func (r *Registry) Metadata() Metadata { return r.metadata }

// Requirements returns a copy of the declared requirement set, keyed by
// requirement kind.
func (r *Registry) Requirements() map[string]string {
	out := make(map[string]string, len(r.requirements))
	for k, v := range r.requirements {
		out[k] = v
	}
	return out
}

// Entities returns the declared entities in registration order.
func (r *Registry) Entities() []*Entity {
	out := make([]*Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

// Entity returns the entity with the given name.
func (r *Registry) Entity(name string) (*Entity, bool) {
	e, ok := r.entityIndex[name]
	return e, ok
}

// EntityNames returns the entity names in registration order.
func (r *Registry) EntityNames() []string {
	names := make([]string, len(r.entities))
	for i, e := range r.entities {
		names[i] = e.name
	}
	return names
}

// Usage returns the free-form usage text, if any was declared.
func (r *Registry) Usage() string { return r.usage }

// DevelopmentBypassed reports whether a platform version requirement
// was skipped because the host is a development build.
func (r *Registry) DevelopmentBypassed() bool { return r.developmentBypassed }

// setMetadata stores the descriptor metadata. Metadata is immutable
// once set; a second call fails.
func (r *Registry) setMetadata(m Metadata) error {
	if r.hasMetadata {
		return newError(CodeMalformed, "metadata already declared")
	}
	r.metadata = m
	r.hasMetadata = true
	return nil
}

func (r *Registry) addRequirement(kind, minVersion string) {
	r.requirements[kind] = minVersion
}

// declareEntity establishes the entity context for subsequent input and
// output statements, creating the entity on first declaration and
// resuming it on later ones.
func (r *Registry) declareEntity(name, description string) *Entity {
	if e, ok := r.entityIndex[name]; ok {
		if description != "" {
			e.description = description
		}
		return e
	}
	e := newEntity(name, description)
	r.entities = append(r.entities, e)
	r.entityIndex[name] = e
	return e
}

func (r *Registry) setUsage(text string) {
	r.usage = text
}
