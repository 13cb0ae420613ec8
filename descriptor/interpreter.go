package descriptor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/jeffmccune/marionette-collective/validator"
	"github.com/jeffmccune/marionette-collective/version"
)

// instrumentationName identifies this package to OpenTelemetry.
const instrumentationName = "github.com/jeffmccune/marionette-collective/descriptor"

// requiredMetadataKeys are the seven keys every metadata statement must
// supply, checked in this order so failures name the first missing key.
var requiredMetadataKeys = []string{
	"name", "description", "author", "license", "version", "url", "timeout",
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger used for load diagnostics.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		i.logger = logger
	}
}

// WithPlatformVersion sets the host platform version used to evaluate
// requires statements. Defaults to the development sentinel, which
// satisfies every requirement with a logged warning.
func WithPlatformVersion(v string) Option {
	return func(i *Interpreter) {
		i.platformVersion = v
	}
}

// WithValidators sets the validator registry consulted for declared
// input types. Defaults to validator.NewRegistry().
func WithValidators(r *validator.Registry) Option {
	return func(i *Interpreter) {
		i.validators = r
	}
}

// Interpreter executes descriptor files against fresh registries.
//
// An Interpreter is stateless between loads and safe for concurrent
// use; each Load builds its own Registry. Within one load, statements
// execute strictly in document order because the entity context is
// shared across calls.
type Interpreter struct {
	logger          *slog.Logger
	platformVersion string
	validators      *validator.Registry

	tracer       trace.Tracer
	loads        metric.Int64Counter
	loadFailures metric.Int64Counter
}

// New creates an Interpreter with the given options.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		logger:          slog.Default(),
		platformVersion: version.Development,
		validators:      validator.NewRegistry(),
		tracer:          otel.Tracer(instrumentationName),
	}

	for _, opt := range opts {
		opt(i)
	}

	meter := otel.Meter(instrumentationName)
	i.loads, _ = meter.Int64Counter("ddl.loads",
		metric.WithDescription("Descriptor load attempts"))
	i.loadFailures, _ = meter.Int64Counter("ddl.load_failures",
		metric.WithDescription("Descriptor loads aborted by an error"))

	return i
}

// LoadPlugin locates the descriptor for the named plugin across the
// search roots and loads it.
func (i *Interpreter) LoadPlugin(ctx context.Context, pluginName, pluginKind string, searchRoots []string) (*Registry, error) {
	path, err := Loader{Logger: i.logger}.Find(pluginName, pluginKind, searchRoots)
	if err != nil {
		return nil, err
	}
	return i.load(ctx, path, pluginName, pluginKind)
}

// Load reads and executes the descriptor file at path, returning the
// populated Registry. The plugin name and kind are derived from the
// path per the `<root>/mcollective/<kind>/<name>.ddl` layout.
//
// Loading is fail-fast: the first primitive contract violation aborts
// the load and no partial Registry is returned.
func (i *Interpreter) Load(ctx context.Context, path string) (*Registry, error) {
	name := strings.TrimSuffix(filepath.Base(path), Extension)
	kind := filepath.Base(filepath.Dir(path))
	return i.load(ctx, path, name, kind)
}

func (i *Interpreter) load(ctx context.Context, path, pluginName, pluginKind string) (_ *Registry, err error) {
	ctx, span := i.tracer.Start(ctx, "ddl.load", trace.WithAttributes(
		attribute.String("ddl.plugin", pluginName),
		attribute.String("ddl.kind", pluginKind),
		attribute.String("ddl.path", path),
	))
	defer func() {
		kindAttr := metric.WithAttributes(attribute.String("ddl.kind", pluginKind))
		i.loads.Add(ctx, 1, kindAttr)
		if err != nil {
			i.loadFailures.Add(ctx, 1, kindAttr)
			span.RecordError(err)
			span.SetStatus(codes.Error, "descriptor load failed")

			var derr *Error
			if errors.As(err, &derr) && derr.Plugin == "" {
				derr.WithPlugin(pluginName, pluginKind)
			}
		}
		span.End()
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newError(CodeNotFound, "no descriptor at %q", path).WithCause(err)
		}
		return nil, newError(CodeParseError, "reading descriptor %q", path).WithCause(err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, newError(CodeParseError, "parsing descriptor %q", path).WithCause(err)
	}

	reg := newRegistry(pluginName, pluginKind)
	if err := i.execute(reg, &doc); err != nil {
		return nil, err
	}

	if !reg.hasMetadata {
		return nil, newError(CodeMalformed, "descriptor declared no metadata")
	}

	i.logger.Debug("descriptor loaded",
		"plugin", pluginName,
		"kind", pluginKind,
		"registry_id", reg.id.String(),
		"entities", len(reg.entities))

	return reg, nil
}

// execute dispatches the statement sequence in document order.
// The entity context established by action statements is threaded
// explicitly to the input and output handlers.
func (i *Interpreter) execute(reg *Registry, doc *yaml.Node) error {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return newError(CodeParseError, "descriptor is empty")
	}

	seq := doc.Content[0]
	if seq.Kind != yaml.SequenceNode {
		return newError(CodeParseError, "descriptor must be a sequence of statements")
	}

	var current *Entity
	for _, stmt := range seq.Content {
		primitive, arg, err := statementParts(stmt)
		if err != nil {
			return err
		}

		switch primitive {
		case "metadata":
			err = i.execMetadata(reg, arg)
		case "requires":
			err = i.execRequires(reg, arg)
		case "action":
			current, err = i.execAction(reg, arg)
		case "input":
			err = i.execInput(current, arg)
		case "output":
			err = i.execOutput(current, arg)
		case "usage":
			err = i.execUsage(reg, arg)
		default:
			err = newError(CodeMalformed, "unknown primitive %q", primitive)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// statementParts splits a statement node into its primitive name and
// argument node. Every statement must invoke exactly one primitive.
func statementParts(stmt *yaml.Node) (string, *yaml.Node, error) {
	if stmt.Kind != yaml.MappingNode || len(stmt.Content) != 2 {
		return "", nil, newError(CodeMalformed,
			"line %d: each statement must invoke exactly one primitive", stmt.Line)
	}
	return stmt.Content[0].Value, stmt.Content[1], nil
}

func (i *Interpreter) execMetadata(reg *Registry, arg *yaml.Node) error {
	props, err := decodeProps("metadata", arg)
	if err != nil {
		return err
	}

	for _, key := range requiredMetadataKeys {
		if _, ok := props[key]; !ok {
			return newError(CodeMalformed, "missing required metadata key %q", key).WithKey(key)
		}
	}

	meta := Metadata{}
	for _, field := range []struct {
		key string
		dst *string
	}{
		{"name", &meta.Name},
		{"description", &meta.Description},
		{"author", &meta.Author},
		{"license", &meta.License},
		{"version", &meta.Version},
		{"url", &meta.URL},
	} {
		key, dst := field.key, field.dst
		s, ok := propString(props, key)
		if !ok {
			return newError(CodeMalformed, "metadata key %q must be a string", key).WithKey(key)
		}
		*dst = s
	}

	timeout, ok := propTimeout(props, "timeout")
	if !ok {
		return newError(CodeMalformed, "metadata key %q must be a number of seconds", "timeout").
			WithKey("timeout")
	}
	meta.Timeout = timeout

	return reg.setMetadata(meta)
}

// execRequires stores each requirement and re-validates the platform
// requirement immediately. A failing requirement aborts the load
// mid-document; a development host bypasses the check with a warning.
func (i *Interpreter) execRequires(reg *Registry, arg *yaml.Node) error {
	props, err := decodeProps("requires", arg)
	if err != nil {
		return err
	}

	kinds := make([]string, 0, len(props))
	for kind := range props {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		if kind != RequirementPlatform {
			return newError(CodeUnsupportedRequirement, "unrecognized requirement kind %q", kind).
				WithKey(kind)
		}

		min, ok := propVersion(props[kind])
		if !ok {
			return newError(CodeMalformed, "requirement %q needs a version string", kind).
				WithKey(kind)
		}
		reg.addRequirement(kind, min)

		ok, bypassed := version.Satisfies(i.platformVersion, min)
		if bypassed {
			reg.developmentBypassed = true
			i.logger.Warn("skipping platform version check for development build",
				"plugin", reg.pluginName,
				"required", min)
			continue
		}
		if !ok {
			return newError(CodeVersionTooOld,
				"platform version %s is older than required %s", i.platformVersion, min)
		}
	}

	return nil
}

// execAction establishes the entity context. The argument is either a
// bare action name or a map with name and an optional description.
func (i *Interpreter) execAction(reg *Registry, arg *yaml.Node) (*Entity, error) {
	if arg.Kind == yaml.ScalarNode {
		if arg.Value == "" {
			return nil, newError(CodeMalformed, "action needs a name")
		}
		return reg.declareEntity(arg.Value, ""), nil
	}

	props, err := decodeProps("action", arg)
	if err != nil {
		return nil, err
	}

	name, ok := propString(props, "name")
	if !ok || name == "" {
		return nil, newError(CodeMalformed, "action needs a name").WithKey("name")
	}
	description, _ := propString(props, "description")

	return reg.declareEntity(name, description), nil
}

func (i *Interpreter) execInput(current *Entity, arg *yaml.Node) error {
	if current == nil {
		return newError(CodeMalformed, "input declared outside an action context")
	}

	props, err := decodeProps("input", arg)
	if err != nil {
		return err
	}

	in := Input{}
	for _, field := range []struct {
		key string
		dst *string
	}{
		{"name", &in.Name},
		{"prompt", &in.Prompt},
		{"description", &in.Description},
		{"type", &in.Type},
	} {
		key, dst := field.key, field.dst
		if _, present := props[key]; !present {
			return newError(CodeMalformed, "input missing required property %q", key).WithKey(key)
		}
		s, ok := propString(props, key)
		if !ok {
			return newError(CodeMalformed, "input property %q must be a string", key).WithKey(key)
		}
		*dst = s
	}

	if !i.validators.Has(in.Type) {
		return newError(CodeValidatorNotFound, "no validator registered for type %q", in.Type).
			WithKey(in.Name)
	}

	switch in.Type {
	case "string":
		validation, ok := propString(props, "validation")
		if !ok {
			return newError(CodeMalformed,
				"string input %q requires a validation rule", in.Name).WithKey("validation")
		}
		in.Validation = validation

		maxLength, ok := propInt(props, "maxlength")
		if !ok {
			return newError(CodeMalformed,
				"string input %q requires an integer maxlength", in.Name).WithKey("maxlength")
		}
		in.MaxLength = maxLength

	case "list":
		list, ok := propList(props, "list")
		if !ok {
			return newError(CodeMalformed,
				"list input %q requires the allowed values list", in.Name).WithKey("list")
		}
		in.List = list
	}

	optional, ok := propBool(props, "optional", false)
	if !ok {
		return newError(CodeMalformed, "input property %q must be a boolean", "optional").
			WithKey("optional")
	}
	in.Optional = optional
	in.Default = props["default"]

	current.addInput(&in)
	return nil
}

func (i *Interpreter) execOutput(current *Entity, arg *yaml.Node) error {
	if current == nil {
		return newError(CodeMalformed, "output declared outside an action context")
	}

	props, err := decodeProps("output", arg)
	if err != nil {
		return err
	}

	out := Output{}
	for _, field := range []struct {
		key string
		dst *string
	}{
		{"name", &out.Name},
		{"description", &out.Description},
		{"display_as", &out.DisplayAs},
	} {
		key, dst := field.key, field.dst
		if _, present := props[key]; !present {
			return newError(CodeMalformed, "output missing required property %q", key).WithKey(key)
		}
		s, ok := propString(props, key)
		if !ok {
			return newError(CodeMalformed, "output property %q must be a string", key).WithKey(key)
		}
		*dst = s
	}
	out.Default = props["default"]

	current.addOutput(&out)
	return nil
}

func (i *Interpreter) execUsage(reg *Registry, arg *yaml.Node) error {
	if arg.Kind != yaml.ScalarNode {
		return newError(CodeMalformed, "usage takes a text block")
	}
	reg.setUsage(arg.Value)
	return nil
}

// decodeProps decodes a primitive's argument node into a property map.
func decodeProps(primitive string, arg *yaml.Node) (map[string]any, error) {
	if arg.Kind != yaml.MappingNode {
		return nil, newError(CodeMalformed, "%s takes a property map", primitive)
	}

	var props map[string]any
	if err := arg.Decode(&props); err != nil {
		return nil, newError(CodeMalformed, "invalid %s properties", primitive).WithCause(err)
	}
	return props, nil
}
