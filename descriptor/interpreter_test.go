package descriptor

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const packageDDL = `- metadata:
    name: package
    description: Install and uninstall software packages
    author: R.I. Pienaar
    license: ASL-2.0
    version: "4.4"
    url: https://docs.example.net
    timeout: 180
- action:
    name: install
    description: Install a package
- input:
    name: package
    prompt: Package Name
    description: The package to install
    type: string
    validation: '^[a-zA-Z0-9_.:-]+$'
    maxlength: 90
- input:
    name: ensure
    prompt: Ensure
    description: The desired state of the package
    type: list
    list: [installed, absent]
    optional: true
    default: installed
- output:
    name: status
    description: The status of the package
    display_as: Package Status
    default: unknown
- action: uninstall
- input:
    name: package
    prompt: Package Name
    description: The package to uninstall
    type: string
    validation: shellsafe
    maxlength: 90
- usage: |
    mco rpc package install package=vim
`

// writeDDL places a descriptor under the canonical search-path layout
// and returns its path.
func writeDDL(t *testing.T, root, kind, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, Namespace, kind)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name+Extension)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWellFormed(t *testing.T) {
	root := t.TempDir()
	path := writeDDL(t, root, "agent", "package", packageDDL)

	reg, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, reg)

	assert.Equal(t, "package", reg.PluginName())
	assert.Equal(t, "agent", reg.PluginKind())
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", reg.ID().String())

	meta := reg.Metadata()
	assert.Equal(t, "package", meta.Name)
	assert.Equal(t, "Install and uninstall software packages", meta.Description)
	assert.Equal(t, "R.I. Pienaar", meta.Author)
	assert.Equal(t, "ASL-2.0", meta.License)
	assert.Equal(t, "4.4", meta.Version)
	assert.Equal(t, "https://docs.example.net", meta.URL)
	assert.Equal(t, 180*time.Second, meta.Timeout)

	require.Equal(t, []string{"install", "uninstall"}, reg.EntityNames())

	install, ok := reg.Entity("install")
	require.True(t, ok)
	assert.Equal(t, "Install a package", install.Description())

	inputs := install.Inputs()
	require.Len(t, inputs, 2)
	assert.Equal(t, "package", inputs[0].Name)
	assert.Equal(t, "string", inputs[0].Type)
	assert.Equal(t, `^[a-zA-Z0-9_.:-]+$`, inputs[0].Validation)
	assert.Equal(t, 90, inputs[0].MaxLength)
	assert.False(t, inputs[0].Optional)

	assert.Equal(t, "ensure", inputs[1].Name)
	assert.Equal(t, "list", inputs[1].Type)
	assert.Equal(t, []any{"installed", "absent"}, inputs[1].List)
	assert.True(t, inputs[1].Optional)
	assert.Equal(t, "installed", inputs[1].Default)

	outputs := install.Outputs()
	require.Len(t, outputs, 1)
	assert.Equal(t, "status", outputs[0].Name)
	assert.Equal(t, "Package Status", outputs[0].DisplayAs)
	assert.Equal(t, "unknown", outputs[0].Default)

	assert.Contains(t, reg.Usage(), "mco rpc package install")
	assert.False(t, reg.DevelopmentBypassed())
}

func TestLoadMissingMetadataKey(t *testing.T) {
	fields := map[string]any{
		"name":        "package",
		"description": "desc",
		"author":      "author",
		"license":     "ASL-2.0",
		"version":     "1.0",
		"url":         "https://example.net",
		"timeout":     10,
	}

	for _, missing := range requiredMetadataKeys {
		t.Run(missing, func(t *testing.T) {
			partial := make(map[string]any, len(fields)-1)
			for k, v := range fields {
				if k != missing {
					partial[k] = v
				}
			}
			data, err := yaml.Marshal([]map[string]any{{"metadata": partial}})
			require.NoError(t, err)

			path := writeDDL(t, t.TempDir(), "agent", "package", string(data))
			reg, err := New().Load(context.Background(), path)

			assert.Nil(t, reg)
			var derr *Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, CodeMalformed, derr.Code)
			assert.Equal(t, missing, derr.Key)
		})
	}
}

func TestLoadInputOutsideAction(t *testing.T) {
	ddl := `- metadata:
    name: p
    description: d
    author: a
    license: l
    version: "1.0"
    url: u
    timeout: 10
- input:
    name: package
    prompt: Package
    description: The package
    type: string
    validation: '.*'
    maxlength: 90
`
	path := writeDDL(t, t.TempDir(), "agent", "p", ddl)
	reg, err := New().Load(context.Background(), path)

	assert.Nil(t, reg)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, CodeMalformed, derr.Code)
	assert.Contains(t, derr.Message, "outside an action context")
}

func TestLoadOutputOutsideAction(t *testing.T) {
	ddl := `- output:
    name: status
    description: The status
    display_as: Status
`
	path := writeDDL(t, t.TempDir(), "agent", "p", ddl)
	_, err := New().Load(context.Background(), path)

	require.ErrorIs(t, err, &Error{Code: CodeMalformed})
}

func TestLoadUnknownPrimitive(t *testing.T) {
	path := writeDDL(t, t.TempDir(), "agent", "p", "- shell: rm -rf /\n")
	_, err := New().Load(context.Background(), path)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, CodeMalformed, derr.Code)
	assert.Contains(t, derr.Message, `unknown primitive "shell"`)
}

func TestLoadStringInputMissingTypeFields(t *testing.T) {
	base := `- action: install
- input:
    name: package
    prompt: Package
    description: The package
    type: string
`
	tests := []struct {
		name    string
		extra   string
		wantKey string
	}{
		{name: "missing validation", extra: "    maxlength: 90\n", wantKey: "validation"},
		{name: "missing maxlength", extra: "    validation: '.*'\n", wantKey: "maxlength"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDDL(t, t.TempDir(), "agent", "p", base+tt.extra)
			_, err := New().Load(context.Background(), path)

			var derr *Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, CodeMalformed, derr.Code)
			assert.Equal(t, tt.wantKey, derr.Key)
		})
	}
}

func TestLoadListInputMissingList(t *testing.T) {
	ddl := `- action: install
- input:
    name: ensure
    prompt: Ensure
    description: Desired state
    type: list
`
	path := writeDDL(t, t.TempDir(), "agent", "p", ddl)
	_, err := New().Load(context.Background(), path)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, CodeMalformed, derr.Code)
	assert.Equal(t, "list", derr.Key)
}

func TestLoadUnknownInputType(t *testing.T) {
	ddl := `- action: install
- input:
    name: thing
    prompt: Thing
    description: A thing
    type: quaternion
`
	path := writeDDL(t, t.TempDir(), "agent", "p", ddl)
	_, err := New().Load(context.Background(), path)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, CodeValidatorNotFound, derr.Code)
}

func TestLoadRequiresUnknownKind(t *testing.T) {
	ddl := `- requires:
    kernel: "5.0"
`
	path := writeDDL(t, t.TempDir(), "agent", "p", ddl)
	_, err := New().Load(context.Background(), path)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, CodeUnsupportedRequirement, derr.Code)
	assert.Equal(t, "kernel", derr.Key)
}

func TestLoadRequiresVersionTooOld(t *testing.T) {
	ddl := `- requires:
    platform: 9.9.9
`
	path := writeDDL(t, t.TempDir(), "agent", "p", ddl)
	interp := New(WithPlatformVersion("1.0.0"))
	reg, err := interp.Load(context.Background(), path)

	assert.Nil(t, reg)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, CodeVersionTooOld, derr.Code)
}

func TestLoadRequiresSatisfied(t *testing.T) {
	ddl := `- metadata:
    name: p
    description: d
    author: a
    license: l
    version: "1.0"
    url: u
    timeout: 10
- requires:
    platform: 2.2.1
`
	path := writeDDL(t, t.TempDir(), "agent", "p", ddl)
	reg, err := New(WithPlatformVersion("2.3.0")).Load(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, map[string]string{RequirementPlatform: "2.2.1"}, reg.Requirements())
	assert.False(t, reg.DevelopmentBypassed())
}

func TestLoadRequiresDevelopmentBypass(t *testing.T) {
	ddl := `- metadata:
    name: p
    description: d
    author: a
    license: l
    version: "1.0"
    url: u
    timeout: 10
- requires:
    platform: 9.9.9
`
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	path := writeDDL(t, t.TempDir(), "agent", "p", ddl)
	reg, err := New(WithLogger(logger)).Load(context.Background(), path)

	require.NoError(t, err)
	assert.True(t, reg.DevelopmentBypassed())
	assert.Contains(t, logs.String(), "development build")
}

func TestLoadFailsMidDocumentBeforeLaterStatements(t *testing.T) {
	// The requires check aborts the load before the action statement
	// is ever reached; no partial registry escapes.
	ddl := `- metadata:
    name: p
    description: d
    author: a
    license: l
    version: "1.0"
    url: u
    timeout: 10
- requires:
    platform: 9.9.9
- action: install
`
	path := writeDDL(t, t.TempDir(), "agent", "p", ddl)
	reg, err := New(WithPlatformVersion("1.0.0")).Load(context.Background(), path)

	assert.Nil(t, reg)
	require.ErrorIs(t, err, &Error{Code: CodeVersionTooOld})
}

func TestLoadMetadataImmutable(t *testing.T) {
	ddl := `- metadata:
    name: p
    description: d
    author: a
    license: l
    version: "1.0"
    url: u
    timeout: 10
- metadata:
    name: q
    description: d
    author: a
    license: l
    version: "1.0"
    url: u
    timeout: 10
`
	path := writeDDL(t, t.TempDir(), "agent", "p", ddl)
	_, err := New().Load(context.Background(), path)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, CodeMalformed, derr.Code)
	assert.Contains(t, derr.Message, "metadata already declared")
}

func TestLoadWithoutMetadata(t *testing.T) {
	path := writeDDL(t, t.TempDir(), "agent", "p", "- action: install\n")
	_, err := New().Load(context.Background(), path)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, CodeMalformed, derr.Code)
	assert.Contains(t, derr.Message, "no metadata")
}

func TestLoadActionContextResumes(t *testing.T) {
	ddl := `- metadata:
    name: p
    description: d
    author: a
    license: l
    version: "1.0"
    url: u
    timeout: 10
- action: install
- input:
    name: first
    prompt: First
    description: First input
    type: boolean
- action: install
- input:
    name: second
    prompt: Second
    description: Second input
    type: boolean
`
	path := writeDDL(t, t.TempDir(), "agent", "p", ddl)
	reg, err := New().Load(context.Background(), path)

	require.NoError(t, err)
	require.Equal(t, []string{"install"}, reg.EntityNames())

	install, _ := reg.Entity("install")
	inputs := install.Inputs()
	require.Len(t, inputs, 2)
	assert.Equal(t, "first", inputs[0].Name)
	assert.Equal(t, "second", inputs[1].Name)
}

func TestLoadUsageOverwrites(t *testing.T) {
	ddl := `- metadata:
    name: p
    description: d
    author: a
    license: l
    version: "1.0"
    url: u
    timeout: 10
- usage: first text
- usage: second text
`
	path := writeDDL(t, t.TempDir(), "agent", "p", ddl)
	reg, err := New().Load(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "second text", reg.Usage())
}

func TestLoadNotYAML(t *testing.T) {
	path := writeDDL(t, t.TempDir(), "agent", "p", "\t{not yaml")
	_, err := New().Load(context.Background(), path)

	require.ErrorIs(t, err, &Error{Code: CodeParseError})
}

func TestLoadNotASequence(t *testing.T) {
	path := writeDDL(t, t.TempDir(), "agent", "p", "metadata:\n  name: p\n")
	_, err := New().Load(context.Background(), path)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, CodeParseError, derr.Code)
	assert.Contains(t, derr.Message, "sequence")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New().Load(context.Background(), filepath.Join(t.TempDir(), "mcollective", "agent", "nope.ddl"))
	require.ErrorIs(t, err, &Error{Code: CodeNotFound})
}

func TestRoundTripLoadsAreIndependent(t *testing.T) {
	root := t.TempDir()
	path := writeDDL(t, root, "agent", "package", packageDDL)
	interp := New()

	first, err := interp.Load(context.Background(), path)
	require.NoError(t, err)
	second, err := interp.Load(context.Background(), path)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, first.Metadata(), second.Metadata())
	assert.Equal(t, first.EntityNames(), second.EntityNames())
	assert.Equal(t, first.Usage(), second.Usage())
	assert.Equal(t, first.Requirements(), second.Requirements())

	for _, name := range first.EntityNames() {
		e1, _ := first.Entity(name)
		e2, _ := second.Entity(name)
		assert.Equal(t, e1.Inputs(), e2.Inputs())
		assert.Equal(t, e1.Outputs(), e2.Outputs())
	}
}

func TestLoadPlugin(t *testing.T) {
	root := t.TempDir()
	writeDDL(t, root, "agent", "package", packageDDL)

	reg, err := New().LoadPlugin(context.Background(), "package", "agent", []string{root})
	require.NoError(t, err)
	assert.Equal(t, "package", reg.PluginName())
	assert.Equal(t, "agent", reg.PluginKind())
}

func TestLoadPluginNotFound(t *testing.T) {
	_, err := New().LoadPlugin(context.Background(), "nope", "agent", []string{t.TempDir()})

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, CodeNotFound, derr.Code)
	assert.Equal(t, "nope", derr.Plugin)
	assert.Equal(t, "agent", derr.Kind)
}

func TestErrorMentionsPluginContext(t *testing.T) {
	path := writeDDL(t, t.TempDir(), "agent", "broken", "- shell: x\n")
	_, err := New().Load(context.Background(), path)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "broken", derr.Plugin)
	assert.Equal(t, "agent", derr.Kind)
	assert.True(t, strings.HasPrefix(derr.Error(), "ddl [MALFORMED_DESCRIPTOR] agent/broken"))
}
