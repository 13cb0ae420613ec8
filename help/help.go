// Package help renders human-readable help text from a loaded
// descriptor registry.
//
// The renderer consumes only the finished registry's metadata,
// entities and usage text; it never participates in loading. Template
// files live in a configured template directory and are selected by
// name, defaulting to "<plugin kind>-help.tmpl". Template authoring is
// a concern of the surrounding tooling.
package help

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/jeffmccune/marionette-collective/descriptor"
)

// RenderData is the input contract between a populated registry and a
// help template.
type RenderData struct {
	Metadata descriptor.Metadata
	Entities []*descriptor.Entity
	Usage    string
}

// DefaultTemplate returns the template name used for a plugin kind
// when the caller does not override it.
func DefaultTemplate(pluginKind string) string {
	return pluginKind + "-help.tmpl"
}

// Renderer renders registry help text through templates resolved
// relative to TemplateDir.
type Renderer struct {
	// TemplateDir is the directory help templates are resolved in.
	// Absolute template names bypass it.
	TemplateDir string
}

// Render produces help text for the registry. An empty templateName
// selects the default template for the registry's plugin kind.
func (r Renderer) Render(reg *descriptor.Registry, templateName string) (string, error) {
	if templateName == "" {
		templateName = DefaultTemplate(reg.PluginKind())
	}

	path := templateName
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.TemplateDir, templateName)
	}

	tmpl, err := template.ParseFiles(path)
	if err != nil {
		return "", fmt.Errorf("loading help template %q: %w", templateName, err)
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, RenderData{
		Metadata: reg.Metadata(),
		Entities: reg.Entities(),
		Usage:    reg.Usage(),
	}); err != nil {
		return "", fmt.Errorf("rendering help template %q: %w", templateName, err)
	}

	return out.String(), nil
}
