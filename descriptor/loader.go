package descriptor

import (
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// Namespace is the directory under each search root that holds
	// descriptor files, grouped by plugin kind.
	Namespace = "mcollective"

	// Extension is the descriptor file extension.
	Extension = ".ddl"
)

// Loader locates descriptor files across an ordered list of search
// roots. The zero value is usable and logs through slog.Default().
type Loader struct {
	// Logger receives a debug line for every probed candidate path.
	Logger *slog.Logger
}

// Find returns the path of the descriptor for the named plugin,
// probing `<root>/mcollective/<kind>/<name>.ddl` under each search
// root in order and returning the first that exists.
//
// When no root has a matching file, Find returns a *Error with
// CodeNotFound identifying the plugin kind and name.
func (l Loader) Find(pluginName, pluginKind string, searchRoots []string) (string, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for _, root := range searchRoots {
		candidate := filepath.Join(root, Namespace, pluginKind, pluginName+Extension)
		logger.Debug("probing for descriptor",
			"plugin", pluginName,
			"kind", pluginKind,
			"path", candidate)

		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", newError(CodeNotFound, "no descriptor found for %s plugin %q", pluginKind, pluginName).
		WithPlugin(pluginName, pluginKind)
}

// Find locates a descriptor with a zero-value Loader.
// See Loader.Find.
func Find(pluginName, pluginKind string, searchRoots []string) (string, error) {
	return Loader{}.Find(pluginName, pluginKind, searchRoots)
}
