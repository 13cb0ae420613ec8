// Package mcollective ties the descriptor subsystem together: it holds
// the process-wide host platform version and offers a convenience entry
// point that locates, loads and returns a plugin's descriptor registry.
//
// Hosts built from a release set their version once at startup:
//
//	mcollective.SetPlatformVersion("2.12.5")
//
// Descriptors that declare a platform requirement are checked against
// that value while they load. Hosts that never set a version run as
// development builds, which satisfy every requirement with a logged
// warning instead of failing.
//
// The heavy lifting lives in the subpackages:
//
//   - descriptor: the DDL loader, interpreter, registry data model and
//     argument validation
//   - validator: the named type validators and validation rules
//   - version: platform version comparison
//   - help: rendering help text from a loaded registry
package mcollective

import (
	"context"
	"sync"

	"github.com/jeffmccune/marionette-collective/descriptor"
	"github.com/jeffmccune/marionette-collective/version"
)

var (
	platformMu      sync.RWMutex
	platformVersion = version.Development
)

// PlatformVersion returns the host platform version used to evaluate
// descriptor requirements. It defaults to the development sentinel.
func PlatformVersion() string {
	platformMu.RLock()
	defer platformMu.RUnlock()
	return platformVersion
}

// SetPlatformVersion sets the host platform version.
// Release builds call this once during startup, before any descriptor
// loads; an empty value restores the development sentinel.
func SetPlatformVersion(v string) {
	platformMu.Lock()
	defer platformMu.Unlock()
	if v == "" {
		v = version.Development
	}
	platformVersion = v
}

// LoadDDL locates the descriptor for the named plugin across the
// search roots and loads it with the process-wide platform version.
// Additional options are applied after the version, so callers can
// still override it per load.
func LoadDDL(ctx context.Context, pluginName, pluginKind string, searchRoots []string, opts ...descriptor.Option) (*descriptor.Registry, error) {
	opts = append([]descriptor.Option{descriptor.WithPlatformVersion(PlatformVersion())}, opts...)
	return descriptor.New(opts...).LoadPlugin(ctx, pluginName, pluginKind, searchRoots)
}
