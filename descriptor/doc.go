// Package descriptor loads DDL files, the declarative descriptors that
// register a plugin's metadata, actions, input/output contracts and
// platform version requirements.
//
// A DDL file is a YAML sequence of statements, each invoking one of the
// six registration primitives: metadata, requires, action, input,
// output and usage. The Interpreter executes the statements strictly in
// document order against a fresh Registry; the file has no access to
// anything beyond those primitives, which keeps descriptors safe to
// load from third-party plugin directories.
//
//	- metadata:
//	    name: package
//	    description: Install and uninstall software packages
//	    author: R.I. Pienaar
//	    license: ASL-2.0
//	    version: "4.4"
//	    url: https://docs.example.net
//	    timeout: 180
//	- action: install
//	- input:
//	    name: package
//	    prompt: Package Name
//	    description: The package to install
//	    type: string
//	    validation: '^[a-zA-Z0-9_.:-]+$'
//	    maxlength: 90
//
// Loading is fail-fast: the first statement that violates a primitive
// contract aborts the load with a structured *Error and no partial
// Registry is ever returned. A Registry that Load does return is
// complete, read-only, and safe for unsynchronized concurrent reads.
//
// The ArgumentValidator checks caller-supplied argument values against
// a loaded Registry's declared inputs before they reach plugin code.
package descriptor
