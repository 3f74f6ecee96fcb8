// Package schema describes the IR node vocabulary in CUE and checks the
// runtime type registry against it.
//
// The embedded nodes.cue lists every node kind with its parent and the fields
// it adds. The Go registrations in package ir and the schema are maintained
// separately; Verify reports every place they disagree, and the local engine
// refuses to start when they do.
package schema
