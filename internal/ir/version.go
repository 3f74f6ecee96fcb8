package ir

// Version constants for the canonical form and the module.
const (
	// CanonicalVersion is the version of the canonical node form. It matches
	// the suffix of DomainNode.
	CanonicalVersion = "1"

	// Version is the relaxir release.
	Version = "0.1.0"
)
