package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/relaxir/internal/runtime"
)

// DomainNode prefixes every node fingerprint. The version suffix leaves room
// for a future change of the canonical form.
const DomainNode = "relaxir/node/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex. The separator
// keeps domain and data from running into each other.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Canonical returns the canonical JSON form of a node tree. Spans and name
// hints are left out; identities are numbered by first occurrence.
func Canonical(obj runtime.Object) ([]byte, error) {
	v, err := newLowering().lower(obj)
	if err != nil {
		return nil, err
	}
	return marshalCanonical(v)
}

// Fingerprint computes the structural hash of a node tree. Alpha-equivalent
// trees (same structure, same sharing of variables, any names) have the same
// fingerprint; two distinct variables inside one tree never collide.
func Fingerprint(obj runtime.Object) (string, error) {
	data, err := Canonical(obj)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", runtime.TypeOf(obj), err)
	}
	return hashWithDomain(DomainNode, data), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the tree is known to be fingerprintable.
func MustFingerprint(obj runtime.Object) string {
	fp, err := Fingerprint(obj)
	if err != nil {
		panic(err)
	}
	return fp
}

// StructuralEqual reports whether a and b have the same fingerprint. Trees
// that cannot be fingerprinted are equal only if they are the same object.
func StructuralEqual(a, b runtime.Object) bool {
	if runtime.Same(a, b) {
		return true
	}
	fa, err := Fingerprint(a)
	if err != nil {
		return false
	}
	fb, err := Fingerprint(b)
	if err != nil {
		return false
	}
	return fa == fb
}
