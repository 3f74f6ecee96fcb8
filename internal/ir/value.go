package ir

import (
	"slices"
	"unicode/utf16"
)

// canonValue is the sealed value tree nodes are lowered to before hashing.
// Only strings, integers, booleans, arrays and objects exist: floats are
// lowered to their shortest decimal string and absent values are omitted, so
// the canonical form never contains a JSON number with a fraction or a null.
type canonValue interface {
	canonValue()
}

type cString string

func (cString) canonValue() {}

type cInt int64

func (cInt) canonValue() {}

type cBool bool

func (cBool) canonValue() {}

type cArray []canonValue

func (cArray) canonValue() {}

type cObject map[string]canonValue

func (cObject) canonValue() {}

// sortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's string comparison orders by UTF-8 bytes, which differs for
// characters outside the BMP.
func (obj cObject) sortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
