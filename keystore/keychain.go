// SPDX-License-Identifier: GPL-3.0-or-later

package keystore

import (
	"fmt"
	"strings"
)

// Keychain is a dotted path of mapping keys from the root of the
// document, e.g. "components.nettask.source".
type Keychain []string

// ParseKeychain parses a dotted keychain string. The empty string denotes
// the root. Leading-dot variants (a keychain starting with ".", or
// containing an empty component from a doubled dot) are rejected.
func ParseKeychain(s string) (Keychain, error) {
	if s == "" {
		return Keychain{}, nil
	}
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("keystore: invalid keychain %q", s)
		}
	}
	return Keychain(parts), nil
}

// String renders the keychain back to its dotted form.
func (k Keychain) String() string {
	return strings.Join(k, ".")
}

// Ancestors returns the keychain's ancestors from the root down to k
// itself, inclusive: for "a.b.c" this is ["", "a", "a.b", "a.b.c"].
func (k Keychain) Ancestors() []Keychain {
	out := make([]Keychain, 0, len(k)+1)
	out = append(out, Keychain{})
	for i := range k {
		out = append(out, append(Keychain(nil), k[:i+1]...))
	}
	return out
}
