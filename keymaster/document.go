// SPDX-License-Identifier: GPL-3.0-or-later

package keymaster

import (
	"os"

	"github.com/nrao/matrix/keystore"
)

// LoadDocument reads and parses the YAML configuration file at path into
// a [keystore.Node]. [NewServer] callers
// typically pass the result straight through as the server's initial
// document.
func LoadDocument(path string) (keystore.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return keystore.Undefined(), err
	}
	return keystore.Unmarshal(data)
}
