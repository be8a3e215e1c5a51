// SPDX-License-Identifier: EPL-2.0

//go:build headless

package device

// New returns the headless backend.
func New() Backend {
	return Headless()
}
