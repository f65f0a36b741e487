// SPDX-License-Identifier: ice License 1.0

// Package terror carries typed errors together with a data payload describing
// the input that caused them.
package terror

type (
	Err struct {
		error
		Data map[string]any `json:"data"`
	}
)
