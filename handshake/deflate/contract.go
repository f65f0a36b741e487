// SPDX-License-Identifier: ice License 1.0

package deflate

// Private API.

const (
	optionServerNoContextTakeover = "server_no_context_takeover"
	optionClientNoContextTakeover = "client_no_context_takeover"
	optionServerMaxWindowBits     = "server_max_window_bits"
	optionClientMaxWindowBits     = "client_max_window_bits"

	minWindowBits = 8
	maxWindowBits = 15
)

type (
	config struct {
		MaxWindowBits uint8 `yaml:"maxWindowBits"`
		Enabled       bool  `yaml:"enabled"`
	}
	negotiator struct {
		cfg *config
	}
)
