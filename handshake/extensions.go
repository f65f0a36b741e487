// SPDX-License-Identifier: ice License 1.0

package handshake

import (
	"strings"

	"github.com/ice-blockchain/wshandshake/terror"
)

// parseExtensionHeader parses `ext1;opt1;opt2=val,ext2;...` into the ordered
// extension request list, preserving client order.
func parseExtensionHeader(value string) ([]*ExtensionRequest, error) {
	entries := splitNonEmpty(value, ",")
	if strings.Contains(value, ",") && len(entries) < 2 {
		return nil, terror.New(ErrMalformedExtensionHeader, map[string]any{"header": value})
	}
	extensions := make([]*ExtensionRequest, 0, len(entries))
	for _, entry := range entries {
		ext, err := parseExtensionEntry(entry)
		if err != nil {
			return nil, err
		}
		extensions = append(extensions, ext)
	}
	if len(extensions) == 0 {
		return nil, nil
	}

	return extensions, nil
}

func parseExtensionEntry(entry string) (*ExtensionRequest, error) {
	tokens := strings.Split(entry, ";")
	ext := &ExtensionRequest{Name: strings.TrimSpace(tokens[0])}
	for _, token := range tokens[1:] {
		option, err := parseExtensionOption(strings.TrimSpace(token))
		if err != nil {
			return nil, terror.New(err, map[string]any{"extension": entry})
		}
		ext.Options = append(ext.Options, option)
	}

	return ext, nil
}

// parseExtensionOption splits a single option token on `=`. A bare token is an
// option the client may also apply, a `name=value` pair is an explicit value,
// anything with more than one `=` is malformed.
func parseExtensionOption(token string) (*ExtensionOption, error) {
	parts := strings.Split(token, "=")
	switch len(parts) {
	case 1:
		return &ExtensionOption{Name: parts[0], ClientAvailable: true}, nil
	case 2:
		return &ExtensionOption{Name: parts[0], Value: parts[1]}, nil
	default:
		return nil, ErrMalformedExtensionHeader
	}
}

func splitNonEmpty(value, separator string) []string {
	var result []string
	for _, token := range strings.Split(value, separator) {
		if strings.TrimSpace(token) != "" {
			result = append(result, token)
		}
	}

	return result
}
