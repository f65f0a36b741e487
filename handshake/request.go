// SPDX-License-Identifier: ice License 1.0

package handshake

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/ice-blockchain/wshandshake/terror"
)

func (h *handshaker) readRequest() (*Request, error) {
	requestLine, err := h.readLine()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	req, err := parseRequestLine(requestLine)
	if err != nil {
		return nil, err
	}
	req.Headers, err = h.readHeaders()
	if err != nil {
		return nil, err
	}
	if cookieValue, found := req.Headers.Get(headerCookie); found {
		if cookies, cErr := http.ParseCookie(cookieValue); cErr == nil {
			req.Cookies = cookies
		}
	}
	if extensionValue, found := req.Headers.Get(headerSecExtension); found {
		req.Extensions, err = parseExtensionHeader(extensionValue)
		if err != nil {
			return nil, err
		}
	}

	return req, nil
}

// parseRequestLine expects `GET <relative-uri> HTTP/1.x`, split on single spaces.
// The version is HTTP/1.1 iff the last token ends in "1.1", anything else maps to HTTP/1.0.
func parseRequestLine(line string) (*Request, error) {
	if line == "" || !strings.HasPrefix(line, "GET") {
		return nil, terror.New(ErrMalformedRequest, map[string]any{"requestLine": line})
	}
	tokens := strings.Split(line, " ")
	if len(tokens) != requestLineTokens {
		return nil, terror.New(ErrMalformedRequest, map[string]any{"requestLine": line})
	}
	uri, err := url.Parse(tokens[1])
	if err != nil {
		return nil, terror.New(errors.Wrapf(ErrMalformedRequest, "invalid request uri: %v", err.Error()), map[string]any{"requestLine": line})
	}
	version := HTTP10
	if strings.HasSuffix(tokens[2], "1.1") {
		version = HTTP11
	}

	return &Request{URI: uri, Version: version}, nil
}

// readHeaders consumes header lines until a blank line or stream end. Each line is
// split at the first colon and the value starts two characters after it (the strict
// `key: value` format). Lines without a colon are skipped.
func (h *handshaker) readHeaders() (*Headers, error) {
	headers := newHeaders()
	for {
		line, err := h.readLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		streamEnded := errors.Is(err, io.EOF)
		if line == "" {
			break
		}
		if colon := strings.Index(line, ":"); colon >= 0 {
			value := ""
			if colon+2 <= len(line) {
				value = line[colon+2:]
			}
			if aErr := headers.add(line[:colon], value); aErr != nil {
				return nil, aErr
			}
		}
		if streamEnded {
			break
		}
	}

	return headers, nil
}

func (h *handshaker) readLine() (string, error) {
	line, err := h.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "failed to read line")
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if err != nil {
		return line, io.EOF
	}

	return line, nil
}

func newHeaders() *Headers {
	return &Headers{values: make(map[string]string)}
}

func (h *Headers) add(key, value string) error {
	lowered := strings.ToLower(key)
	if _, found := h.values[lowered]; found {
		return terror.New(ErrDuplicateHeader, map[string]any{"header": key})
	}
	h.values[lowered] = value
	h.keys = append(h.keys, key)

	return nil
}

func (h *Headers) Get(key string) (string, bool) {
	value, found := h.values[strings.ToLower(key)]

	return value, found
}

func (h *Headers) Has(key string) bool {
	_, found := h.values[strings.ToLower(key)]

	return found
}

// Keys returns the header names in insertion order, with original casing.
func (h *Headers) Keys() []string {
	return h.keys
}

func (h *Headers) Len() int {
	return len(h.keys)
}
