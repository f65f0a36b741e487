// SPDX-License-Identifier: ice License 1.0

package handshake

import (
	"bufio"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// Public API.

type (
	// Handshaker negotiates the RFC 6455 upgrade handshake on one accepted connection.
	// It consumes the connection's byte stream exactly once (read request, write response)
	// and must be discarded afterwards.
	Handshaker interface {
		Upgrade() (*Result, error)
	}
	// Request is the parsed representation of the incoming HTTP upgrade request.
	Request struct {
		URI        *url.URL
		Headers    *Headers
		Version    string
		Cookies    []*http.Cookie
		Extensions []*ExtensionRequest
	}
	// Headers is an ordered, case-insensitive header collection. Inserting the same
	// key twice fails, see ErrDuplicateHeader.
	Headers struct {
		values map[string]string
		keys   []string
	}
	ExtensionRequest struct {
		Name    string
		Options []*ExtensionOption
	}
	// ExtensionOption is a single `name` or `name=value` token of an extension entry.
	// ClientAvailable marks options the client listed bare, without an explicit value.
	ExtensionOption struct {
		Name            string
		Value           string
		ClientAvailable bool
	}
	ExtensionResponse struct {
		Name    string
		Options []*ExtensionOption
	}
	// NegotiatedExtension pairs the response descriptor an extension produced with the
	// opaque context the framing layer consumes after the handshake.
	NegotiatedExtension struct {
		Context  any
		Response *ExtensionResponse
	}
	Result struct {
		Request    *Request
		Extensions []*NegotiatedExtension
		Upgraded   bool
	}
	// Negotiator is a pluggable extension implementation. Negotiate either declines
	// (ok == false) or yields the response descriptor plus the negotiated context.
	Negotiator interface {
		Name() string
		Negotiate(req *Request) (resp *ExtensionResponse, negotiatedCtx any, ok bool)
	}
	// Registry is the read-only collection of known extension negotiators,
	// safely shared between concurrent handshakes. Find is case-insensitive and
	// returns nil when the name is unknown.
	Registry interface {
		Find(name string) Negotiator
	}
)

const (
	HTTP10 = "HTTP/1.0"
	HTTP11 = "HTTP/1.1"
)

var (
	ErrMalformedRequest         = errors.New("malformed request")
	ErrMalformedExtensionHeader = errors.New("malformed extension header")
	ErrDuplicateHeader          = errors.New("duplicate header")
)

// Private API.

const (
	acceptKeyGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

	headerHost         = "Host"
	headerUpgrade      = "Upgrade"
	headerConnection   = "Connection"
	headerCookie       = "Cookie"
	headerSecKey       = "Sec-WebSocket-Key"
	headerSecVersion   = "Sec-WebSocket-Version"
	headerSecProtocol  = "Sec-WebSocket-Protocol"
	headerSecExtension = "Sec-WebSocket-Extensions"

	upgradeValue        = "websocket"
	supportedWSVersion  = "13"
	requestLineTokens   = 3
	rejectionStatusLine = "HTTP/1.1 404 Bad Request"
	acceptedStatusLine  = "HTTP/1.1 101 Switching Protocols"
)

type (
	handshaker struct {
		conn     io.ReadWriteCloser
		registry Registry
		reader   *bufio.Reader
		writer   *bufio.Writer
	}
	registry struct {
		negotiators map[string]Negotiator
	}
)
