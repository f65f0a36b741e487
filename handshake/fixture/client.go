// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"bufio"
	"context"
	"encoding/base64"
	"io"
	"net"
	"strings"

	"github.com/gobwas/ws"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// SendRaw writes a literal, pre-formatted request to the server and decodes the
// response header block. It is the wire-level probe used to drive exact-format
// edge cases that real dialers never produce.
func SendRaw(ctx context.Context, addr, rawRequest string) (*RawResponse, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "raw client: failed to dial %v", addr)
	}
	defer func() {
		_ = conn.Close()
	}()
	if deadline, ok := ctx.Deadline(); ok {
		if dErr := conn.SetDeadline(deadline); dErr != nil {
			return nil, errors.Wrap(dErr, "raw client: failed to set deadline")
		}
	}
	if _, err = conn.Write([]byte(rawRequest)); err != nil {
		return nil, errors.Wrap(err, "raw client: failed to write request")
	}

	return readResponse(bufio.NewReader(conn))
}

func readResponse(reader *bufio.Reader) (*RawResponse, error) {
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		return nil, errors.Wrap(err, "raw client: failed to read status line")
	}
	resp := &RawResponse{StatusLine: strings.TrimRight(statusLine, "\r\n"), Headers: make(map[string]string)}
	for {
		line, rErr := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if rErr != nil && !errors.Is(rErr, io.EOF) {
				return nil, errors.Wrap(rErr, "raw client: failed to read header line")
			}

			return resp, nil
		}
		if key, value, found := strings.Cut(line, ": "); found {
			resp.Headers[key] = value
		}
	}
}

// DialGobwas completes a real handshake with gobwas/ws, which independently
// verifies the Sec-WebSocket-Accept value before returning.
func DialGobwas(ctx context.Context, url string) error {
	conn, _, _, err := ws.Dialer{}.Dial(ctx, url)
	if err != nil {
		return errors.Wrapf(err, "gobwas client: failed to dial %v", url)
	}

	return errors.Wrap(conn.Close(), "gobwas client: failed to close")
}

// DialGorilla completes a real handshake with gorilla/websocket, compression
// offered, and returns the Sec-WebSocket-Extensions value the server selected.
func DialGorilla(ctx context.Context, url string) (negotiatedExtensions string, err error) {
	dialer := websocket.Dialer{EnableCompression: true}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return "", errors.Wrapf(err, "gorilla client: failed to dial %v", url)
	}
	negotiatedExtensions = resp.Header.Get("Sec-WebSocket-Extensions")

	return negotiatedExtensions, multierror.Append(
		errors.Wrap(resp.Body.Close(), "gorilla client: failed to close response body"),
		errors.Wrap(conn.Close(), "gorilla client: failed to close"),
	).ErrorOrNil()
}

// NewSecWebSocketKey generates a fresh 16-byte, base64-encoded client key.
func NewSecWebSocketKey() string {
	key := uuid.New()

	return base64.StdEncoding.EncodeToString(key[:])
}
