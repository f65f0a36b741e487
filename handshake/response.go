// SPDX-License-Identifier: ice License 1.0

package handshake

import (
	"crypto/sha1"
	"encoding/base64"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// AcceptKey derives the Sec-WebSocket-Accept value proving the server understood
// the client's Sec-WebSocket-Key: base64(sha1(key + RFC 6455 GUID)).
func AcceptKey(secWebSocketKey string) string {
	digest := sha1.Sum([]byte(secWebSocketKey + acceptKeyGUID)) //nolint:gosec // SHA-1 is mandated by RFC 6455, it is not used for security here.

	return base64.StdEncoding.EncodeToString(digest[:])
}

// writeRejection answers requests that are not websocket upgrades and closes the
// connection. The wire bytes are fixed, status line included.
func (h *handshaker) writeRejection() error {
	_, wErr := h.writer.WriteString(rejectionStatusLine + "\r\n\r\n")

	return multierror.Append(
		errors.Wrap(wErr, "failed to write rejection"),
		errors.Wrap(h.writer.Flush(), "failed to flush rejection"),
		errors.Wrap(h.conn.Close(), "failed to close rejected connection"),
	).ErrorOrNil()
}

// writeAcceptance serializes the 101 response. The connection stays open, handing
// it off to the framing layer is the caller's responsibility.
func (h *handshaker) writeAcceptance(req *Request, negotiated []*NegotiatedExtension) error {
	var resp strings.Builder
	resp.WriteString(acceptedStatusLine + "\r\n")
	resp.WriteString(headerUpgrade + ": " + upgradeValue + "\r\n")
	resp.WriteString(headerConnection + ": Upgrade\r\n")
	secKey, _ := req.Headers.Get(headerSecKey)
	resp.WriteString("Sec-WebSocket-Accept: " + AcceptKey(secKey) + "\r\n")
	if protocol, found := req.Headers.Get(headerSecProtocol); found {
		resp.WriteString(headerSecProtocol + ": " + protocol + "\r\n")
	}
	if extensionsValue := serializeExtensions(negotiated); extensionsValue != "" {
		resp.WriteString(headerSecExtension + ": " + extensionsValue + "\r\n")
	}
	resp.WriteString("\r\n")
	if _, err := h.writer.WriteString(resp.String()); err != nil {
		return errors.Wrap(err, "failed to write acceptance")
	}

	return errors.Wrap(h.writer.Flush(), "failed to flush acceptance")
}

// serializeExtensions renders the negotiated extensions as a single comma-separated
// `name[;opt[=value]...]` list. Only server-selected options are echoed, the ones
// the client listed as available stay implicit.
func serializeExtensions(negotiated []*NegotiatedExtension) string {
	entries := make([]string, 0, len(negotiated))
	for _, ext := range negotiated {
		if ext.Response == nil {
			continue
		}
		var entry strings.Builder
		entry.WriteString(ext.Response.Name)
		for _, option := range ext.Response.Options {
			if option.ClientAvailable {
				continue
			}
			entry.WriteString(";" + option.Name)
			if option.Value != "" {
				entry.WriteString("=" + option.Value)
			}
		}
		entries = append(entries, entry.String())
	}

	return strings.Join(entries, ",")
}
