// SPDX-License-Identifier: ice License 1.0

package handshake

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/ice-blockchain/wshandshake/log"
)

func New(conn io.ReadWriteCloser, reg Registry) Handshaker {
	if reg == nil {
		reg = NewRegistry()
	}

	return &handshaker{
		conn:     conn,
		registry: reg,
		reader:   bufio.NewReader(conn),
		writer:   bufio.NewWriter(conn),
	}
}

func NewRegistry(negotiators ...Negotiator) Registry {
	byName := make(map[string]Negotiator, len(negotiators))
	for _, negotiator := range negotiators {
		name := strings.ToLower(negotiator.Name())
		if _, found := byName[name]; found {
			log.Panic(errors.Errorf("ambiguous registration for extension %q", negotiator.Name()))
		}
		byName[name] = negotiator
	}

	return &registry{negotiators: byName}
}

func (r *registry) Find(name string) Negotiator {
	return r.negotiators[strings.ToLower(name)]
}

// Upgrade runs the linear, single-pass handshake: read request, validate,
// negotiate extensions, write the response. Parse failures propagate with no
// response written, so the caller owns closing the connection in that case.
// A structurally valid request that is not a websocket upgrade is not an error,
// it is answered with the rejection response and the connection is closed.
func (h *handshaker) Upgrade() (*Result, error) {
	req, err := h.readRequest()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read upgrade request")
	}
	if !isWebSocketRequest(req.Headers) {
		log.Debug("rejecting non-websocket request", "uri", req.URI.String())
		if wErr := h.writeRejection(); wErr != nil {
			return nil, errors.Wrap(wErr, "failed to write rejection response")
		}

		return &Result{Upgraded: false}, nil
	}
	negotiated := h.negotiateExtensions(req)
	if wErr := h.writeAcceptance(req, negotiated); wErr != nil {
		return nil, errors.Wrap(wErr, "failed to write acceptance response")
	}

	return &Result{Upgraded: true, Request: req, Extensions: negotiated}, nil
}

// isWebSocketRequest reports whether the required upgrade header set is complete.
// It is a routing predicate, not a validator: incomplete header sets route to the
// rejection response.
func isWebSocketRequest(headers *Headers) bool {
	if !headers.Has(headerHost) || !headers.Has(headerConnection) {
		return false
	}
	if upgrade, found := headers.Get(headerUpgrade); !found || !strings.EqualFold(upgrade, upgradeValue) {
		return false
	}
	if key, found := headers.Get(headerSecKey); !found || strings.TrimSpace(key) == "" {
		return false
	}
	version, found := headers.Get(headerSecVersion)

	return found && version == supportedWSVersion
}

// negotiateExtensions asks the registry match of every requested extension to
// negotiate, preserving client order. Unknown extensions and declined
// negotiations are dropped silently.
func (h *handshaker) negotiateExtensions(req *Request) []*NegotiatedExtension {
	var negotiated []*NegotiatedExtension
	for _, ext := range req.Extensions {
		negotiator := h.registry.Find(ext.Name)
		if negotiator == nil {
			continue
		}
		resp, negotiatedCtx, ok := negotiator.Negotiate(req)
		if !ok || resp == nil {
			continue
		}
		negotiated = append(negotiated, &NegotiatedExtension{Response: resp, Context: negotiatedCtx})
	}

	return negotiated
}
