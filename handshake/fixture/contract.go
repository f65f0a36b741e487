// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/ice-blockchain/wshandshake/handshake"
)

// Public API.

type (
	// TestServer accepts raw TCP connections and runs one Handshaker per accepted
	// connection, standing in for the external acceptance layer the core expects.
	TestServer struct {
		listener net.Listener
		registry handshake.Registry
		Addr     string
		Upgraded atomic.Uint64
		Rejected atomic.Uint64
		Failed   atomic.Uint64
		connsMx  sync.Mutex
		conns    []net.Conn
	}
	// RawResponse is the decoded header block of a raw handshake exchange.
	RawResponse struct {
		Headers    map[string]string
		StatusLine string
	}
)
