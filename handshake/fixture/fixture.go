// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"context"
	"net"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/ice-blockchain/wshandshake/handshake"
	"github.com/ice-blockchain/wshandshake/log"
)

func NewTestServer(ctx context.Context, registry handshake.Registry) *TestServer {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Panic(errors.Wrap(err, "fixture: failed to listen"))
	}
	server := &TestServer{listener: listener, registry: registry, Addr: listener.Addr().String()}
	go server.acceptLoop(ctx)
	context.AfterFunc(ctx, func() {
		log.Error(server.Close(), "fixture: failed to close test server")
	})

	return server
}

func (s *TestServer) acceptLoop(ctx context.Context) {
	for ctx.Err() == nil {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.negotiate(conn)
	}
}

// negotiate runs a single-shot handshake. Fatal handshake errors leave the
// connection open by contract, so the acceptance layer closes it here.
func (s *TestServer) negotiate(conn net.Conn) {
	result, err := handshake.New(conn, s.registry).Upgrade()
	if err != nil {
		s.Failed.Add(1)
		log.Error(multierror.Append(
			errors.Wrap(err, "fixture: handshake failed"),
			errors.Wrap(conn.Close(), "fixture: failed to close failed connection"),
		).ErrorOrNil())

		return
	}
	if !result.Upgraded {
		s.Rejected.Add(1)

		return
	}
	s.Upgraded.Add(1)
	s.connsMx.Lock()
	s.conns = append(s.conns, conn)
	s.connsMx.Unlock()
}

func (s *TestServer) Close() error {
	err := multierror.Append(nil, errors.Wrap(s.listener.Close(), "fixture: failed to close listener"))
	s.connsMx.Lock()
	defer s.connsMx.Unlock()
	for _, conn := range s.conns {
		err = multierror.Append(err, errors.Wrap(conn.Close(), "fixture: failed to close upgraded connection"))
	}
	s.conns = nil

	return err.ErrorOrNil()
}
