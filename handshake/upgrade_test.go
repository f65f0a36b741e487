// SPDX-License-Identifier: ice License 1.0

package handshake_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	stdlibtime "time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ice-blockchain/wshandshake/handshake"
	"github.com/ice-blockchain/wshandshake/handshake/deflate"
	"github.com/ice-blockchain/wshandshake/handshake/fixture"
)

const testDeadline = 30 * stdlibtime.Second

func TestUpgradeOverTCPWithRealDialers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), testDeadline)
	defer cancel()
	srv := fixture.NewTestServer(ctx, handshake.NewRegistry(deflate.New("wshandshake/deflate")))
	url := fmt.Sprintf("ws://%v/chat", srv.Addr)

	t.Run("gobwas dialer", func(t *testing.T) {
		require.NoError(t, fixture.DialGobwas(ctx, url))
	})
	t.Run("gorilla dialer with compression", func(t *testing.T) {
		negotiated, err := fixture.DialGorilla(ctx, url)
		require.NoError(t, err)
		assert.Contains(t, negotiated, "permessage-deflate")
		assert.Contains(t, negotiated, "server_no_context_takeover")
		assert.Contains(t, negotiated, "client_no_context_takeover")
	})
	t.Run("concurrent dialers", func(t *testing.T) {
		const conns = 50
		var wg sync.WaitGroup
		for range conns {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, fixture.DialGobwas(ctx, url))
			}()
		}
		wg.Wait()
	})

	require.Eventually(t, func() bool {
		return srv.Upgraded.Load() >= 52
	}, testDeadline, 50*stdlibtime.Millisecond)
	assert.Zero(t, srv.Failed.Load())
}

func TestUpgradeOverTCPRawWire(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), testDeadline)
	defer cancel()
	srv := fixture.NewTestServer(ctx, nil)

	key := fixture.NewSecWebSocketKey()
	resp, err := fixture.SendRaw(ctx, srv.Addr, "GET /chat HTTP/1.1\r\n"+
		"Host: localhost\r\n"+
		"Upgrade: websocket\r\n"+
		"Connection: Upgrade\r\n"+
		"Sec-WebSocket-Key: "+key+"\r\n"+
		"Sec-WebSocket-Version: 13\r\n\r\n")
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 101 Switching Protocols", resp.StatusLine)
	assert.Equal(t, handshake.AcceptKey(key), resp.Headers["Sec-WebSocket-Accept"])
	assert.Equal(t, "websocket", resp.Headers["Upgrade"])
	assert.Equal(t, "Upgrade", resp.Headers["Connection"])

	resp, err = fixture.SendRaw(ctx, srv.Addr, "GET /not-websocket HTTP/1.1\r\nHost: localhost\r\n\r\n")
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 404 Bad Request", resp.StatusLine)
	assert.Empty(t, resp.Headers)

	require.Eventually(t, func() bool {
		return srv.Upgraded.Load() == 1 && srv.Rejected.Load() == 1
	}, testDeadline, 50*stdlibtime.Millisecond)
}
