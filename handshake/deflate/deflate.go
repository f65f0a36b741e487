// SPDX-License-Identifier: ice License 1.0

// Package deflate negotiates the `permessage-deflate` extension (RFC 7692) on top
// of the handshake core. The negotiated context handed to the framing layer is a
// wsflate.Parameters value. Compression is kept stateless: both sides always get
// no-context-takeover, window bits are capped through configuration.
package deflate

import (
	"strconv"
	"strings"

	"github.com/gobwas/ws/wsflate"

	appcfg "github.com/ice-blockchain/wshandshake/config"
	"github.com/ice-blockchain/wshandshake/handshake"
)

func New(applicationYAMLKey string) handshake.Negotiator {
	var cfg config
	appcfg.MustLoadFromKey(applicationYAMLKey, &cfg)

	return &negotiator{cfg: &cfg}
}

func (*negotiator) Name() string {
	return wsflate.ExtensionName
}

// Negotiate accepts the client's first permessage-deflate offer it can honor, or
// declines. Declining is silent: an unparsable offer never fails the handshake.
func (n *negotiator) Negotiate(req *handshake.Request) (*handshake.ExtensionResponse, any, bool) {
	if !n.cfg.Enabled {
		return nil, nil, false
	}
	offer := clientOffer(req)
	if offer == nil {
		return nil, nil, false
	}
	accepted, ok := n.accept(offer)
	if !ok {
		return nil, nil, false
	}

	return &handshake.ExtensionResponse{Name: wsflate.ExtensionName, Options: responseOptions(accepted)}, accepted, true
}

func clientOffer(req *handshake.Request) *handshake.ExtensionRequest {
	for _, ext := range req.Extensions {
		if strings.EqualFold(ext.Name, wsflate.ExtensionName) {
			return ext
		}
	}

	return nil
}

//nolint:gocognit // Option-by-option policy, best kept in one place.
func (n *negotiator) accept(offer *handshake.ExtensionRequest) (wsflate.Parameters, bool) {
	accepted := wsflate.Parameters{
		ServerNoContextTakeover: true,
		ClientNoContextTakeover: true,
	}
	for _, option := range offer.Options {
		switch option.Name {
		case optionServerNoContextTakeover, optionClientNoContextTakeover:
		case optionServerMaxWindowBits:
			bits, ok := windowBits(option.Value)
			if !ok {
				return accepted, false
			}
			accepted.ServerMaxWindowBits = n.capWindowBits(bits)
		case optionClientMaxWindowBits:
			if option.ClientAvailable {
				if limit := wsflate.WindowBits(n.cfg.MaxWindowBits); limit.Defined() && limit < maxWindowBits {
					accepted.ClientMaxWindowBits = limit
				}

				continue
			}
			bits, ok := windowBits(option.Value)
			if !ok {
				return accepted, false
			}
			accepted.ClientMaxWindowBits = n.capWindowBits(bits)
		default:
			return accepted, false
		}
	}

	return accepted, true
}

func (n *negotiator) capWindowBits(offered wsflate.WindowBits) wsflate.WindowBits {
	if limit := wsflate.WindowBits(n.cfg.MaxWindowBits); limit.Defined() && limit < offered {
		return limit
	}

	return offered
}

func windowBits(value string) (wsflate.WindowBits, bool) {
	bits, err := strconv.ParseUint(value, 10, 8)
	if err != nil || bits < minWindowBits || bits > maxWindowBits {
		return 0, false
	}

	return wsflate.WindowBits(bits), true
}

// responseOptions renders the accepted parameters through wsflate's canonical
// httphead option and converts them into server-selected handshake options.
func responseOptions(accepted wsflate.Parameters) []*handshake.ExtensionOption {
	var options []*handshake.ExtensionOption
	parameters := accepted.Option().Parameters
	parameters.ForEach(func(key, value []byte) bool {
		options = append(options, &handshake.ExtensionOption{Name: string(key), Value: string(value)})

		return true
	})

	return options
}
