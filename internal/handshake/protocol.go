package handshake

import (
	"net/http"
	"strings"
)

// ParseProtocolHeader returns the sub-protocols requested by the client in
// preference order.
func ParseProtocolHeader(h http.Header) []string {
	var requested []string
	for _, value := range h.Values("Sec-WebSocket-Protocol") {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				requested = append(requested, part)
			}
		}
	}
	return requested
}

// SelectSubprotocol picks the first client-requested sub-protocol the server
// also supports, preserving the client's preference order. Empty result means
// no mutually acceptable protocol; the upgrade proceeds without one.
func SelectSubprotocol(requested, supported []string) string {
	for _, proto := range requested {
		for _, s := range supported {
			if strings.EqualFold(proto, s) {
				return proto
			}
		}
	}
	return ""
}
