package handshake

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectSubprotocol(t *testing.T) {
	supported := []string{"notify.v1", "notify.v0"}

	assert.Equal(t, "notify.v1", SelectSubprotocol([]string{"notify.v1"}, supported))
	assert.Equal(t, "notify.v0", SelectSubprotocol([]string{"chat", "notify.v0", "notify.v1"}, supported))
	assert.Equal(t, "", SelectSubprotocol([]string{"chat"}, supported))
	assert.Equal(t, "", SelectSubprotocol(nil, supported))
	assert.Equal(t, "", SelectSubprotocol([]string{"notify.v1"}, nil))

	// matching is case-insensitive but the client's spelling is echoed back
	assert.Equal(t, "Notify.V1", SelectSubprotocol([]string{"Notify.V1"}, supported))
}

func TestParseProtocolHeader(t *testing.T) {
	h := http.Header{}
	h.Add("Sec-WebSocket-Protocol", "notify.v1, chat")
	h.Add("Sec-WebSocket-Protocol", "notify.v0")

	assert.Equal(t, []string{"notify.v1", "chat", "notify.v0"}, ParseProtocolHeader(h))
	assert.Nil(t, ParseProtocolHeader(http.Header{}))
}
