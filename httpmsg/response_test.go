package httpmsg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseSerialisation(t *testing.T) {
	r := NewResponse(200)
	r.Body = []byte(`{"status":"ok"}`)

	var buf strings.Builder
	_, err := r.WriteTo(&buf, "netrunner")
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n"))
	assert.Equal(t, 1, strings.Count(out, "\r\n\r\n"))
	assert.Contains(t, out, "Content-Length: 15\r\n")
	assert.True(t, strings.HasSuffix(out, `{"status":"ok"}`))
}

func TestResponseDefaultHeaders(t *testing.T) {
	r := NewResponse(204)

	out := r.Bytes("netrunner")
	s := string(out)
	assert.Contains(t, s, "Server: netrunner\r\n")
	assert.Contains(t, s, "Connection: close\r\n")
	assert.NotContains(t, s, "Content-Length")
}

func TestResponseHonoursHandlerHeaders(t *testing.T) {
	r := NewResponse(200)
	r.SetHeader("Server", "custom")
	r.SetHeader("Connection", "keep-alive")

	out := string(r.Bytes("netrunner"))
	assert.Contains(t, out, "Server: custom\r\n")
	assert.Contains(t, out, "Connection: keep-alive\r\n")
}

func TestResponseUnknownStatusPhrase(t *testing.T) {
	r := NewResponse(418)
	out := string(r.Bytes("netrunner"))
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 418 Unknown\r\n"))
}

func TestResponseExplicitStatusPhrase(t *testing.T) {
	r := NewResponse(200)
	r.StatusPhrase = "Super"
	out := string(r.Bytes("netrunner"))
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 200 Super\r\n"))
}
