package staticfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trivago/netrunner/httpmsg"
)

func TestServeDefaultFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Hi</h1>"), 0o644))

	s := New("/", dir, "")
	resp := &httpmsg.Response{}
	ok := s.Serve("/", resp)

	require.True(t, ok)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, []byte("<h1>Hi</h1>"), resp.Body)
	ct, _ := resp.Header("Content-Type")
	assert.Equal(t, "text/html", ct)
}

func TestServeNamedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	s := New("/assets", dir, "")
	resp := &httpmsg.Response{}
	ok := s.Serve("/assets/app.js", resp)

	require.True(t, ok)
	assert.Equal(t, 200, resp.Status)
	ct, _ := resp.Header("Content-Type")
	assert.Equal(t, "application/javascript", ct)
}

func TestServeTraversalBlocked(t *testing.T) {
	dir := t.TempDir()
	s := New("/", dir, "")
	resp := &httpmsg.Response{}
	ok := s.Serve("/../etc/passwd", resp)

	require.True(t, ok)
	assert.Equal(t, 403, resp.Status)
}

func TestServeMissingFile(t *testing.T) {
	dir := t.TempDir()
	s := New("/", dir, "")
	resp := &httpmsg.Response{}
	ok := s.Serve("/missing.txt", resp)

	require.True(t, ok)
	assert.Equal(t, 404, resp.Status)
}

func TestServeOversizeFile(t *testing.T) {
	dir := t.TempDir()
	big := make([]byte, MaxFileSize+1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.bin"), big, 0o644))

	s := New("/", dir, "")
	resp := &httpmsg.Response{}
	ok := s.Serve("/big.bin", resp)

	require.True(t, ok)
	assert.Equal(t, 500, resp.Status)
}

func TestServeOutsidePrefixNotHandled(t *testing.T) {
	dir := t.TempDir()
	s := New("/static", dir, "")
	resp := &httpmsg.Response{}
	ok := s.Serve("/api/status", resp)

	assert.False(t, ok)
}
