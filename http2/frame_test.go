package http2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPreface(t *testing.T) {
	assert.True(t, DetectPreface([]byte(Preface+"extra")))
	assert.False(t, DetectPreface([]byte("GET / HTTP/1.1\r\n\r\n")))
	assert.False(t, DetectPreface([]byte("short")))
}

func TestFrameHeaderRoundTrip(t *testing.T) {
	h := FrameHeader{Length: 42, Type: FrameHeaders, Flags: FlagEndHeaders, StreamID: 1}
	buf := AppendFrameHeader(nil, h)
	require.Len(t, buf, 9)

	got, err := ReadFrameHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestReadFrameHeaderShort(t *testing.T) {
	_, err := ReadFrameHeader([]byte{0x00, 0x00})
	assert.ErrorIs(t, err, ErrShortFrameHeader)
}

func TestSettingsFrameRoundTrip(t *testing.T) {
	buf := AppendSettingsFrame(nil, DefaultSettings(), false)

	hdr, err := ReadFrameHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, FrameSettings, hdr.Type)
	assert.Equal(t, byte(0), hdr.Flags)
	assert.Equal(t, uint32(len(DefaultSettings())*6), hdr.Length)

	settings, err := ParseSettingsPayload(buf[9:])
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestSettingsAckFrame(t *testing.T) {
	buf := AppendSettingsFrame(nil, nil, true)
	hdr, err := ReadFrameHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, FlagAck, hdr.Flags)
	assert.Equal(t, uint32(0), hdr.Length)
}

func TestGoAwayFrame(t *testing.T) {
	buf := AppendGoAwayFrame(nil, 7, ErrProtocolError)
	hdr, err := ReadFrameHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, FrameGoAway, hdr.Type)
	assert.Equal(t, uint32(8), hdr.Length)
}

func TestWindowUpdateFrame(t *testing.T) {
	buf := AppendWindowUpdateFrame(nil, 3, 65535)
	hdr, err := ReadFrameHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, FrameWindowUpdate, hdr.Type)
	assert.Equal(t, uint32(3), hdr.StreamID)
}
