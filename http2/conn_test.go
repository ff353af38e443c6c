package http2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiateWithPeerSettings(t *testing.T) {
	s := NewConnState()
	assert.Equal(t, uint32(2), s.NextServerStreamID)

	peerFrame := AppendSettingsFrame(nil, nil, false) // empty SETTINGS, per S6

	resp, consumed, err := s.Negotiate(peerFrame)
	require.NoError(t, err)
	assert.Equal(t, len(peerFrame), consumed)

	hdr, err := ReadFrameHeader(resp)
	require.NoError(t, err)
	assert.Equal(t, FrameSettings, hdr.Type)
	assert.Equal(t, FlagAck, hdr.Flags)
}

func TestNegotiateRejectsNonSettings(t *testing.T) {
	s := NewConnState()
	badFrame := AppendGoAwayFrame(nil, 0, ErrNone)

	resp, _, err := s.Negotiate(badFrame)
	require.Error(t, err)

	hdr, herr := ReadFrameHeader(resp)
	require.NoError(t, herr)
	assert.Equal(t, FrameGoAway, hdr.Type)
}

func TestNegotiateIncompleteFrame(t *testing.T) {
	s := NewConnState()
	_, _, err := s.Negotiate([]byte{0x00, 0x00, 0x06, 0x04})
	assert.ErrorIs(t, err, ErrIncompleteFrame)
}

func TestAllocateStreamIDIsEvenAscending(t *testing.T) {
	s := NewConnState()
	assert.Equal(t, uint32(2), s.AllocateStreamID())
	assert.Equal(t, uint32(4), s.AllocateStreamID())
	assert.Equal(t, uint32(6), s.AllocateStreamID())
}

func TestInitialSettingsFrameCarriesDefaults(t *testing.T) {
	s := NewConnState()
	buf := s.InitialSettingsFrame()

	hdr, err := ReadFrameHeader(buf)
	require.NoError(t, err)
	settings, err := ParseSettingsPayload(buf[9 : 9+hdr.Length])
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}
