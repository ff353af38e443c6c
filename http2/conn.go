package http2

import "errors"

// ErrIncompleteFrame is returned when fewer bytes are buffered than a
// frame's declared length requires.
var ErrIncompleteFrame = errors.New("http2: incomplete frame")

// ConnState tracks per-connection HTTP/2 state: whether the preface has
// been seen, the negotiated settings on each side, and stream-ID
// bookkeeping. Server-initiated stream IDs are even, starting at 2.
type ConnState struct {
	PrefaceReceived    bool
	LocalSettings      []Setting
	RemoteSettings     []Setting
	NextServerStreamID uint32
	LastPeerStreamID   uint32
}

// NewConnState creates HTTP/2 connection state with server stream IDs
// starting at 2, per spec.
func NewConnState() *ConnState {
	return &ConnState{
		LocalSettings:      DefaultSettings(),
		NextServerStreamID: 2,
	}
}

// AllocateStreamID returns the next server-initiated (even) stream ID and
// advances the counter.
func (s *ConnState) AllocateStreamID() uint32 {
	id := s.NextServerStreamID
	s.NextServerStreamID += 2
	return id
}

// InitialSettingsFrame returns the wire bytes of the server's initial
// SETTINGS frame, sent immediately once the preface is detected.
func (s *ConnState) InitialSettingsFrame() []byte {
	return AppendSettingsFrame(nil, s.LocalSettings, false)
}

// Negotiate consumes one frame from buf (the bytes immediately following
// the 24-byte preface) and, if it is the peer's non-ACK SETTINGS frame,
// returns the SETTINGS+ACK bytes to send back. Per the spec's single-
// exchange simplification this is the entirety of the HTTP/2 path: the
// reactor closes the connection once response has been written.
//
// Any other frame type, or a SETTINGS frame with the ACK flag already
// set, is a protocol error: Negotiate returns a GOAWAY frame as response
// and a non-nil error.
func (s *ConnState) Negotiate(buf []byte) (response []byte, consumed int, err error) {
	hdr, err := ReadFrameHeader(buf)
	if err != nil {
		return nil, 0, ErrIncompleteFrame
	}
	if len(buf) < 9+int(hdr.Length) {
		return nil, 0, ErrIncompleteFrame
	}
	payload := buf[9 : 9+int(hdr.Length)]
	consumed = 9 + int(hdr.Length)

	if hdr.Type != FrameSettings || hdr.Flags&FlagAck != 0 {
		return AppendGoAwayFrame(nil, s.LastPeerStreamID, ErrProtocolError), consumed,
			errors.New("http2: expected peer SETTINGS frame")
	}

	settings, perr := ParseSettingsPayload(payload)
	if perr != nil {
		return AppendGoAwayFrame(nil, s.LastPeerStreamID, ErrFrameSizeError), consumed, perr
	}
	s.RemoteSettings = settings

	return AppendSettingsFrame(nil, nil, true), consumed, nil
}
