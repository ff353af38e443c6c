// Package http2 implements a deliberately simplified subset of the HTTP/2
// wire format: connection preface detection, 9-byte frame headers, the
// SETTINGS/GOAWAY/WINDOW_UPDATE control frames, and a non-conforming HPACK
// subset (literal headers without indexing, no Huffman, no dynamic table).
// It is a preface-handshake demonstrator, not an RFC 7540 implementation:
// see the package-level limitations noted alongside each type.
package http2

import (
	"encoding/binary"
	"errors"
)

// Preface is the fixed 24-byte client connection preface that marks a
// connection as HTTP/2.
const Preface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// FrameType is the 8-bit frame type field of a frame header.
type FrameType byte

// Frame types, per RFC 7540 §6 (subset actually emitted/parsed here).
const (
	FrameData         FrameType = 0x0
	FrameHeaders      FrameType = 0x1
	FramePriority     FrameType = 0x2
	FrameRSTStream    FrameType = 0x3
	FrameSettings     FrameType = 0x4
	FramePushPromise  FrameType = 0x5
	FramePing         FrameType = 0x6
	FrameGoAway       FrameType = 0x7
	FrameWindowUpdate FrameType = 0x8
	FrameContinuation FrameType = 0x9
)

// Frame flags.
const (
	FlagEndStream  byte = 0x1
	FlagAck        byte = 0x1 // SETTINGS, PING
	FlagEndHeaders byte = 0x4
	FlagPadded     byte = 0x8
	FlagPriority   byte = 0x20
)

// ErrorCode is an HTTP/2 error code as carried in RST_STREAM/GOAWAY frames.
type ErrorCode uint32

// Error codes actually used by this implementation.
const (
	ErrNone           ErrorCode = 0x0
	ErrProtocolError  ErrorCode = 0x1
	ErrFrameSizeError ErrorCode = 0x6
)

// FrameHeader is the 9-byte header preceding every frame's payload:
// length:24, type:8, flags:8, R:1 + stream-id:31.
type FrameHeader struct {
	Length   uint32 // 24-bit payload length
	Type     FrameType
	Flags    byte
	StreamID uint32 // 31-bit, reserved bit stripped
}

// ErrShortFrameHeader is returned by ReadFrameHeader when fewer than 9
// bytes are available.
var ErrShortFrameHeader = errors.New("http2: short frame header")

// DetectPreface reports whether buf begins with the fixed HTTP/2 client
// preface.
func DetectPreface(buf []byte) bool {
	if len(buf) < len(Preface) {
		return false
	}
	return string(buf[:len(Preface)]) == Preface
}

// ReadFrameHeader decodes the 9-byte frame header at the start of buf.
func ReadFrameHeader(buf []byte) (FrameHeader, error) {
	if len(buf) < 9 {
		return FrameHeader{}, ErrShortFrameHeader
	}
	length := uint32(buf[0])<<16 | uint32(buf[1])<<8 | uint32(buf[2])
	typ := FrameType(buf[3])
	flags := buf[4]
	streamID := binary.BigEndian.Uint32(buf[5:9]) & 0x7fffffff
	return FrameHeader{Length: length, Type: typ, Flags: flags, StreamID: streamID}, nil
}

// AppendFrameHeader appends the 9-byte wire encoding of h to buf.
func AppendFrameHeader(buf []byte, h FrameHeader) []byte {
	buf = append(buf,
		byte(h.Length>>16), byte(h.Length>>8), byte(h.Length),
		byte(h.Type), h.Flags,
	)
	var sid [4]byte
	binary.BigEndian.PutUint32(sid[:], h.StreamID&0x7fffffff)
	return append(buf, sid[:]...)
}

// SettingID identifies one SETTINGS parameter.
type SettingID uint16

// Recognised SETTINGS parameters.
const (
	SettingHeaderTableSize      SettingID = 0x1
	SettingEnablePush           SettingID = 0x2
	SettingMaxConcurrentStreams SettingID = 0x3
	SettingInitialWindowSize    SettingID = 0x4
	SettingMaxFrameSize         SettingID = 0x5
	SettingMaxHeaderListSize    SettingID = 0x6
)

// Setting is one (identifier, value) pair carried in a SETTINGS frame.
type Setting struct {
	ID    SettingID
	Value uint32
}

// DefaultSettings are the six parameters the server advertises on its
// initial SETTINGS frame.
func DefaultSettings() []Setting {
	return []Setting{
		{SettingHeaderTableSize, 4096},
		{SettingEnablePush, 1},
		{SettingMaxConcurrentStreams, 100},
		{SettingInitialWindowSize, 65535},
		{SettingMaxFrameSize, 16384},
		{SettingMaxHeaderListSize, 8192},
	}
}

// AppendSettingsFrame appends a complete SETTINGS frame (header + payload)
// carrying settings to buf. A nil/empty settings slice with ack=true
// encodes a SETTINGS+ACK frame.
func AppendSettingsFrame(buf []byte, settings []Setting, ack bool) []byte {
	payload := make([]byte, 0, len(settings)*6)
	for _, s := range settings {
		var entry [6]byte
		binary.BigEndian.PutUint16(entry[0:2], uint16(s.ID))
		binary.BigEndian.PutUint32(entry[2:6], s.Value)
		payload = append(payload, entry[:]...)
	}

	var flags byte
	if ack {
		flags = FlagAck
	}

	buf = AppendFrameHeader(buf, FrameHeader{
		Length: uint32(len(payload)),
		Type:   FrameSettings,
		Flags:  flags,
	})
	return append(buf, payload...)
}

// ParseSettingsPayload decodes a SETTINGS frame payload into its
// (id, value) pairs. Malformed (non-multiple-of-6) payloads return an
// error; per §9's documented simplification this implementation does not
// attempt partial recovery.
func ParseSettingsPayload(payload []byte) ([]Setting, error) {
	if len(payload)%6 != 0 {
		return nil, errors.New("http2: malformed SETTINGS payload")
	}
	settings := make([]Setting, 0, len(payload)/6)
	for i := 0; i < len(payload); i += 6 {
		settings = append(settings, Setting{
			ID:    SettingID(binary.BigEndian.Uint16(payload[i : i+2])),
			Value: binary.BigEndian.Uint32(payload[i+2 : i+6]),
		})
	}
	return settings, nil
}

// AppendGoAwayFrame appends a complete GOAWAY frame to buf, reporting the
// last stream ID this endpoint processed and the reason code.
func AppendGoAwayFrame(buf []byte, lastStreamID uint32, code ErrorCode) []byte {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint32(payload[0:4], lastStreamID&0x7fffffff)
	binary.BigEndian.PutUint32(payload[4:8], uint32(code))

	buf = AppendFrameHeader(buf, FrameHeader{
		Length: uint32(len(payload)),
		Type:   FrameGoAway,
	})
	return append(buf, payload...)
}

// AppendWindowUpdateFrame appends a WINDOW_UPDATE frame granting increment
// additional flow-control bytes on streamID (0 for the connection as a
// whole).
func AppendWindowUpdateFrame(buf []byte, streamID uint32, increment uint32) []byte {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, increment&0x7fffffff)

	buf = AppendFrameHeader(buf, FrameHeader{
		Length:   uint32(len(payload)),
		Type:     FrameWindowUpdate,
		StreamID: streamID,
	})
	return append(buf, payload...)
}
