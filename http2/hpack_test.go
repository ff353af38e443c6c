package http2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderFieldRoundTrip(t *testing.T) {
	buf := AppendHeaderField(nil, ":status", "200")
	buf = AppendHeaderField(buf, "content-type", "application/json")

	fields, err := DecodeHeaderBlock(buf)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, HeaderField{":status", "200"}, fields[0])
	assert.Equal(t, HeaderField{"content-type", "application/json"}, fields[1])
}

func TestHeaderFieldTruncated(t *testing.T) {
	buf := []byte{literalWithoutIndexing, 10, 'a', 'b'} // name-length 10, only 2 bytes present
	_, err := DecodeHeaderBlock(buf)
	assert.ErrorIs(t, err, ErrHeaderTruncated)
}

func TestHeaderFieldLongNameTruncatedToFit(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	buf := AppendHeaderField(nil, string(long), "v")

	fields, err := DecodeHeaderBlock(buf)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Len(t, fields[0].Name, 127)
}
