package easycontrols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRequest(t *testing.T) {
	data, quantity := encodeRequest("v00104")
	assert.Equal(t, []byte("v00104\x00\x00"), data)
	assert.Equal(t, uint16(4), quantity)

	data, quantity = encodeRequest("v00102=3")
	assert.Equal(t, []byte("v00102=3\x00\x00"), data)
	assert.Equal(t, uint16(5), quantity)

	data, quantity = encodeRequest("v00102=10")
	assert.Equal(t, []byte("v00102=10\x00"), data)
	assert.Equal(t, uint16(5), quantity)
}

func TestResponseQuantity(t *testing.T) {
	// "v00104=" + 7 characters + NUL = 15 bytes
	assert.Equal(t, uint16(8), responseQuantity("v00104", 7))
	// "v00094=" + 1 character + NUL = 9 bytes
	assert.Equal(t, uint16(5), responseQuantity("v00094", 1))
}

func TestDecodeResponse(t *testing.T) {
	value, err := decodeResponse("v00104", []byte("v00104= 12.5\x00\x00\x00"))
	require.NoError(t, err)
	assert.Equal(t, "12.5", value)

	_, err = decodeResponse("v00104", []byte("v00105=12.5\x00"))
	assert.ErrorIs(t, err, ErrUnexpectedResponse)

	_, err = decodeResponse("v00104", []byte("garbage"))
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}
