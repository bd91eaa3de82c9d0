package easycontrols

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePort struct {
	written  bytes.Buffer
	response *bytes.Reader
	closed   bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	return p.written.Write(b)
}

// Read returns 0 bytes once the response is exhausted, like a serial port
// whose read timeout expired.
func (p *fakePort) Read(b []byte) (int, error) {
	if p.response.Len() == 0 {
		return 0, nil
	}
	return p.response.Read(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestCRC16(t *testing.T) {
	frame := encodeRTUFrame(0x01, []byte{0x03, 0x00, 0x00, 0x00, 0x0a})
	assert.Equal(t, []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0a, 0xc5, 0xcd}, frame)
}

func TestDecodeRTUFrame(t *testing.T) {
	pdu, err := decodeRTUFrame(UnitID, 0x03, encodeRTUFrame(UnitID, []byte{0x03, 0x02, 'v', '0'}))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x02, 'v', '0'}, pdu)

	corrupted := encodeRTUFrame(UnitID, []byte{0x03, 0x02, 'v', '0'})
	corrupted[3] = 'x'
	_, err = decodeRTUFrame(UnitID, 0x03, corrupted)
	assert.ErrorIs(t, err, ErrChecksum)

	_, err = decodeRTUFrame(UnitID, 0x03, encodeRTUFrame(1, []byte{0x03, 0x02, 'v', '0'}))
	assert.ErrorIs(t, err, ErrUnexpectedResponse)

	_, err = decodeRTUFrame(UnitID, 0x03, []byte{1, 2})
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestRTUReadHoldingRegisters(t *testing.T) {
	port := &fakePort{
		response: bytes.NewReader(encodeRTUFrame(UnitID, []byte{0x03, 0x04, 'v', '0', '0', '1'})),
	}
	transport := &rtuTransport{port: port, unitID: UnitID}

	data, err := transport.ReadHoldingRegisters(1, 2)
	require.NoError(t, err)

	assert.Equal(t, []byte("v001"), data)
	assert.Equal(t, encodeRTUFrame(UnitID, []byte{0x03, 0x00, 0x01, 0x00, 0x02}), port.written.Bytes())
}

func TestRTUWriteMultipleRegisters(t *testing.T) {
	port := &fakePort{
		response: bytes.NewReader(encodeRTUFrame(UnitID, []byte{0x10, 0x00, 0x01, 0x00, 0x02})),
	}
	transport := &rtuTransport{port: port, unitID: UnitID}

	_, err := transport.WriteMultipleRegisters(1, 2, []byte("v001"))
	require.NoError(t, err)

	assert.Equal(t,
		encodeRTUFrame(UnitID, []byte{0x10, 0x00, 0x01, 0x00, 0x02, 0x04, 'v', '0', '0', '1'}),
		port.written.Bytes())
}

func TestRTUException(t *testing.T) {
	port := &fakePort{
		response: bytes.NewReader(encodeRTUFrame(UnitID, []byte{0x83, 0x02})),
	}
	transport := &rtuTransport{port: port, unitID: UnitID}

	_, err := transport.ReadHoldingRegisters(1, 2)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestRTUTimeout(t *testing.T) {
	port := &fakePort{response: bytes.NewReader(nil)}
	transport := &rtuTransport{port: port, unitID: UnitID}

	_, err := transport.ReadHoldingRegisters(1, 2)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)

	require.NoError(t, transport.Close())
	assert.True(t, port.closed)
}

func TestTCPAddress(t *testing.T) {
	assert.Equal(t, "192.168.1.20:502", tcpAddress("192.168.1.20"))
	assert.Equal(t, "192.168.1.20:5020", tcpAddress("192.168.1.20:5020"))
	assert.Equal(t, "ventilation.local:502", tcpAddress("ventilation.local"))
}

func TestDialerFor(t *testing.T) {
	for _, transport := range []string{"", "tcp", "rtu"} {
		dialer, err := DialerFor(transport, 0, time.Second)
		require.NoError(t, err, transport)
		assert.NotNil(t, dialer, transport)
	}

	_, err := DialerFor("udp", 0, time.Second)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}
