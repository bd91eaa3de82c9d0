package easycontrols

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

const (
	functionReadHoldingRegisters   = 0x03
	functionWriteMultipleRegisters = 0x10
	exceptionBit                   = 0x80
	exceptionFrameLength           = 5
)

type rtuTransport struct {
	port   io.ReadWriteCloser
	unitID byte
}

// RTUDialer opens the serial device and speaks Modbus RTU (8N1).
func RTUDialer(baudRate int, timeout time.Duration) Dialer {
	return func(ctx context.Context, device string) (Transport, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		port, err := serial.Open(device, &serial.Mode{
			BaudRate: baudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v: %v", ErrConnectionFailed, device, err)
		}

		if err := port.SetReadTimeout(timeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("%w: %v: %v", ErrConnectionFailed, device, err)
		}

		return &rtuTransport{port: port, unitID: UnitID}, nil
	}
}

func (t *rtuTransport) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	pdu := []byte{functionReadHoldingRegisters, 0, 0, 0, 0}
	binary.BigEndian.PutUint16(pdu[1:], address)
	binary.BigEndian.PutUint16(pdu[3:], quantity)

	// unit, function, byte count, data, crc
	response, err := t.send(pdu, 3+2*int(quantity)+2)
	if err != nil {
		return nil, err
	}

	if int(response[1]) != 2*int(quantity) {
		return nil, fmt.Errorf("%w: byte count %v for %v registers", ErrUnexpectedResponse, response[1], quantity)
	}

	return response[2:], nil
}

func (t *rtuTransport) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	pdu := []byte{functionWriteMultipleRegisters, 0, 0, 0, 0, byte(len(value))}
	binary.BigEndian.PutUint16(pdu[1:], address)
	binary.BigEndian.PutUint16(pdu[3:], quantity)
	pdu = append(pdu, value...)

	// unit, function, address, quantity, crc
	response, err := t.send(pdu, 8)
	if err != nil {
		return nil, err
	}

	return response[1:], nil
}

func (t *rtuTransport) Close() error {
	return t.port.Close()
}

// send writes one request frame and returns the response PDU.
func (t *rtuTransport) send(pdu []byte, responseLength int) ([]byte, error) {
	frame := encodeRTUFrame(t.unitID, pdu)

	n, err := t.port.Write(frame)
	if err != nil {
		return nil, err
	}
	if n != len(frame) {
		return nil, errors.New("short write")
	}

	buff := make([]byte, responseLength)
	read := 0
	for read < responseLength {
		n, err := t.port.Read(buff[read:])
		if err != nil {
			return nil, err
		}
		// The serial port returns 0 bytes on read timeout
		if n == 0 {
			return nil, fmt.Errorf("%w: timeout after %v of %v bytes", ErrUnexpectedResponse, read, responseLength)
		}
		read += n

		if read >= 2 && buff[1]&exceptionBit != 0 && responseLength != exceptionFrameLength {
			responseLength = exceptionFrameLength
		}
	}

	return decodeRTUFrame(t.unitID, pdu[0], buff[:responseLength])
}

func encodeRTUFrame(unitID byte, pdu []byte) []byte {
	frame := make([]byte, 0, len(pdu)+3)
	frame = append(frame, unitID)
	frame = append(frame, pdu...)

	crc := crc16(frame)
	return append(frame, byte(crc), byte(crc>>8))
}

func decodeRTUFrame(unitID byte, function byte, frame []byte) ([]byte, error) {
	if len(frame) < exceptionFrameLength {
		return nil, fmt.Errorf("%w: frame too short (%v bytes)", ErrUnexpectedResponse, len(frame))
	}

	body := frame[:len(frame)-2]
	expected := crc16(body)
	if received := uint16(frame[len(frame)-2]) | uint16(frame[len(frame)-1])<<8; received != expected {
		return nil, fmt.Errorf("%w: received %04x, expected %04x", ErrChecksum, received, expected)
	}

	if body[0] != unitID {
		return nil, fmt.Errorf("%w: unit %v answered, expected %v", ErrUnexpectedResponse, body[0], unitID)
	}

	if body[1] == function|exceptionBit {
		return nil, fmt.Errorf("%w: exception code %v", ErrUnexpectedResponse, body[2])
	}

	if body[1] != function {
		return nil, fmt.Errorf("%w: function %v, expected %v", ErrUnexpectedResponse, body[1], function)
	}

	return body[1:], nil
}

func crc16(data []byte) uint16 {
	crc := uint16(0xffff)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0xa001
			} else {
				crc >>= 1
			}
		}
	}

	return crc
}
