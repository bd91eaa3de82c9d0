package easycontrols

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/goburrow/modbus"
)

const (
	DefaultPort = 502
	UnitID      = 180
)

// Transport carries the two Modbus functions the EasyControls register
// protocol uses.
type Transport interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
	Close() error
}

// Dialer opens a transport to the unit at host. For TCP the host is an
// address, for RTU a serial device.
type Dialer func(ctx context.Context, host string) (Transport, error)

type tcpTransport struct {
	modbus.Client
	handler *modbus.TCPClientHandler
}

func (t *tcpTransport) Close() error {
	return t.handler.Close()
}

// TCPDialer connects over Modbus TCP, defaulting to port 502.
func TCPDialer(timeout time.Duration) Dialer {
	return func(ctx context.Context, host string) (Transport, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		handler := modbus.NewTCPClientHandler(tcpAddress(host))
		handler.Timeout = timeout
		handler.SlaveId = UnitID

		if err := handler.Connect(); err != nil {
			return nil, fmt.Errorf("%w: %v: %v", ErrConnectionFailed, host, err)
		}

		return &tcpTransport{
			Client:  modbus.NewClient(handler),
			handler: handler,
		}, nil
	}
}

func tcpAddress(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}

	return net.JoinHostPort(host, strconv.Itoa(DefaultPort))
}

const DefaultBaudRate = 19200

// DialerFor picks the dialer of a configured transport, "tcp" or "rtu".
func DialerFor(transport string, baudRate int, timeout time.Duration) (Dialer, error) {
	switch transport {
	case "", "tcp":
		return TCPDialer(timeout), nil
	case "rtu":
		if baudRate <= 0 {
			baudRate = DefaultBaudRate
		}
		return RTUDialer(baudRate, timeout), nil
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", ErrConnectionFailed, transport)
	}
}
