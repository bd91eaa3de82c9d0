// Package easycontrolstest provides an in-memory EasyControls unit for tests.
package easycontrolstest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/victorjacobs/go-easycontrols/easycontrols"
)

const (
	MAC          = "00:11:22:aa:bb:cc"
	SerialNumber = "SN0123456789"
	Model        = "KWL EC 370 W"
	Version      = "2.27"
)

// ErrUnknownVariable is returned when a variable without a value is read.
var ErrUnknownVariable = errors.New("unknown variable")

// Unit answers the register protocol from a map of raw values.
type Unit struct {
	mutex   sync.Mutex
	values  map[string]string
	pending string
	writes  []string
	failure error
	dialErr error
	dials   int
	closed  bool
}

// NewUnit returns a unit with device information filled in.
func NewUnit() *Unit {
	return &Unit{
		values: map[string]string{
			easycontrols.VariableMacAddress.Name:         strings.ToUpper(MAC),
			easycontrols.VariableSerialNumber.Name:       SerialNumber,
			easycontrols.VariableArticleDescription.Name: Model,
			easycontrols.VariableSoftwareVersion.Name:    Version,
		},
	}
}

func (u *Unit) Dialer() easycontrols.Dialer {
	return func(ctx context.Context, host string) (easycontrols.Transport, error) {
		u.mutex.Lock()
		defer u.mutex.Unlock()

		u.dials++
		if u.dialErr != nil {
			return nil, u.dialErr
		}
		u.closed = false

		return u, nil
	}
}

func (u *Unit) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	if u.failure != nil {
		return nil, u.failure
	}
	if int(quantity)*2 != len(value) {
		return nil, fmt.Errorf("quantity %v does not match %v bytes", quantity, len(value))
	}

	text := string(bytes.TrimRight(value, "\x00"))
	if name, v, ok := strings.Cut(text, "="); ok {
		u.values[name] = v
		u.writes = append(u.writes, text)
	} else {
		u.pending = text
	}

	return []byte{0, byte(address), 0, byte(quantity)}, nil
}

func (u *Unit) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	if u.failure != nil {
		return nil, u.failure
	}

	value, ok := u.values[u.pending]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownVariable, u.pending)
	}

	response := make([]byte, int(quantity)*2)
	copy(response, u.pending+"="+value)

	return response, nil
}

func (u *Unit) Close() error {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.closed = true
	return nil
}

// Set stores the raw value of a variable.
func (u *Unit) Set(name string, value string) {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.values[name] = value
}

func (u *Unit) Value(name string) string {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	return u.values[name]
}

// Writes returns every "name=value" request received.
func (u *Unit) Writes() []string {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	return append([]string(nil), u.writes...)
}

// SetFailure makes every request fail with err until cleared with nil.
func (u *Unit) SetFailure(err error) {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.failure = err
}

// SetDialError makes the dialer fail with err until cleared with nil.
func (u *Unit) SetDialError(err error) {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.dialErr = err
}

func (u *Unit) Dials() int {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	return u.dials
}

func (u *Unit) Closed() bool {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	return u.closed
}
