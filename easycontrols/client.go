package easycontrols

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
)

// registerAddress is where both the variable request and the response live.
const registerAddress = 1

// Client reads and writes variables of one unit. Each request is a write of
// the variable name followed by a read of "name=value", so access to the
// transport is serialised.
type Client struct {
	transport Transport
	mutex     sync.Mutex
}

func NewClient(transport Transport) *Client {
	return &Client{
		transport: transport,
	}
}

func (c *Client) Get(ctx context.Context, variable Variable) (interface{}, error) {
	raw, err := c.GetRaw(ctx, variable.Name, variable.Size)
	if err != nil {
		return nil, err
	}

	return variable.Parse(raw)
}

// GetRaw returns the unparsed value of the named variable.
func (c *Client) GetRaw(ctx context.Context, name string, size int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	request, quantity := encodeRequest(name)
	if _, err := c.transport.WriteMultipleRegisters(registerAddress, quantity, request); err != nil {
		return "", fmt.Errorf("requesting %v: %w", name, err)
	}

	response, err := c.transport.ReadHoldingRegisters(registerAddress, responseQuantity(name, size))
	if err != nil {
		return "", fmt.Errorf("reading %v: %w", name, err)
	}

	return decodeResponse(name, response)
}

func (c *Client) Set(ctx context.Context, variable Variable, value interface{}) error {
	formatted, err := variable.Format(value)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	request, quantity := encodeRequest(variable.Name + "=" + formatted)
	if _, err := c.transport.WriteMultipleRegisters(registerAddress, quantity, request); err != nil {
		return fmt.Errorf("writing %v: %w", variable.Name, err)
	}

	return nil
}

func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.transport.Close()
}

// encodeRequest NUL-terminates the text and pads it to whole registers.
func encodeRequest(text string) ([]byte, uint16) {
	data := append([]byte(text), 0)
	if len(data)%2 == 1 {
		data = append(data, 0)
	}

	return data, uint16(len(data) / 2)
}

// responseQuantity covers "name=" + value + NUL, rounded up to registers.
func responseQuantity(name string, size int) uint16 {
	return uint16((len(name) + 1 + size + 1 + 1) / 2)
}

func decodeResponse(name string, response []byte) (string, error) {
	if i := bytes.IndexByte(response, 0); i >= 0 {
		response = response[:i]
	}

	parts := strings.SplitN(string(response), "=", 2)
	if len(parts) != 2 || parts[0] != name {
		return "", fmt.Errorf("%w: requested %v, received %q", ErrUnexpectedResponse, name, response)
	}

	return strings.TrimSpace(parts[1]), nil
}
