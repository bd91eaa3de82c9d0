package easycontrols

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Second

type options struct {
	dialer Dialer
	logger *zap.SugaredLogger
}

type Option func(*options)

func WithDialer(dialer Dialer) Option {
	return func(o *options) {
		o.dialer = dialer
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		dialer: TCPDialer(defaultTimeout),
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Controller is the session to one ventilation unit. Its device attributes
// are read once by Init.
type Controller struct {
	name    string
	host    string
	mac     string
	options *options

	client       *Client
	serialNumber string
	model        string
	version      string
}

func NewController(name string, host string, mac string, opts ...Option) *Controller {
	return &Controller{
		name:    name,
		host:    host,
		mac:     NormalizeMAC(mac),
		options: newOptions(opts),
	}
}

// Init connects and reads the device information. It fails when the unit at
// host is not the one with the configured MAC address.
func (c *Controller) Init(ctx context.Context) error {
	c.options.logger.Infow("Connecting", "host", c.host, "mac", c.mac)

	transport, err := c.options.dialer(ctx, c.host)
	if err != nil {
		return err
	}
	client := NewClient(transport)

	info, err := readDeviceInfo(ctx, client)
	if err != nil {
		client.Close()
		return err
	}

	if info.mac != c.mac {
		client.Close()
		return fmt.Errorf("%w: expected %v, got %v", ErrMacMismatch, c.mac, info.mac)
	}

	c.client = client
	c.serialNumber = info.serialNumber
	c.model = info.model
	c.version = info.version

	c.options.logger.Infow("Connected", "model", c.model, "version", c.version, "serial_number", c.serialNumber)

	return nil
}

func (c *Controller) MAC() string {
	return c.mac
}

func (c *Controller) DeviceName() string {
	return c.name
}

func (c *Controller) Host() string {
	return c.host
}

func (c *Controller) Model() string {
	return c.model
}

func (c *Controller) Version() string {
	return c.version
}

func (c *Controller) SerialNumber() string {
	return c.serialNumber
}

func (c *Controller) Get(ctx context.Context, variable Variable) (interface{}, error) {
	if c.client == nil {
		return nil, ErrNotInitialized
	}

	return c.client.Get(ctx, variable)
}

func (c *Controller) Set(ctx context.Context, variable Variable, value interface{}) error {
	if c.client == nil {
		return ErrNotInitialized
	}

	return c.client.Set(ctx, variable, value)
}

func (c *Controller) Close() error {
	if c.client == nil {
		return nil
	}

	return c.client.Close()
}

type deviceInfo struct {
	mac          string
	serialNumber string
	model        string
	version      string
}

func readDeviceInfo(ctx context.Context, client *Client) (*deviceInfo, error) {
	values := make(map[Variable]string)
	for _, variable := range []Variable{
		VariableMacAddress,
		VariableSerialNumber,
		VariableArticleDescription,
		VariableSoftwareVersion,
	} {
		value, err := client.Get(ctx, variable)
		if err != nil {
			return nil, err
		}
		values[variable] = value.(string)
	}

	return &deviceInfo{
		mac:          NormalizeMAC(values[VariableMacAddress]),
		serialNumber: values[VariableSerialNumber],
		model:        values[VariableArticleDescription],
		version:      values[VariableSoftwareVersion],
	}, nil
}
