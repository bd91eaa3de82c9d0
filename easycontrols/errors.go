package easycontrols

import "errors"

var (
	ErrConnectionFailed   = errors.New("easycontrols: connection failed")
	ErrNotInitialized     = errors.New("easycontrols: controller not initialized")
	ErrUnexpectedResponse = errors.New("easycontrols: unexpected response")
	ErrInvalidValue       = errors.New("easycontrols: invalid value")
	ErrMacMismatch        = errors.New("easycontrols: device reports a different MAC address")
	ErrChecksum           = errors.New("easycontrols: checksum mismatch")
)
