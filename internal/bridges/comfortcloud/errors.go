package comfortcloud

import "errors"

// Domain errors for the Comfort Cloud bridge.
var (
	// ErrControlRejected is returned when the cloud answers a control
	// request with a non-zero result.
	ErrControlRejected = errors.New("comfortcloud: control rejected")

	// ErrUnknownDevice is returned for an address with no known unit.
	ErrUnknownDevice = errors.New("comfortcloud: unknown device")

	// ErrInvalidCommand is returned for commands the bridge does not support.
	ErrInvalidCommand = errors.New("comfortcloud: invalid command")

	// ErrInvalidParameter is returned for missing or out-of-range parameters.
	ErrInvalidParameter = errors.New("comfortcloud: invalid parameter")

	// ErrDecodeFailed is returned when a cloud response cannot be decoded.
	ErrDecodeFailed = errors.New("comfortcloud: decode failed")
)
