package appscript

import "github.com/pkg/errors"

var (
	ErrEndpointConfig   = errors.New("register endpoint configuration error")
	ErrRequest          = errors.New("register request failed")
	ErrUnexpectedStatus = errors.New("register returned unexpected status")
	ErrDecode           = errors.New("register response could not be decoded")
)
