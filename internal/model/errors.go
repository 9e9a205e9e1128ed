package model

import (
	"github.com/pkg/errors"
)

var (
	ErrConfig        = errors.New("configuration error")
	ErrInvalidAction = errors.New("invalid action")

	ErrLoad       = errors.New("asset load failed")
	ErrValidation = errors.New("validation failed")
	ErrRejected   = errors.New("operation rejected")
	ErrTransport  = errors.New("network error")
	ErrAborted    = errors.New("operation aborted")
	ErrBusy       = errors.New("asset is being processed")
)
