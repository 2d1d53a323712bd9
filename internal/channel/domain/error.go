package domain

import "errors"

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrTenantMismatch  = errors.New("channel belongs to another tenant")
	ErrInvalidName     = errors.New("channel name is required")
	ErrSlugTaken       = errors.New("channel slug already in use")
	ErrEmptyMessage    = errors.New("message body is required")
)
