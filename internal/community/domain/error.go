package domain

import "errors"

var (
	ErrPostNotFound      = errors.New("post not found")
	ErrTenantMismatch    = errors.New("resource belongs to another tenant")
	ErrEventNotFound     = errors.New("event not found")
	ErrTeamNotFound      = errors.New("team not found")
	ErrMediaNotFound     = errors.New("media file not found")
	ErrInvalidTitle      = errors.New("title is required")
	ErrInvalidName       = errors.New("name is required")
	ErrSlugTaken         = errors.New("slug already in use")
	ErrInvalidRSVPStatus = errors.New("rsvp status must be going, maybe, or declined")
	ErrInvalidSchedule   = errors.New("event start time is required")
	ErrAlreadyTeamMember = errors.New("account is already on the team")
	ErrNotTeamMember     = errors.New("account is not on the team")
	ErrEmptyMedia        = errors.New("media content is required")
)
