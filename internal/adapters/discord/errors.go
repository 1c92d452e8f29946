package discord

import "errors"

var (
	// ErrInvalidReference is returned when a command argument is not a mention or a known member id.
	ErrInvalidReference = errors.New("invalid player reference")
	// ErrNotPermitted is returned when the author lacks an admin role.
	ErrNotPermitted = errors.New("not permitted")
	// ErrMissingToken is returned when the bot is built without a token.
	ErrMissingToken = errors.New("discord token is required")
)
