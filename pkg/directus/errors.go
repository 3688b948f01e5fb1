package directus

import "errors"

var (
	// ErrInvalidConfig is returned when the client configuration is incomplete
	ErrInvalidConfig = errors.New("invalid directus configuration")

	// ErrNotFound is returned when the requested collection item does not exist
	ErrNotFound = errors.New("directus item not found")

	// ErrUnauthorized is returned when the access token is rejected
	ErrUnauthorized = errors.New("unauthorized: invalid directus token")

	// ErrServer is returned when Directus responds with a server error
	ErrServer = errors.New("directus server error")
)
