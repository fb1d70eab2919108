package models

// contextKey is private so that keys never collide with other packages.
type contextKey string

const (
	// AccountContextKey holds the account.Identity of the caller.
	AccountContextKey contextKey = "accountIdentity"
	// RequestIDContextKey holds the X-Request-ID of the current request.
	RequestIDContextKey contextKey = "requestID"
)
