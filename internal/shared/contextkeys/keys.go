package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "car-listing context key " + string(c)
}

const (
	// UserIDKey carries the authenticated user's ID.
	UserIDKey = contextKey("userID")
	// UserEmailKey carries the authenticated user's email.
	UserEmailKey = contextKey("userEmail")
	// RequestIDKey carries the X-Request-ID of the inbound request.
	RequestIDKey = contextKey("requestID")
	// ComponentKey names the component that owns a log line.
	ComponentKey = contextKey("component")
	// OperationKey names the operation in progress (create_car, login, ...).
	OperationKey = contextKey("operation")
)
