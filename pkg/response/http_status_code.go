package response

const (
	NotifyAccepted = 2001 // Notification accepted for delivery

	ErrCodeBadPayload    = 4001 // Request body failed validation
	ErrCodeUnauthorized  = 4011 // Missing or invalid bearer token
	ErrCodeEncodeFailure = 5001 // Notification could not be serialized
)

// message
var msg = map[int]string{
	NotifyAccepted: "notification accepted",

	ErrCodeBadPayload:    "invalid notification payload",
	ErrCodeUnauthorized:  "unauthorized",
	ErrCodeEncodeFailure: "failed to encode notification",
}

// Message returns the canonical text for a response code.
func Message(code int) string {
	return msg[code]
}
