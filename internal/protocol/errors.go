package protocol

const (
	// Request validation.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrLimit      = "E_LIMIT"

	// Lookups.
	ErrRunNotFound   = "E_RUN_NOT_FOUND"
	ErrAgentNotFound = "E_AGENT_NOT_FOUND"

	ErrUnavailable = "E_UNAVAILABLE"
	ErrInternal    = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:    {},
	ErrLimit:         {},
	ErrRunNotFound:   {},
	ErrAgentNotFound: {},
	ErrUnavailable:   {},
	ErrInternal:      {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
