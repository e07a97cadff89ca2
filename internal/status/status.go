package status

import "errors"

var (
	ErrDuplicateEntry    = errors.New("queue: active entry with same name and contact")
	ErrEntryNotFound     = errors.New("queue: entry not found")
	ErrInvalidTransition = errors.New("queue: transition not allowed from current status")
	ErrCounterBusy       = errors.New("queue: another entry is already being served")

	ErrTokenInvalid = errors.New("verify: token signature mismatch or malformed")
	ErrTokenExpired = errors.New("verify: token expired")

	ErrAIRateLimited       = errors.New("ai: rate limit exceeded")
	ErrAICreditsExhausted  = errors.New("ai: credits exhausted")
	ErrAINotConfigured     = errors.New("ai: gateway not configured")
	ErrAIMalformedResponse = errors.New("ai: malformed gateway response")

	ErrRateLimited = errors.New("security: too many requests")
)
