package recommend

import "errors"

// Sentinel errors for upstream failures.
var (
	ErrDisabled    = errors.New("recommend: no endpoint configured")
	ErrRateLimited = errors.New("recommend: rate limited by server")
	ErrBadRequest  = errors.New("recommend: bad request")
	ErrServer      = errors.New("recommend: server error")
	ErrDecode      = errors.New("recommend: malformed response")
)
