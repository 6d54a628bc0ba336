package providers

import "time"

const shutdownTimeout = 30 * time.Second

// Register and login allow a short burst, then one attempt every six
// seconds per client IP.
const (
	authRatePerMinute = 10
	authBurst         = 5
)
