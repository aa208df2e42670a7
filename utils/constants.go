// File: utils/constants.go
package utils

import "time"

// AuthCachePrefix is the prefix used for Redis authorization cache keys.
const AuthCachePrefix = "auth:"

// AuthCacheTTL is the time-to-live for authorization cache entries.
const AuthCacheTTL = 10 * time.Minute

// PinSessionCookieName is the client-side cookie caching a recent PIN validation.
const PinSessionCookieName = "pin_validated"

// PinChallengePath is where the session gate sends blocked requests.
const PinChallengePath = "/pin/challenge"
