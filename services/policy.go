package services

import (
	"crypto/subtle"
)

// AccessPolicy gates every search: the caller must present the shared
// client key and stay within its rate limits.
type AccessPolicy struct {
	clientKey []byte
	limiter   *RateLimiter
}

func NewAccessPolicy(clientKey string, limiter *RateLimiter) *AccessPolicy {
	if limiter == nil {
		limiter = NewRateLimiter(DefaultRateLimits)
	}
	return &AccessPolicy{clientKey: []byte(clientKey), limiter: limiter}
}

// Authorize returns ErrInvalidKey or ErrRateLimited, or nil when the
// request may proceed. A bad key never touches the caller's counters.
// An unset client key rejects everything.
func (p *AccessPolicy) Authorize(providedKey, caller string) error {
	if !p.KeyValid(providedKey) {
		return ErrInvalidKey
	}
	if !p.limiter.Allow(caller) {
		return ErrRateLimited
	}
	return nil
}

// KeyValid compares providedKey with the configured key in constant time.
func (p *AccessPolicy) KeyValid(providedKey string) bool {
	if len(p.clientKey) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(providedKey), p.clientKey) == 1
}
