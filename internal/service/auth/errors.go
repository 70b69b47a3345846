package auth

import "errors"

// Token errors. The middleware maps all of them to 401 and only tells the
// caller which one applied for expiry.
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
	ErrMissingToken     = errors.New("authentication token is missing")

	// ErrMissingActor means the token verified but names no employee.
	ErrMissingActor = errors.New("authentication token has no actor")
)
