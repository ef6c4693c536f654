package service

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrNotActivated        = errors.New("account is not activated")
	ErrInvalidToken        = errors.New("token is invalid")
	ErrResetExpired        = errors.New("password reset has expired")
	ErrUserNotFound        = errors.New("user not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrNotServing          = errors.New("user is not serving this table")
	ErrTokenSpaceExhausted = errors.New("could not generate a unique authentication token")
)
