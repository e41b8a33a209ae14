package models

import "errors"

var (
	ErrRedisConnection = errors.New("redis connection error")
	ErrRedisGet        = errors.New("redis get error")
	ErrRedisSet        = errors.New("redis set error")
	ErrRedisDelete     = errors.New("redis delete error")
)

var (
	ErrNotLoggedIn    = errors.New("no active session")
	ErrSessionExpired = errors.New("session expired")
	ErrTokenInvalid   = errors.New("token invalid")
)

var (
	ErrInvalidMode        = errors.New("invalid conversation mode")
	ErrInferenceNotConfig = errors.New("inference service not configured")
	ErrInferenceRequest   = errors.New("inference request failed")
	ErrEmptyReply         = errors.New("inference response contained no reply")
)

var (
	ErrAuthRequest     = errors.New("auth service request failed")
	ErrAuthUnavailable = errors.New("auth service unavailable")
)
