package mcsession

import "errors"

var (
	// ErrNoTokens is an exported constant or variable used by the session manager.
	ErrNoTokens = errors.New("no stored tokens")
	// ErrRefreshTokenMissing is an exported constant or variable used by the session manager.
	ErrRefreshTokenMissing = errors.New("refresh token missing")
	// ErrRefreshRateLimited is an exported constant or variable used by the session manager.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrRefreshFailed is an exported constant or variable used by the session manager.
	ErrRefreshFailed = errors.New("refresh failed")
	// ErrUnauthorized is an exported constant or variable used by the session manager.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrManagerNotReady is an exported constant or variable used by the session manager.
	ErrManagerNotReady = errors.New("manager not initialized")
)
