// Package common contains shared constants and sentinel errors used across
// gophevents components.
package common

import "time"

const (
	// AuthCookieName is the cookie that carries the access token for browser clients.
	AuthCookieName = "BEARER"

	// AuthCookieMaxAge mirrors the access token lifetime (7 days).
	AuthCookieMaxAge = 7 * 24 * time.Hour

	// AuthorizationHeader and BearerPrefix describe the header form of the token.
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	// CodeDigits is the length of verification and reset codes.
	CodeDigits = 6
)
