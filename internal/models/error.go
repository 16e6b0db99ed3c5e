package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")
)

// Credential grant failures. ErrInvalidCredentials covers both unknown
// username and wrong password so callers cannot enumerate accounts.
var (
	ErrInvalidCredentials  = errors.New("the user name or password is incorrect")
	ErrAccountNotConfirmed = errors.New("user did not confirm email")
)

// Token issuance failures
var (
	ErrInvalidTicket      = errors.New("authentication ticket is missing issued or expiry time")
	ErrSigningUnavailable = errors.New("token signing key is unavailable")
)

// Token validation failures, in the order the validator checks them
var (
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrBadSignature     = errors.New("token signature is invalid")
	ErrAudienceMismatch = errors.New("token audience mismatch")
	ErrIssuerMismatch   = errors.New("token issuer mismatch")
	ErrTokenExpired     = errors.New("token is expired")
)

// Password reset failures
var (
	ErrResetTokenNotFound = errors.New("reset token not found")
	ErrResetTokenExpired  = errors.New("reset token expired")
	ErrResetTokenMismatch = errors.New("reset token mismatch")
)
