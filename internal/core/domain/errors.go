package domain

import "errors"

// ============================================================================
// Artifact Registry Errors
// ============================================================================

// Not found errors
var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrBlobNotFound     = errors.New("blob not found")
)

// Validation errors
var (
	ErrInvalidArtifactID = errors.New("artifact ID is not a valid UUID")
	ErrInvalidName       = errors.New("name must start with a letter and contain only letters, digits and underscores")
	ErrInvalidVersion    = errors.New("model version must be a number")
)

// Storage errors (backing store faulted; safe to retry with backoff)
var (
	ErrStorage = errors.New("storage fault")
)

// ============================================================================
// Credential Provisioning Errors
// ============================================================================

// State conflict errors
var (
	ErrUserAlreadyExists = errors.New("user already exists in this tenant")
	ErrUserNotFound      = errors.New("user not found in this tenant")
)

// Validation errors
var (
	ErrInvalidRole      = errors.New("role must be one of: read, readWrite, dbAdmin")
	ErrPasswordTooShort = errors.New("password length must be at least 4")
)

// Access / connectivity errors
var (
	ErrUnauthorized = errors.New("administrative handle lacks required privileges")
	ErrConnection   = errors.New("backing store unreachable")
)
