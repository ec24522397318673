package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth is matched by every AuthError
	ErrAuth = errors.New("authentication failed")

	// ErrFetch is matched by every FetchError
	ErrFetch = errors.New("fetch failed")

	// ErrWrite is matched by every WriteError
	ErrWrite = errors.New("write failed")

	// ErrLog is matched by every LogError
	ErrLog = errors.New("audit log write failed")

	// ErrSyncInProgress is returned when a pass is requested while another one is running
	ErrSyncInProgress = errors.New("sync pass already in progress")
)

// Claim service errors
var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrClaimNotFound   = errors.New("claim not found")
	ErrInvalidClaim    = errors.New("invalid claim data")
	ErrAlreadyVerified = errors.New("claim is already verified")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrTokenExpired    = errors.New("token has expired")
	ErrEmailMismatch   = errors.New("email does not match claim")
	ErrEmailDelivery   = errors.New("failed to send email")
)

// AuthError is returned when the spreadsheet access token cannot be obtained
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// FetchError is returned when one side of the reconciliation cannot be read
type FetchError struct {
	Store Source
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s claims: %v", e.Store, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// WriteError is a failed write of a single item. It never aborts a batch.
// An empty ItemID marks a failure of the whole write phase for that store.
type WriteError struct {
	Store  Source
	ItemID string
	Err    error
}

func (e *WriteError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("write %s claims: %v", e.Store, e.Err)
	}
	return fmt.Sprintf("write %s item %s: %v", e.Store, e.ItemID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrWrite }

// LogError is a failed audit row append. Callers always swallow it.
type LogError struct {
	Err error
}

func (e *LogError) Error() string {
	return fmt.Sprintf("append sync log: %v", e.Err)
}

func (e *LogError) Unwrap() error { return e.Err }

func (e *LogError) Is(target error) bool { return target == ErrLog }
