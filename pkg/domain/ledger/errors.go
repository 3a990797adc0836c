package ledger

import (
	"fmt"
	"net/http"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"

	"github.com/pkg/errors"
)

var (
	// ErrNotModified is returned by a fetch when the server reports that the
	// data did not change since the last ETag. Callers treat it as "no new
	// data", never as a failure.
	ErrNotModified = errors.New("not modified")
)

// OwnershipNotLinkedError is returned by an OwnershipRepository for a
// character that has no main/alt linkage.
type OwnershipNotLinkedError struct {
	CharacterID entity.CharacterID
}

func (e *OwnershipNotLinkedError) Error() string {
	return fmt.Sprintf("ownership not linked for character: %d", e.CharacterID)
}

// NotLinked lets consumers detect the condition without importing this package.
func (e *OwnershipNotLinkedError) NotLinked() bool {
	return true
}

// TransientFetchError wraps a failure that is worth retrying: the API was
// unreachable, rate limited or timed out.
type TransientFetchError struct {
	StatusCode int
	Err        error
}

func (e *TransientFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient fetch error (HTTP %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient fetch error: %v", e.Err)
}

func (e *TransientFetchError) Unwrap() error {
	return e.Err
}

// IsTransientStatus reports whether an HTTP status should be retried.
func IsTransientStatus(status int) bool {
	switch status {
	case 420, http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func IsTransient(err error) bool {
	var transient *TransientFetchError
	return errors.As(err, &transient)
}

// EntityResolutionIncompleteError aborts the write phase of a sync when the
// naming service resolved fewer ids than were requested.
type EntityResolutionIncompleteError struct {
	Requested int
	Resolved  int
}

func (e *EntityResolutionIncompleteError) Error() string {
	return fmt.Sprintf("entity resolution incomplete: resolved %d of %d ids", e.Resolved, e.Requested)
}
