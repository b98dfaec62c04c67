package nhle

import (
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

// Failure taxonomy for the upstream provider. The cache layer decides whether
// any of these degrade to stale data; this package only classifies.
var (
	ErrTimeout        = crerr.New("nhle: upstream request timed out")
	ErrUnreachable    = crerr.New("nhle: upstream unreachable")
	ErrBadStatus      = crerr.New("nhle: upstream returned non-success status")
	ErrMalformed      = crerr.New("nhle: malformed upstream response")
	ErrSchemaMismatch = crerr.New("nhle: upstream payload schema mismatch")
)

// StatusError carries the concrete HTTP status behind ErrBadStatus.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("nhle: upstream status %d", e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrBadStatus
}

// StatusCode extracts the upstream HTTP status from an error chain.
func StatusCode(err error) (int, bool) {
	var statusErr *StatusError
	if crerr.As(err, &statusErr) {
		return statusErr.Code, true
	}
	return 0, false
}
