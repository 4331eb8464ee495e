package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Describe renders a failed sub-fetch as a short, client-safe message such
// as "product: remote fetch failed (status 503)". URLs and upstream bodies
// are left out.
func Describe(resource string, err error) string {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return fmt.Sprintf("%s: remote fetch timed out", resource)
	case errors.Is(err, context.Canceled):
		return fmt.Sprintf("%s: remote fetch cancelled", resource)
	}
	if status := StatusOf(err); status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", resource, ErrRemoteFetchFailed, status)
	}
	return fmt.Sprintf("%s: %s", resource, ErrRemoteFetchFailed)
}
