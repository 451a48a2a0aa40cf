package source

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// MaxRetries bounds the attempts for one body fetch.
const MaxRetries = 3

const (
	backoffBase = time.Second
	backoffCap  = 30 * time.Second
	snippetLen  = 200
)

// UpstreamError is a body fetch that failed with a status the server may
// recover from (429 or 5xx).
type UpstreamError struct {
	Status  int
	Snippet string
}

func (e *UpstreamError) Error() string {
	snippet := e.Snippet
	if len(snippet) > snippetLen {
		snippet = snippet[:snippetLen] + "..."
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, snippet)
}

// IsTransient reports whether err wraps an *UpstreamError.
func IsTransient(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// Backoff is the delay before retry attempt n (0-indexed): doubling from one
// second, capped at thirty, plus up to half again of jitter.
func Backoff(attempt int) time.Duration {
	d := backoffCap
	if attempt < 5 {
		d = min(backoffBase<<attempt, backoffCap)
	}
	return d + rand.N(d/2)
}
