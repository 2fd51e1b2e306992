package pipeline

import (
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/shamburg82/J-VIBE/internal/extract"
)

// MaxRetries is the default number of judge attempts per chunk.
const MaxRetries = 3

const maxBackoff = 30 * time.Second

// IsRetryable reports whether a judge error is transient (HTTP 429/5xx).
// Timeouts and unparseable replies are not retried.
func IsRetryable(err error) bool {
	var retryErr *extract.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with up to 50% jitter.
func Backoff(attempt int) time.Duration {
	base := min(time.Duration(1<<uint(attempt))*time.Second, maxBackoff)
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// judgeDelay is the retry-go DelayType for judge calls. A rate-limited
// reply waits one step longer than a server error.
func judgeDelay(n uint, err error, _ *retry.Config) time.Duration {
	var retryErr *extract.RetryableError
	if errors.As(err, &retryErr) && retryErr.StatusCode == http.StatusTooManyRequests {
		n++
	}
	return Backoff(int(n))
}
