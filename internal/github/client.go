package gh

import (
	"context"
	"errors"
)

// PagesBuild describes a GitHub Pages build.
type PagesBuild struct {
	URL    string
	Status string
	Commit string
}

// Client exposes the GitHub operations required after a deploy.
type Client interface {
	RequestPagesBuild(ctx context.Context, owner, repo string) (PagesBuild, error)
	LatestPagesBuild(ctx context.Context, owner, repo string) (PagesBuild, error)
}

// Factory builds concrete GitHub clients (e.g., REST-backed).
type Factory interface {
	New(ctx context.Context, token string) (Client, error)
}

// ErrPagesNotEnabled indicates the repository has no GitHub Pages site.
var ErrPagesNotEnabled = errors.New("github: pages not enabled")

// retryableError marks an error that may succeed if the operation is retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	if e == nil || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// IsRetryable reports whether the supplied error resulted from a transient
// GitHub API failure (for example, a network timeout or rate-limited request).
// Nothing here retries; callers use it to word their warnings.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var target *retryableError
	return errors.As(err, &target)
}
