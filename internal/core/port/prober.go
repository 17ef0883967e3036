package port

import (
	"context"
	"imgenhance/internal/core/domain"
)

type Prober interface {
	// Head issues a header-only request against url and returns the response metadata. A status rejected by policy,
	// a network error, a timeout or too many redirects are all returned as errors.
	Head(ctx context.Context, url string, policy domain.StatusPolicy) (domain.ResourceMeta, error)
}
