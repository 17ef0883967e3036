package probe

import (
	"context"
	"fmt"
	"imgenhance/internal/core/domain"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

// HTTPProber issues HEAD requests with a fixed timeout and redirect cap.
type HTTPProber struct {
	client *http.Client
}

func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		client: &http.Client{
			Timeout:       domain.ProbeTimeout,
			CheckRedirect: limitRedirects(domain.ProbeMaxRedirects),
		},
	}
}

func limitRedirects(limit int) func(*http.Request, []*http.Request) error {
	return func(_ *http.Request, via []*http.Request) error {
		// via holds every request made so far, the first one included
		if len(via) > limit {
			return fmt.Errorf("%w: stopped after %d", domain.ErrTooManyRedirects, limit)
		}
		return nil
	}
}

func (p *HTTPProber) Head(ctx context.Context, url string, policy domain.StatusPolicy) (domain.ResourceMeta, error) {
	l := log.Ctx(ctx).With().Str("url", url).Str("policy", policy.String()).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		err = fmt.Errorf("error creating probe request: %w", err)
		l.Debug().Err(err).Send()
		return domain.ResourceMeta{}, err
	}

	res, err := p.client.Do(req) //nolint:gosec // probing caller supplied URLs is the point
	if err != nil {
		err = fmt.Errorf("error executing probe request: %w", err)
		l.Debug().Err(err).Send()
		return domain.ResourceMeta{}, err
	}
	defer res.Body.Close()

	if !policy.Accepts(res.StatusCode) {
		err = fmt.Errorf("%w: %d", domain.ErrUnacceptableStatus, res.StatusCode)
		l.Debug().Err(err).Send()
		return domain.ResourceMeta{}, err
	}

	meta := domain.ResourceMeta{
		StatusCode:    res.StatusCode,
		ContentType:   res.Header.Get("Content-Type"),
		ContentLength: parseContentLength(res.Header.Get("Content-Length")),
	}

	l.Debug().
		Int("status", meta.StatusCode).
		Str("contentType", meta.ContentType).
		Int64("contentLength", meta.ContentLength).
		Msg("probe finished")

	return meta, nil
}

// parseContentLength returns 0 for a missing header. A non-numeric Content-Length never gets here, the transport
// fails the whole response with "bad Content-Length" first.
func parseContentLength(header string) int64 {
	n, err := strconv.ParseInt(header, 10, 64)
	if err != nil || n < 0 {
		return 0
	}

	return n
}
