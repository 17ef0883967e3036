package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	ProbeTimeout      = 5 * time.Second
	ProbeMaxRedirects = 3
)

var (
	ErrUnacceptableStatus = errors.New("unacceptable status code")
	ErrTooManyRedirects   = errors.New("too many redirects")
	ErrInvalidStrictness  = errors.New("invalid strictness")
)

// StatusPolicy decides which probe response codes count as reachable.
type StatusPolicy int

const (
	// AcceptSuccess accepts any 2xx status.
	AcceptSuccess StatusPolicy = iota
	// AcceptSuccessOrForbidden also accepts 403, since some hosts block HEAD
	// requests but still serve the resource.
	AcceptSuccessOrForbidden
)

func (p StatusPolicy) Accepts(code int) bool {
	if code >= 200 && code < 300 {
		return true
	}

	return p == AcceptSuccessOrForbidden && code == http.StatusForbidden
}

func (p StatusPolicy) String() string {
	switch p {
	case AcceptSuccess:
		return "2xx"
	case AcceptSuccessOrForbidden:
		return "2xx|403"
	default:
		return fmt.Sprintf("StatusPolicy(%d)", int(p))
	}
}

// ParseStrictness returns the Strictness for a config value, case-insensitively.
func ParseStrictness(s string) (Strictness, error) {
	switch Strictness(strings.ToLower(strings.TrimSpace(s))) {
	case Basic:
		return Basic, nil
	case Strict:
		return Strict, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStrictness, s)
	}
}
