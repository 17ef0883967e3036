package domain

// EnhancementRequest is the inbound input of a single pipeline run.
type EnhancementRequest struct {
	SourceURL string
}

// EnhancementResult is produced once per successful pipeline run.
type EnhancementResult struct {
	OriginalURL string
	EnhancedURL string
	SizeLabel   string
}

// ResourceMeta holds what a header-only probe learned about a resource.
type ResourceMeta struct {
	StatusCode    int
	ContentType   string
	ContentLength int64
}

type Strictness string

const (
	// Basic only validates the URL syntactically before invoking the provider.
	Basic Strictness = "basic"
	// Strict additionally probes the source URL for reachability and an image content type.
	Strict Strictness = "strict"
)
