package port

import (
	"context"
	"imgenhance/internal/core/domain"
)

type ImageEnhancer interface {
	// Enhance hands the image at url to an external provider and returns the URL of the enhanced image.
	Enhance(ctx context.Context, url string) (string, error)
}

type EnhancementPipeline interface {
	// Enhance runs the full validation, invocation and result checking pipeline for a single request. Any returned
	// error is a *domain.PipelineFailure.
	Enhance(ctx context.Context, request domain.EnhancementRequest) (domain.EnhancementResult, error)
	// Strictness reports how thoroughly the pipeline checks the source URL before invoking the provider.
	Strictness() domain.Strictness
}
