package service

import (
	"context"
	"fmt"
	"imgenhance/internal/core/domain"
	"imgenhance/internal/core/port"
	"strings"

	"github.com/rs/zerolog/log"
)

var failureMessages = map[domain.ErrorKind]string{
	domain.MissingURL:            "URL is required",
	domain.InvalidURL:            "invalid URL format",
	domain.UnreachableResource:   "URL is not accessible",
	domain.NotAnImage:            "URL does not point to an image",
	domain.ProviderFailure:       "image enhancement failed",
	domain.InvalidProviderResult: "enhancement provider returned an invalid image URL",
	domain.InternalFault:         "internal error while enhancing image",
}

// fail builds a new failure on every call so callers never share one value.
func fail(kind domain.ErrorKind, cause string) *domain.PipelineFailure {
	f := domain.NewFailure(kind, failureMessages[kind])
	f.Cause = cause
	return f
}

// Pipeline composes validation, provider invocation and size probing into one enhancement request. It holds no
// per-request state and is safe for concurrent use.
type Pipeline struct {
	strictness domain.Strictness
	prober     port.Prober
	invoker    *Invoker
	sizer      *SizeProber
}

func NewPipeline(strictness domain.Strictness, enhancer port.ImageEnhancer, prober port.Prober) *Pipeline {
	return &Pipeline{
		strictness: strictness,
		prober:     prober,
		invoker:    NewInvoker(enhancer),
		sizer:      NewSizeProber(prober),
	}
}

func (p *Pipeline) Strictness() domain.Strictness {
	return p.strictness
}

// Enhance runs the pipeline steps in order and stops at the first failure. The returned error is always a
// *domain.PipelineFailure.
func (p *Pipeline) Enhance(ctx context.Context, request domain.EnhancementRequest) (
	result domain.EnhancementResult, err error) {
	l := log.Ctx(ctx).With().
		Str("sourceURL", request.SourceURL).
		Str("strictness", string(p.strictness)).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			l.Error().Interface("panic", r).Msg("pipeline panicked")
			result = domain.EnhancementResult{}
			err = fail(domain.InternalFault, fmt.Sprint(r))
		}
	}()

	l.Info().Msg("handling request")

	result, err = p.run(ctx, request)
	if err != nil {
		failure := domain.AsFailure(err)
		l.Warn().
			Str("kind", string(failure.Kind)).
			Str("cause", failure.Cause).
			Msg(failure.Message)
		return domain.EnhancementResult{}, failure
	}

	l.Info().
		Str("enhancedURL", result.EnhancedURL).
		Str("size", result.SizeLabel).
		Msg("image enhanced")

	return result, nil
}

func (p *Pipeline) run(ctx context.Context, request domain.EnhancementRequest) (domain.EnhancementResult, error) {
	if request.SourceURL == "" {
		return domain.EnhancementResult{}, fail(domain.MissingURL, "")
	}

	sourceURL := strings.TrimSpace(request.SourceURL)
	if !domain.ValidateURL(sourceURL) {
		return domain.EnhancementResult{}, fail(domain.InvalidURL, "")
	}

	if p.strictness == domain.Strict {
		if err := p.checkImage(ctx, sourceURL); err != nil {
			return domain.EnhancementResult{}, err
		}
	}

	enhancedURL, err := p.invoker.Invoke(ctx, sourceURL)
	if err != nil {
		return domain.EnhancementResult{}, err
	}

	enhancedURL = strings.TrimSpace(enhancedURL)
	if enhancedURL == "" {
		return domain.EnhancementResult{}, fail(domain.InvalidProviderResult, "empty URL")
	}

	if !domain.ValidateURL(enhancedURL) {
		return domain.EnhancementResult{}, fail(domain.InvalidProviderResult, enhancedURL)
	}

	return domain.EnhancementResult{
		OriginalURL: sourceURL,
		EnhancedURL: enhancedURL,
		SizeLabel:   p.sizer.ProbeSize(ctx, enhancedURL),
	}, nil
}

// checkImage makes sure the source answers a header-only request with a 2xx status and an image content type.
func (p *Pipeline) checkImage(ctx context.Context, url string) error {
	meta, err := p.prober.Head(ctx, url, domain.AcceptSuccess)
	if err != nil {
		return fail(domain.UnreachableResource, err.Error())
	}

	if !strings.HasPrefix(strings.ToLower(meta.ContentType), "image/") {
		return fail(domain.NotAnImage, fmt.Sprintf("content type %q", meta.ContentType))
	}

	return nil
}
