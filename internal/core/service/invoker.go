package service

import (
	"context"
	"fmt"
	"imgenhance/internal/core/domain"
	"imgenhance/internal/core/port"

	"github.com/rs/zerolog/log"
)

// Invoker calls the enhancement provider and turns every way it can fail into a ProviderFailure. It does not judge
// the returned URL, that is left to the Pipeline.
type Invoker struct {
	enhancer port.ImageEnhancer
}

func NewInvoker(enhancer port.ImageEnhancer) *Invoker {
	return &Invoker{enhancer: enhancer}
}

func (i *Invoker) Invoke(ctx context.Context, url string) (enhancedURL string, err error) {
	l := log.Ctx(ctx).With().Str("sourceURL", url).Logger()

	defer func() {
		if r := recover(); r != nil {
			l.Error().Interface("panic", r).Msg("enhancement provider panicked")
			enhancedURL = ""
			err = fail(domain.ProviderFailure, fmt.Sprint(r))
		}
	}()

	l.Debug().Msg("invoking enhancement provider")

	enhancedURL, err = i.enhancer.Enhance(ctx, url)
	if err != nil {
		l.Error().Err(err).Msg("enhancement provider failed")
		return "", fail(domain.ProviderFailure, err.Error())
	}

	l.Debug().Str("enhancedURL", enhancedURL).Msg("enhancement provider returned")

	return enhancedURL, nil
}
