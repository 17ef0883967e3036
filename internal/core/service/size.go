package service

import (
	"context"
	"imgenhance/internal/core/domain"
	"imgenhance/internal/core/port"

	"github.com/rs/zerolog/log"
)

// SizeProber reports the size of a remote resource on a best effort basis. It never fails, an unreachable resource
// is reported as domain.UnknownSize.
type SizeProber struct {
	prober port.Prober
}

func NewSizeProber(prober port.Prober) *SizeProber {
	return &SizeProber{prober: prober}
}

func (s *SizeProber) ProbeSize(ctx context.Context, url string) string {
	meta, err := s.prober.Head(ctx, url, domain.AcceptSuccessOrForbidden)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("url", url).Msg("size probe failed")
		return domain.UnknownSize
	}

	return domain.FormatSize(meta.ContentLength)
}
