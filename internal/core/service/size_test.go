package service

import (
	"context"
	"imgenhance/internal/core/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeProber_ProbeSize(t *testing.T) {
	const url = "https://example.com/out.png"

	tests := []struct {
		name     string
		response probeResponse
		want     string
	}{
		{
			name:     "content length",
			response: imageMeta(204800),
			want:     "200.00 KB",
		},
		{
			name:     "missing content length",
			response: imageMeta(0),
			want:     "0.00 KB",
		},
		{
			name:     "forbidden is accepted",
			response: probeResponse{meta: domain.ResourceMeta{StatusCode: 403, ContentLength: 1024}},
			want:     "1.00 KB",
		},
		{
			name:     "not found",
			response: probeResponse{meta: domain.ResourceMeta{StatusCode: 404}},
			want:     domain.UnknownSize,
		},
		{
			name:     "timeout",
			response: probeResponse{err: context.DeadlineExceeded},
			want:     domain.UnknownSize,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prober := &MockProber{responses: map[string]probeResponse{url: tc.response}}
			sizer := NewSizeProber(prober)

			assert.Equal(t, tc.want, sizer.ProbeSize(t.Context(), url))

			calls := prober.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, domain.AcceptSuccessOrForbidden, calls[0].policy)
		})
	}
}
