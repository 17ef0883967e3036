package service

import (
	"context"
	"errors"
	"imgenhance/internal/core/domain"
	"sync"
)

type MockImageEnhancer struct {
	response  string
	err       error
	panicWith any
	respond   func(url string) (string, error)

	mutex sync.Mutex
	urls  []string
}

func (m *MockImageEnhancer) Enhance(_ context.Context, url string) (string, error) {
	m.mutex.Lock()
	m.urls = append(m.urls, url)
	m.mutex.Unlock()

	if m.panicWith != nil {
		panic(m.panicWith)
	}

	if m.respond != nil {
		return m.respond(url)
	}

	return m.response, m.err
}

type probeResponse struct {
	meta domain.ResourceMeta
	err  error
}

type probeCall struct {
	url    string
	policy domain.StatusPolicy
}

// MockProber answers from a fixed table. A missing URL or a status rejected by the policy is an error, like the
// real adapter.
type MockProber struct {
	responses map[string]probeResponse
	fallback  *probeResponse

	mutex sync.Mutex
	calls []probeCall
}

func (m *MockProber) Head(_ context.Context, url string, policy domain.StatusPolicy) (domain.ResourceMeta, error) {
	m.mutex.Lock()
	m.calls = append(m.calls, probeCall{url: url, policy: policy})
	m.mutex.Unlock()

	res, ok := m.responses[url]
	if !ok {
		if m.fallback == nil {
			return domain.ResourceMeta{}, errors.New("connection refused")
		}
		res = *m.fallback
	}

	if res.err != nil {
		return domain.ResourceMeta{}, res.err
	}

	if !policy.Accepts(res.meta.StatusCode) {
		return domain.ResourceMeta{}, domain.ErrUnacceptableStatus
	}

	return res.meta, nil
}

func (m *MockProber) Calls() []probeCall {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return append([]probeCall(nil), m.calls...)
}

func imageMeta(length int64) probeResponse {
	return probeResponse{meta: domain.ResourceMeta{StatusCode: 200, ContentType: "image/png", ContentLength: length}}
}
