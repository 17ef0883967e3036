package enhancer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const maxResponseBytes = 1 << 20

// FAL provides a wrapper for a FAL image-to-image endpoint such as an upscaler.
type FAL struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewFAL(endpoint, apiKey string, timeout time.Duration) *FAL {
	return &FAL{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type enhanceRequest struct {
	ImageURL string `json:"image_url"`
}

type falImage struct {
	URL string `json:"url"`
}

// enhanceResponse covers both single image and image list endpoints.
type enhanceResponse struct {
	Image  *falImage  `json:"image"`
	Images []falImage `json:"images"`
}

func (r enhanceResponse) url() string {
	if r.Image != nil && r.Image.URL != "" {
		return r.Image.URL
	}

	if len(r.Images) > 0 {
		return r.Images[0].URL
	}

	return ""
}

func (f *FAL) Enhance(ctx context.Context, url string) (string, error) {
	if len(url) == 0 {
		return "", errors.New("missing image")
	}

	payloadBuf := new(bytes.Buffer)
	err := json.NewEncoder(payloadBuf).Encode(enhanceRequest{ImageURL: url})
	if err != nil {
		return "", fmt.Errorf("error encoding FAL request: %w", err)
	}

	body, err := f.postFALRequest(ctx, payloadBuf)
	if err != nil {
		return "", fmt.Errorf("FAL request failed: %w", err)
	}

	log.Ctx(ctx).Debug().Bytes("body", body).Msg("FAL enhanceResponse")

	var result enhanceResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("error unmarshalling FAL enhanceResponse: %w", err)
	}

	enhanced := result.url()
	if enhanced == "" {
		return "", errors.New("no image returned from FAL response")
	}

	return enhanced, nil
}

func (f *FAL) postFALRequest(ctx context.Context, payloadBuf *bytes.Buffer) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, payloadBuf)
	if err != nil {
		return nil, fmt.Errorf("error creating POST request for FAL: %w", err)
	}

	req.Header.Add("Authorization", "Key "+f.apiKey)
	req.Header.Add("Content-Type", "application/json")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing FAL request: %w", err)
	}

	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("error reading FAL response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		log.Ctx(ctx).Debug().Int("status", res.StatusCode).Bytes("body", body).Msg("FAL error response")
		return nil, fmt.Errorf("unexpected status code from FAL: %d", res.StatusCode)
	}

	return body, nil
}
