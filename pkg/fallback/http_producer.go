package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPProducer asks the content pipeline to render a fallback artifact. The
// response body is taken verbatim as the artifact payload.
type HTTPProducer struct {
	BaseURL string
	Client  *http.Client
}

var _ Producer = &HTTPProducer{}

func NewHTTPProducer(baseURL string, timeout time.Duration) *HTTPProducer {
	return &HTTPProducer{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

type produceRequest struct {
	ContentID       string  `json:"content_id"`
	PlatformTag     string  `json:"platform_tag"`
	PositionSeconds float64 `json:"position_seconds"`
}

func (p *HTTPProducer) Produce(ctx context.Context, platformTag, contentID string, positionSeconds float64) (json.RawMessage, error) {
	payloadBytes, err := json.Marshal(produceRequest{
		ContentID:       contentID,
		PlatformTag:     platformTag,
		PositionSeconds: positionSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/fallback", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("producer request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("producer error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}
	if !json.Valid(bodyBytes) {
		return nil, fmt.Errorf("producer returned invalid JSON")
	}
	return json.RawMessage(bodyBytes), nil
}
