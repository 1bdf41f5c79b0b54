package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"network-orchestrator-be/internal/entity"
)

// HTTPPredictor talks JSON to a prediction service exposing
// POST /v1/predict and GET /health.
type HTTPPredictor struct {
	BaseURL string
	Client  *http.Client
}

var _ RemotePredictor = &HTTPPredictor{}

func NewHTTPPredictor(baseURL string, timeout time.Duration) *HTTPPredictor {
	return &HTTPPredictor{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

type predictRequest struct {
	Samples []SampleRecord `json:"samples"`
}

type predictResponse struct {
	DropPredicted  *bool                  `json:"drop_predicted"`
	Confidence     *float64               `json:"confidence"`
	HorizonSeconds int                    `json:"horizon_seconds"`
	Model          string                 `json:"model"`
	Details        map[string]interface{} `json:"details,omitempty"`
}

func (p *HTTPPredictor) Name() string {
	return "remote:" + p.BaseURL
}

func (p *HTTPPredictor) Predict(ctx context.Context, samples []SampleRecord) (entity.Prediction, error) {
	payloadBytes, err := json.Marshal(predictRequest{Samples: samples})
	if err != nil {
		return entity.Prediction{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/predict", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return entity.Prediction{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return entity.Prediction{}, fmt.Errorf("predictor request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return entity.Prediction{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return entity.Prediction{}, fmt.Errorf("predictor error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var out predictResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return entity.Prediction{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.DropPredicted == nil || out.Confidence == nil {
		return entity.Prediction{}, fmt.Errorf("%w: missing drop_predicted or confidence", ErrMalformedResponse)
	}

	details := out.Details
	if out.Model != "" {
		if details == nil {
			details = make(map[string]interface{})
		}
		details["remote_model"] = out.Model
	}

	return entity.Prediction{
		DropPredicted:  *out.DropPredicted,
		Confidence:     *out.Confidence,
		HorizonSeconds: out.HorizonSeconds,
		Reasoning: entity.Reasoning{
			Model:       p.Name(),
			SampleCount: len(samples),
			Details:     details,
		},
	}, nil
}

func (p *HTTPPredictor) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("predictor unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
