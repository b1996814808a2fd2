// Package capability provides the Hugging Face implementation of the image capability.
package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/contentlabs/sift/internal/config"
	"github.com/contentlabs/sift/internal/models"
)

// HuggingFaceClassifier implements the image capability using the Hugging
// Face inference API. The API accepts raw image bytes and returns an
// unordered list of label/score pairs.
type HuggingFaceClassifier struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewHuggingFaceClassifier creates a new Hugging Face image classifier.
func NewHuggingFaceClassifier(cfg *config.CapabilityConfig) (*HuggingFaceClassifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Hugging Face API token is required")
	}

	model := cfg.Model
	if model == "" {
		model = "umm-maybe/AI-image-detector"
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api-inference.huggingface.co"
	}

	return &HuggingFaceClassifier{
		endpoint:   endpoint,
		model:      model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
	}, nil
}

// Name returns the capability name.
func (c *HuggingFaceClassifier) Name() string {
	return "huggingface"
}

// Kind returns the content kind this capability handles.
func (c *HuggingFaceClassifier) Kind() models.ContentKind {
	return models.KindImage
}

type hfLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Invoke classifies the given image bytes.
func (c *HuggingFaceClassifier) Invoke(ctx context.Context, in Input) (*RawOutput, error) {
	url := fmt.Sprintf("%s/models/%s", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(in.Image))
	if err != nil {
		return nil, models.NewUnavailable(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if in.MIME != "" {
		req.Header.Set("Content-Type", in.MIME)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, models.NewTimeout(err)
		}
		return nil, models.NewUnavailable(fmt.Errorf("inference request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, models.NewUnavailable(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		// 503 means the model is still loading; the retry policy covers it.
		return nil, models.NewUnavailable(fmt.Errorf("inference API returned status %d", resp.StatusCode))
	}

	labels, err := parseLabels(body)
	if err != nil {
		return nil, models.NewMalformed(err)
	}

	return &RawOutput{
		Kind:  models.KindImage,
		Model: c.model,
		Image: &ImageRaw{Labels: labels},
	}, nil
}

// parseLabels decodes the classification response. The API returns either a
// flat list of label/score pairs or a batch of such lists.
func parseLabels(body []byte) ([]models.Classification, error) {
	var flat []hfLabel
	if err := json.Unmarshal(body, &flat); err != nil {
		var batch [][]hfLabel
		if err := json.Unmarshal(body, &batch); err != nil || len(batch) == 0 {
			return nil, fmt.Errorf("unexpected classification response shape")
		}
		flat = batch[0]
	}

	if len(flat) == 0 {
		return nil, fmt.Errorf("classification response contains no labels")
	}

	labels := make([]models.Classification, len(flat))
	for i, l := range flat {
		labels[i] = models.Classification{Label: l.Label, Score: l.Score}
	}
	return labels, nil
}
