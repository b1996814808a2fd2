// Package detect provides the detection orchestration engine.
package detect

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/contentlabs/sift/internal/capability"
	"github.com/contentlabs/sift/internal/models"
	"github.com/contentlabs/sift/internal/ratelimit"
)

// Invoker is the slice of the invocation adapter the engine depends on.
type Invoker interface {
	Name() string
	Invoke(ctx context.Context, in capability.Input) (*capability.RawOutput, error)
}

// Engine orchestrates the detection pipeline for each request: validation,
// rate budget, capability invocation, normalization. The limiter is an
// explicit collaborator so a distributed implementation can be swapped in
// without touching this pipeline.
type Engine struct {
	validator *Validator
	limiter   *ratelimit.Limiter
	text      Invoker
	image     Invoker
}

// NewEngine creates a new detection engine.
func NewEngine(validator *Validator, limiter *ratelimit.Limiter, text, image Invoker) *Engine {
	return &Engine{
		validator: validator,
		limiter:   limiter,
		text:      text,
		image:     image,
	}
}

// DetectText runs the full pipeline for a text submission. Validation and
// rate-limit failures are rejected before any capability call.
func (e *Engine) DetectText(ctx context.Context, clientID, text string) (*models.DetectionResult, error) {
	if err := e.validator.ValidateText(text); err != nil {
		return nil, err
	}
	if err := e.checkBudget(clientID); err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := e.text.Invoke(ctx, capability.Input{Text: text})
	if err != nil {
		log.Error().Err(err).Str("capability", e.text.Name()).Msg("Text detection failed")
		return nil, err
	}

	result, err := Normalize(raw)
	if err != nil {
		log.Error().Err(err).Str("capability", e.text.Name()).Msg("Failed to normalize text verdict")
		return nil, err
	}

	log.Info().
		Str("kind", string(models.KindText)).
		Str("model", result.Model).
		Float64("confidence", result.Confidence).
		Bool("ai_generated", result.IsAIGenerated).
		Dur("duration", time.Since(start)).
		Msg("Detection complete")

	return result, nil
}

// DetectImage runs the full pipeline for an image submission.
func (e *Engine) DetectImage(ctx context.Context, clientID string, data []byte, mimeType string) (*models.DetectionResult, error) {
	if err := e.validator.ValidateImage(data, mimeType); err != nil {
		return nil, err
	}
	if err := e.checkBudget(clientID); err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := e.image.Invoke(ctx, capability.Input{Image: data, MIME: mimeType})
	if err != nil {
		log.Error().Err(err).Str("capability", e.image.Name()).Msg("Image detection failed")
		return nil, err
	}

	result, err := Normalize(raw)
	if err != nil {
		log.Error().Err(err).Str("capability", e.image.Name()).Msg("Failed to normalize classification")
		return nil, err
	}

	log.Info().
		Str("kind", string(models.KindImage)).
		Str("model", result.Model).
		Float64("confidence", result.Confidence).
		Bool("ai_generated", result.IsAIGenerated).
		Dur("duration", time.Since(start)).
		Msg("Detection complete")

	return result, nil
}

func (e *Engine) checkBudget(clientID string) error {
	r := e.limiter.Check(clientID)
	if !r.Allowed {
		return &models.RateLimitedError{RetryAfter: r.RetryAfterSeconds()}
	}
	return nil
}
