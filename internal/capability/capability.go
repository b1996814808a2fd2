// Package capability provides a uniform calling convention over external
// inference capabilities. Each capability is an opaque function from an
// input payload to a raw, capability-specific output shape; normalization
// into the canonical result contract happens elsewhere.
package capability

import (
	"context"
	"fmt"

	"github.com/contentlabs/sift/internal/config"
	"github.com/contentlabs/sift/internal/models"
)

// Input carries one validated payload to a capability. Exactly one of Text
// or Image is populated, matching the capability's kind.
type Input struct {
	Text  string
	Image []byte
	MIME  string
}

// TextRaw is the unprocessed verdict from a text-generation capability.
type TextRaw struct {
	Probability float64
	Reasoning   string
}

// ImageRaw is the unprocessed label/score list from an image classifier.
// Ordering is whatever the capability returned.
type ImageRaw struct {
	Labels []models.Classification
}

// RawOutput is a tagged variant: exactly one of Text or Image is set,
// matching Kind.
type RawOutput struct {
	Kind  models.ContentKind
	Model string
	Text  *TextRaw
	Image *ImageRaw
}

// Capability defines the interface for external inference capabilities.
type Capability interface {
	// Name returns the capability name.
	Name() string

	// Kind returns the content kind this capability handles.
	Kind() models.ContentKind

	// Invoke runs one inference call. Failures are reported as
	// *models.InvocationError.
	Invoke(ctx context.Context, in Input) (*RawOutput, error)
}

// New creates a capability for the given content kind based on configuration.
func New(kind models.ContentKind, cfg *config.CapabilityConfig) (Capability, error) {
	switch cfg.Provider {
	case "openai":
		if kind != models.KindText {
			return nil, fmt.Errorf("provider openai only supports text detection")
		}
		return NewOpenAIDetector(cfg)
	case "huggingface":
		if kind != models.KindImage {
			return nil, fmt.Errorf("provider huggingface only supports image classification")
		}
		return NewHuggingFaceClassifier(cfg)
	case "fake":
		return NewFake(kind), nil
	default:
		return nil, fmt.Errorf("unsupported capability provider: %s", cfg.Provider)
	}
}
