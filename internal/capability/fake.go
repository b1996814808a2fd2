// Package capability provides a deterministic offline capability for
// development and tests.
package capability

import (
	"context"
	"hash/fnv"

	"github.com/contentlabs/sift/internal/models"
)

// Fake is a deterministic capability that never leaves the process. The
// verdict is a stable function of the input so repeated submissions agree.
type Fake struct {
	kind models.ContentKind
}

// NewFake creates a fake capability for the given content kind.
func NewFake(kind models.ContentKind) *Fake {
	return &Fake{kind: kind}
}

// Name returns the capability name.
func (f *Fake) Name() string {
	return "fake"
}

// Kind returns the content kind this capability handles.
func (f *Fake) Kind() models.ContentKind {
	return f.kind
}

// Invoke produces a deterministic verdict derived from a hash of the input.
func (f *Fake) Invoke(ctx context.Context, in Input) (*RawOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch f.kind {
	case models.KindImage:
		score := hashScore(in.Image)
		return &RawOutput{
			Kind:  models.KindImage,
			Model: "fake",
			Image: &ImageRaw{
				Labels: []models.Classification{
					{Label: "artificial", Score: score},
					{Label: "human", Score: 1 - score},
				},
			},
		}, nil
	default:
		return &RawOutput{
			Kind:  models.KindText,
			Model: "fake",
			Text: &TextRaw{
				Probability: hashScore([]byte(in.Text)),
				Reasoning:   "Offline verdict derived from a content hash, not a real model.",
			},
		}, nil
	}
}

func hashScore(data []byte) float64 {
	h := fnv.New32a()
	h.Write(data)
	return float64(h.Sum32()%1000) / 999
}
