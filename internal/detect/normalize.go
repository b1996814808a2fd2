// Package detect provides normalization of raw capability output into the
// canonical result contract.
package detect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/contentlabs/sift/internal/capability"
	"github.com/contentlabs/sift/internal/models"
)

// syntheticLabels is the fixed vocabulary of classifier labels that indicate
// machine-generated origin.
var syntheticLabels = map[string]bool{
	"ai-generated": true,
	"ai_generated": true,
	"ai":           true,
	"artificial":   true,
	"synthetic":    true,
	"generated":    true,
	"deepfake":     true,
	"fake":         true,
}

// Band maps a confidence score onto its presentation band. The rule is
// shared by both detection paths so every client sees consistent bands.
func Band(confidence float64) models.ConfidenceBand {
	switch {
	case confidence >= 0.7:
		return models.BandHigh
	case confidence >= 0.4:
		return models.BandMedium
	default:
		return models.BandLow
	}
}

// Normalize maps a capability's raw output onto the canonical
// DetectionResult shape. It is deterministic: the same raw output always
// yields an identical result.
func Normalize(raw *capability.RawOutput) (*models.DetectionResult, error) {
	switch raw.Kind {
	case models.KindText:
		return normalizeText(raw)
	case models.KindImage:
		return normalizeImage(raw)
	default:
		return nil, models.NewMalformed(fmt.Errorf("unknown content kind: %s", raw.Kind))
	}
}

func normalizeText(raw *capability.RawOutput) (*models.DetectionResult, error) {
	if raw.Text == nil {
		return nil, models.NewMalformed(fmt.Errorf("text output is missing"))
	}

	confidence := clamp01(raw.Text.Probability)
	return &models.DetectionResult{
		Success:        true,
		Type:           models.KindText,
		IsAIGenerated:  confidence >= 0.5,
		Confidence:     confidence,
		ConfidenceBand: Band(confidence),
		Reasoning:      raw.Text.Reasoning,
		Model:          raw.Model,
	}, nil
}

func normalizeImage(raw *capability.RawOutput) (*models.DetectionResult, error) {
	if raw.Image == nil || len(raw.Image.Labels) == 0 {
		return nil, models.NewMalformed(fmt.Errorf("classification output is missing"))
	}

	classifications := make([]models.Classification, len(raw.Image.Labels))
	copy(classifications, raw.Image.Labels)
	sort.SliceStable(classifications, func(i, j int) bool {
		return classifications[i].Score > classifications[j].Score
	})

	top := classifications[0]
	confidence := clamp01(top.Score)
	return &models.DetectionResult{
		Success:         true,
		Type:            models.KindImage,
		IsAIGenerated:   isSyntheticLabel(top.Label),
		Confidence:      confidence,
		ConfidenceBand:  Band(confidence),
		Model:           raw.Model,
		Classifications: classifications,
	}, nil
}

// isSyntheticLabel reports whether a classifier label indicates AI origin.
func isSyntheticLabel(label string) bool {
	label = strings.ToLower(strings.TrimSpace(label))
	if syntheticLabels[label] {
		return true
	}
	// Compound labels like "ai generated image" still count.
	for _, word := range strings.FieldsFunc(label, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}) {
		if word == "ai" || word == "synthetic" || word == "deepfake" {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
