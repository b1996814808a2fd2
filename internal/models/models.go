// Package models defines the core data structures used throughout the application.
package models

import (
	"time"
)

// ContentKind discriminates the two supported payload types.
type ContentKind string

const (
	KindText  ContentKind = "text"
	KindImage ContentKind = "image"
)

// ConfidenceBand is the coarse bucket a confidence score falls into.
type ConfidenceBand string

const (
	BandLow    ConfidenceBand = "low"
	BandMedium ConfidenceBand = "medium"
	BandHigh   ConfidenceBand = "high"
)

// Classification is a single label/score pair from an image classifier.
type Classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// DetectionResult is the canonical verdict returned for every successful
// detection, regardless of which capability produced it.
type DetectionResult struct {
	Success        bool           `json:"success"`
	Type           ContentKind    `json:"type"`
	IsAIGenerated  bool           `json:"isAiGenerated"`
	Confidence     float64        `json:"confidence"`
	ConfidenceBand ConfidenceBand `json:"confidenceBand"`

	// Reasoning is present only for text analysis.
	Reasoning string `json:"reasoning,omitempty"`

	// Model identifies the capability that produced the verdict.
	Model string `json:"model,omitempty"`

	// Classifications is present only for image analysis, ordered by
	// descending score.
	Classifications []Classification `json:"classifications,omitempty"`
}

// DetectTextRequest is the request body for text detection.
type DetectTextRequest struct {
	Text string `json:"text"`
}

// AuditLog represents an API request audit entry. Only request metadata is
// recorded, never the submitted content or the verdict.
type AuditLog struct {
	ID           string    `json:"id"`
	Client       string    `json:"client"`
	Endpoint     string    `json:"endpoint"`
	Method       string    `json:"method"`
	RequestSize  int64     `json:"request_size"`
	ResponseCode int       `json:"response_code"`
	DurationMs   int64     `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}
