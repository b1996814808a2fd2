// Package detect provides content validation for detection requests.
package detect

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/contentlabs/sift/internal/config"
	"github.com/contentlabs/sift/internal/models"
)

// Validator enforces per-type structural constraints before any inference
// call is made. All checks are pure functions of the input.
type Validator struct {
	textMin   int
	textMax   int
	imageMax  int64
	imageMIME map[string]bool
}

// NewValidator creates a validator from the configured limits.
func NewValidator(limits config.LimitsConfig) *Validator {
	allowed := make(map[string]bool, len(limits.ImageTypes))
	for _, t := range limits.ImageTypes {
		allowed[strings.ToLower(t)] = true
	}
	return &Validator{
		textMin:   limits.TextMinChars,
		textMax:   limits.TextMaxChars,
		imageMax:  limits.ImageMaxBytes,
		imageMIME: allowed,
	}
}

// ValidateText checks a text payload against the length constraints.
// Lengths are counted in Unicode code points, not bytes.
func (v *Validator) ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return &models.ValidationError{
			Kind:    models.ValidationEmpty,
			Message: "text must not be empty",
		}
	}

	n := utf8.RuneCountInString(text)
	if n < v.textMin {
		return &models.ValidationError{
			Kind:    models.ValidationTooShort,
			Message: fmt.Sprintf("text must be at least %d characters", v.textMin),
		}
	}
	if n > v.textMax {
		return &models.ValidationError{
			Kind:    models.ValidationTooLong,
			Message: fmt.Sprintf("text must be at most %d characters", v.textMax),
		}
	}
	return nil
}

// ValidateImage checks an image payload against the size limit and the MIME
// type allow-list. Only the declared type is checked; content sniffing is
// the capability's concern.
func (v *Validator) ValidateImage(data []byte, mimeType string) error {
	if len(data) == 0 {
		return &models.ValidationError{
			Kind:    models.ValidationEmpty,
			Message: "image payload must not be empty",
		}
	}
	if int64(len(data)) > v.imageMax {
		return &models.ValidationError{
			Kind:    models.ValidationTooLarge,
			Message: fmt.Sprintf("image must be at most %d bytes", v.imageMax),
		}
	}
	if !v.imageMIME[normalizeMIME(mimeType)] {
		return &models.ValidationError{
			Kind:    models.ValidationUnsupportedType,
			Message: fmt.Sprintf("unsupported image type: %s", mimeType),
		}
	}
	return nil
}

// normalizeMIME lowercases the declared type and strips any parameters.
func normalizeMIME(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
