package detect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentlabs/sift/internal/capability"
	"github.com/contentlabs/sift/internal/config"
	"github.com/contentlabs/sift/internal/models"
	"github.com/contentlabs/sift/internal/ratelimit"
)

// stubInvoker returns a fixed raw output or error and counts calls.
type stubInvoker struct {
	raw   *capability.RawOutput
	err   error
	calls int
}

func (s *stubInvoker) Name() string { return "stub" }

func (s *stubInvoker) Invoke(ctx context.Context, in capability.Input) (*capability.RawOutput, error) {
	s.calls++
	return s.raw, s.err
}

func newTestEngine(t *testing.T, text, image Invoker) (*Engine, *ratelimit.Limiter) {
	t.Helper()
	limiter := ratelimit.New(10, time.Minute)
	t.Cleanup(limiter.Close)
	return NewEngine(NewValidator(config.DefaultConfig().Limits), limiter, text, image), limiter
}

func TestEngineDetectText(t *testing.T) {
	text := &stubInvoker{raw: &capability.RawOutput{
		Kind:  models.KindText,
		Model: "gpt-4o-mini",
		Text:  &capability.TextRaw{Probability: 0.75, Reasoning: "Even cadence."},
	}}
	e, _ := newTestEngine(t, text, &stubInvoker{})

	result, err := e.DetectText(context.Background(), "client", "This is a short test message for analysis.")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.IsAIGenerated)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 1.0)
	assert.Equal(t, models.BandHigh, result.ConfidenceBand)
	assert.Equal(t, 1, text.calls)
}

func TestEngineRejectsInvalidTextBeforeInvocation(t *testing.T) {
	text := &stubInvoker{}
	e, _ := newTestEngine(t, text, &stubInvoker{})

	_, err := e.DetectText(context.Background(), "client", "short")
	var vErr *models.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, models.ValidationTooShort, vErr.Kind)
	assert.Equal(t, 0, text.calls, "invalid input must never reach the capability")
}

func TestEngineRateLimitsBeforeInvocation(t *testing.T) {
	text := &stubInvoker{raw: &capability.RawOutput{
		Kind: models.KindText,
		Text: &capability.TextRaw{Probability: 0.1},
	}}
	e, _ := newTestEngine(t, text, &stubInvoker{})

	input := "This is a short test message for analysis."
	for i := 0; i < 10; i++ {
		_, err := e.DetectText(context.Background(), "client", input)
		require.NoError(t, err)
	}

	_, err := e.DetectText(context.Background(), "client", input)
	var rlErr *models.RateLimitedError
	require.True(t, errors.As(err, &rlErr))
	assert.Greater(t, rlErr.RetryAfter, 0)
	assert.Equal(t, 10, text.calls, "denied requests must never reach the capability")
}

func TestEngineDetectImage(t *testing.T) {
	image := &stubInvoker{raw: &capability.RawOutput{
		Kind:  models.KindImage,
		Model: "detector",
		Image: &capability.ImageRaw{Labels: []models.Classification{
			{Label: "human", Score: 0.35},
			{Label: "artificial", Score: 0.65},
		}},
	}}
	e, _ := newTestEngine(t, &stubInvoker{}, image)

	result, err := e.DetectImage(context.Background(), "client", make([]byte, 512), "image/jpeg")
	require.NoError(t, err)

	assert.True(t, result.IsAIGenerated)
	assert.Equal(t, 0.65, result.Confidence)
	assert.Equal(t, models.BandMedium, result.ConfidenceBand)
	assert.Equal(t, "artificial", result.Classifications[0].Label)
}

func TestEnginePropagatesInvocationFailure(t *testing.T) {
	text := &stubInvoker{err: models.NewTimeout(context.DeadlineExceeded)}
	e, _ := newTestEngine(t, text, &stubInvoker{})

	_, err := e.DetectText(context.Background(), "client", "This is a short test message for analysis.")
	var iErr *models.InvocationError
	require.True(t, errors.As(err, &iErr))
	assert.Equal(t, models.InvocationTimeout, iErr.Kind)
}

func TestEngineWithFakeCapabilityEndToEnd(t *testing.T) {
	fake := capability.NewAdapter(
		capability.NewFake(models.KindText),
		time.Second,
		capability.DefaultRetryPolicy(),
	)
	e, _ := newTestEngine(t, fake, &stubInvoker{})

	first, err := e.DetectText(context.Background(), "a", "This is a short test message for analysis.")
	require.NoError(t, err)
	second, err := e.DetectText(context.Background(), "b", "This is a short test message for analysis.")
	require.NoError(t, err)

	assert.True(t, first.Success)
	assert.Equal(t, first, second, "the same input must yield the same verdict")
}
