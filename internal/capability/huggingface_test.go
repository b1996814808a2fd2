package capability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentlabs/sift/internal/config"
	"github.com/contentlabs/sift/internal/models"
)

func TestParseLabelsFlat(t *testing.T) {
	labels, err := parseLabels([]byte(`[{"label":"artificial","score":0.9},{"label":"human","score":0.1}]`))
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "artificial", labels[0].Label)
	assert.Equal(t, 0.9, labels[0].Score)
}

func TestParseLabelsBatch(t *testing.T) {
	labels, err := parseLabels([]byte(`[[{"label":"human","score":0.7}]]`))
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "human", labels[0].Label)
}

func TestParseLabelsRejectsGarbage(t *testing.T) {
	for _, body := range []string{`{"error":"loading"}`, `[]`, `not json`} {
		_, err := parseLabels([]byte(body))
		assert.Error(t, err, "body %q", body)
	}
}

func newTestClassifier(t *testing.T, handler http.HandlerFunc) (*HuggingFaceClassifier, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewHuggingFaceClassifier(&config.CapabilityConfig{
		APIKey:   "test-token",
		Model:    "test/detector",
		Endpoint: srv.URL,
	})
	require.NoError(t, err)
	return c, srv
}

func TestHuggingFaceInvoke(t *testing.T) {
	c, _ := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/test/detector", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		w.Write([]byte(`[{"label":"artificial","score":0.92},{"label":"human","score":0.08}]`))
	})

	raw, err := c.Invoke(context.Background(), Input{Image: []byte{0x89, 0x50}, MIME: "image/png"})
	require.NoError(t, err)

	assert.Equal(t, models.KindImage, raw.Kind)
	assert.Equal(t, "test/detector", raw.Model)
	require.NotNil(t, raw.Image)
	require.Len(t, raw.Image.Labels, 2)
	assert.Equal(t, 0.92, raw.Image.Labels[0].Score)
}

func TestHuggingFaceInvokeModelLoading(t *testing.T) {
	c, _ := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Model is currently loading"}`, http.StatusServiceUnavailable)
	})

	_, err := c.Invoke(context.Background(), Input{Image: []byte{1}})
	var iErr *models.InvocationError
	require.True(t, errors.As(err, &iErr))
	assert.Equal(t, models.InvocationUnavailable, iErr.Kind)
}

func TestHuggingFaceInvokeMalformedBody(t *testing.T) {
	c, _ := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":"shape"}`))
	})

	_, err := c.Invoke(context.Background(), Input{Image: []byte{1}})
	var iErr *models.InvocationError
	require.True(t, errors.As(err, &iErr))
	assert.Equal(t, models.InvocationMalformed, iErr.Kind)
}

func TestHuggingFaceInvokeTimeout(t *testing.T) {
	c, _ := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background read and can
		// observe the client disconnect; otherwise r.Context() is never
		// cancelled and the handler (and Server.Close) block forever.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Invoke(ctx, Input{Image: []byte{1}})
	var iErr *models.InvocationError
	require.True(t, errors.As(err, &iErr))
	assert.Equal(t, models.InvocationTimeout, iErr.Kind)
}
