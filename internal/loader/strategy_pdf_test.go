package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/muratoffalex/linkreader/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFStrategy_Load(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>not a pdf</body></html>"))
	})
	mux.HandleFunc("/broken.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("%PDF-1.4\nthis is not really a pdf\n%%EOF"))
	})
	mux.HandleFunc("/labeled", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("garbage"))
	})
	mux.HandleFunc("/missing.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	strategy := NewPDFStrategy(logger.NewTestLogger(), server.Client(), 0)
	ctx := context.Background()

	t.Run("html is inapplicable", func(t *testing.T) {
		_, err := strategy.Load(ctx, server.URL+"/page")
		assert.ErrorIs(t, err, ErrInapplicable)
	})

	t.Run("malformed pdf by magic bytes", func(t *testing.T) {
		_, err := strategy.Load(ctx, server.URL+"/broken.pdf")

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRetrievalFailed)
		assert.NotErrorIs(t, err, ErrInapplicable)
	})

	t.Run("malformed pdf by content type", func(t *testing.T) {
		_, err := strategy.Load(ctx, server.URL+"/labeled")

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInapplicable)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := strategy.Load(ctx, server.URL+"/missing.pdf")
		assert.ErrorContains(t, err, "404")
	})

	t.Run("body over the limit", func(t *testing.T) {
		small := NewPDFStrategy(logger.NewTestLogger(), server.Client(), 8)

		_, err := small.Load(ctx, server.URL+"/broken.pdf")
		assert.ErrorIs(t, err, ErrBodyTooLarge)
	})
}

func TestExtractPDFText(t *testing.T) {
	_, err := extractPDFText(nil)
	assert.Error(t, err)

	_, err = extractPDFText([]byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF"))
	assert.Error(t, err)
}

func TestIsPDFContentType(t *testing.T) {
	assert.True(t, isPDFContentType("application/pdf"))
	assert.True(t, isPDFContentType("Application/PDF; name=a.pdf"))
	assert.False(t, isPDFContentType("text/html"))
	assert.False(t, isPDFContentType(""))
}
