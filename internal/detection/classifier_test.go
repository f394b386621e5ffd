package detection

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}

func TestRemoteClassifier(t *testing.T) {
	t.Run("parses probabilities from the endpoint", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req classifyRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "test-model", req.Model)
			assert.NotEmpty(t, req.ImageBase64)

			_ = json.NewEncoder(w).Encode(classifyResponse{
				AIProbability:   0.83,
				RealProbability: 0.17,
				Device:          "cuda",
			})
		}))
		defer srv.Close()

		c := NewRemoteClassifier(srv.URL, "test-model")

		aiProb, realProb, err := c.Classify(context.Background(), testImage())
		require.NoError(t, err)

		assert.Equal(t, 0.83, aiProb)
		assert.Equal(t, 0.17, realProb)

		info := c.Info()
		assert.True(t, info.Loaded)
		assert.Equal(t, "cuda", info.Device)
		assert.Equal(t, "test-model", info.Name)
	})

	t.Run("reports unloaded until the first successful call", func(t *testing.T) {
		c := NewRemoteClassifier("http://127.0.0.1:1", "test-model")

		info := c.Info()
		assert.False(t, info.Loaded)
		assert.Equal(t, "unknown", info.Device)
	})

	t.Run("non-200 response is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := NewRemoteClassifier(srv.URL, "test-model")

		_, _, err := c.Classify(context.Background(), testImage())
		require.Error(t, err)
		assert.False(t, c.Info().Loaded)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		c := NewRemoteClassifier(srv.URL, "test-model")

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, _, err := c.Classify(ctx, testImage())
		assert.Error(t, err)
	})

	t.Run("unreachable endpoint is an error", func(t *testing.T) {
		c := NewRemoteClassifier("http://127.0.0.1:1", "test-model")

		_, _, err := c.Classify(context.Background(), testImage())
		assert.Error(t, err)
	})
}
