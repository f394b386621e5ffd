package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	thresholds := Thresholds{High: 0.7}

	t.Run("high ai probability resolves to likely ai", func(t *testing.T) {
		r, err := Resolve(0.87, 0.13, thresholds, 12.5)
		require.NoError(t, err)

		assert.Equal(t, VerdictLikelyAI, r.Verdict)
		assert.True(t, r.IsAI)
		assert.Equal(t, 0.87, r.Confidence)
		assert.Equal(t, 12.5, r.ProcessingTimeMs)
	})

	t.Run("high real probability resolves to likely real", func(t *testing.T) {
		r, err := Resolve(0.2, 0.8, thresholds, 10)
		require.NoError(t, err)

		assert.Equal(t, VerdictLikelyReal, r.Verdict)
		assert.False(t, r.IsAI)
		assert.Equal(t, 0.8, r.Confidence)
	})

	t.Run("probabilities inside the band resolve to uncertain", func(t *testing.T) {
		r, err := Resolve(0.55, 0.45, thresholds, 10)
		require.NoError(t, err)

		assert.Equal(t, VerdictUncertain, r.Verdict)
		assert.False(t, r.IsAI, "uncertain is never reported as AI")
		assert.Equal(t, 0.55, r.Confidence, "confidence is the larger probability")
	})

	t.Run("verdict follows the configured threshold", func(t *testing.T) {
		cases := []struct {
			name    string
			high    float64
			aiProb  float64
			verdict Verdict
		}{
			{"loose threshold accepts moderate evidence", 0.55, 0.6, VerdictLikelyAI},
			{"strict threshold keeps the same evidence uncertain", 0.9, 0.6, VerdictUncertain},
			{"exactly at threshold is decisive", 0.6, 0.6, VerdictLikelyAI},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				r, err := Resolve(tc.aiProb, 1-tc.aiProb, Thresholds{High: tc.high}, 0)
				require.NoError(t, err)
				assert.Equal(t, tc.verdict, r.Verdict)
			})
		}
	})

	t.Run("rejects out of range probabilities", func(t *testing.T) {
		_, err := Resolve(1.2, 0.1, thresholds, 0)
		assert.Error(t, err)

		_, err = Resolve(0.5, -0.1, thresholds, 0)
		assert.Error(t, err)
	})

	t.Run("new results are not cache hits", func(t *testing.T) {
		r, err := Resolve(0.9, 0.1, thresholds, 0)
		require.NoError(t, err)
		assert.False(t, r.CacheHit)
	})
}

func TestWithCacheHit(t *testing.T) {
	original, err := Resolve(0.9, 0.1, DefaultThresholds(), 5)
	require.NoError(t, err)

	hit := original.WithCacheHit()

	assert.True(t, hit.CacheHit)
	assert.False(t, original.CacheHit, "original result is unchanged")
	assert.Equal(t, original.Verdict, hit.Verdict)
}

func TestHealthFrom(t *testing.T) {
	t.Run("loaded model is healthy", func(t *testing.T) {
		h := HealthFrom(ModelInfo{Name: "m", Device: "cuda", Loaded: true})

		assert.Equal(t, "healthy", h.Status)
		assert.True(t, h.ModelLoaded)
		assert.Equal(t, "cuda", h.Device)
	})

	t.Run("unloaded model is offline", func(t *testing.T) {
		h := HealthFrom(ModelInfo{Loaded: false})
		assert.Equal(t, "offline", h.Status)
	})
}
