package detection

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"sync/atomic"
	"time"
)

// Classifier is the opaque model collaborator. Classify may be slow
// (GPU-bound inference) and may fail; callers bound it with a context
// deadline. Implementations must be safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) (aiProb, realProb float64, err error)
	Info() ModelInfo
}

// RemoteClassifier calls a model-serving endpoint over HTTP. Images are
// re-encoded as PNG before transport to avoid introducing compression
// artifacts between hash and classification.
type RemoteClassifier struct {
	endpoint  string
	modelName string
	client    *http.Client
	device    atomic.Value // string, from the last successful response
	loaded    atomic.Bool
}

// NewRemoteClassifier creates a classifier bound to a serving endpoint.
func NewRemoteClassifier(endpoint, modelName string) *RemoteClassifier {
	c := &RemoteClassifier{
		endpoint:  endpoint,
		modelName: modelName,
		client: &http.Client{
			// Per-call deadlines come from the caller's context; this is
			// a hard backstop against leaked connections.
			Timeout: 2 * time.Minute,
		},
	}
	c.device.Store("unknown")
	return c
}

type classifyRequest struct {
	Model       string `json:"model"`
	ImageBase64 string `json:"image_base64"`
}

type classifyResponse struct {
	AIProbability   float64 `json:"ai_probability"`
	RealProbability float64 `json:"real_probability"`
	Device          string  `json:"device"`
}

// Classify sends the image to the serving endpoint and returns the raw
// probabilities.
func (c *RemoteClassifier) Classify(ctx context.Context, img image.Image) (float64, float64, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return 0, 0, fmt.Errorf("classifier: encoding image: %w", err)
	}

	body, err := json.Marshal(classifyRequest{
		Model:       c.modelName,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("classifier: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("classifier: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.loaded.Store(false)
		return 0, 0, fmt.Errorf("classifier: calling %s: %w", c.endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.loaded.Store(false)
		return 0, 0, fmt.Errorf("classifier: endpoint returned %d", resp.StatusCode)
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, 0, fmt.Errorf("classifier: decoding response: %w", err)
	}

	c.loaded.Store(true)
	if out.Device != "" {
		c.device.Store(out.Device)
	}

	return out.AIProbability, out.RealProbability, nil
}

// Info reports the collaborator's last known state.
func (c *RemoteClassifier) Info() ModelInfo {
	device, _ := c.device.Load().(string)
	return ModelInfo{
		Name:   c.modelName,
		Device: device,
		Loaded: c.loaded.Load(),
	}
}
