// Package clip is an HTTP client for a CLIP-style model server exposing
// /embed/text, /embed/image and /embed/face.
package clip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/metrics"
)

const (
	providerName   = "clip"
	maxErrorBody   = 512
	defaultTimeout = 60 * time.Second
)

// Compile-time checks.
var (
	_ domain.Embedder      = (*Client)(nil)
	_ domain.FaceDetector  = (*Client)(nil)
	_ domain.HealthChecker = (*Client)(nil)
)

// Client talks to the model server. Safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a model server client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type embeddingResponse struct {
	Dim        int       `json:"dim"`
	Embedding  []float32 `json:"embedding"`
	Model      string    `json:"model"`
	Pretrained string    `json:"pretrained"`
}

type faceDetection struct {
	FaceIndex int       `json:"face_index"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

type faceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

type textEmbeddingRequest struct {
	Text string `json:"text"`
}

// EmbedText implements domain.Embedder via POST /embed/text.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(textEmbeddingRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	body, err := c.post(ctx, "/embed/text", "application/json", bytes.NewReader(reqBody))
	return c.decodeEmbedding("text", start, body, err)
}

// EmbedImage implements domain.Embedder via multipart POST /embed/image.
func (c *Client) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	start := time.Now()
	body, err := c.postImage(ctx, "/embed/image", image)
	return c.decodeEmbedding("image", start, body, err)
}

func (c *Client) decodeEmbedding(kind string, start time.Time, body []byte, err error) (vec []float32, retErr error) {
	defer func() { metrics.ObserveEmbedding(providerName, kind, start, retErr) }()

	if err != nil {
		return nil, fmt.Errorf("embed %s: %w: %w", kind, domain.ErrEmbeddingProviderError, err)
	}

	var resp embeddingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse %s embedding: %w: %w", kind, domain.ErrEmbeddingProviderError, err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("empty %s embedding returned: %w", kind, domain.ErrEmbeddingProviderError)
	}
	return resp.Embedding, nil
}

// DetectFaces implements domain.FaceDetector via multipart POST /embed/face.
func (c *Client) DetectFaces(ctx context.Context, image []byte) ([]domain.Face, error) {
	body, err := c.postImage(ctx, "/embed/face", image)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w: %w", domain.ErrFaceDetectorError, err)
	}

	var resp faceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse face response: %w: %w", domain.ErrFaceDetectorError, err)
	}

	faces := make([]domain.Face, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		face := domain.Face{Score: f.DetScore}
		copy(face.BBox[:], f.BBox)
		faces = append(faces, face)
	}
	return faces, nil
}

// HealthCheck pings GET /health.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// postImage sends image bytes as the multipart "file" field with a sniffed Content-Type.
func (c *Client) postImage(ctx context.Context, endpoint string, image []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image"`)
	h.Set("Content-Type", http.DetectContentType(image))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	return c.post(ctx, endpoint, writer.FormDataContentType(), &buf)
}

func (c *Client) post(ctx context.Context, endpoint, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
