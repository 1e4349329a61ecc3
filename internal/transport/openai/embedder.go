// Package openai embeds text and images through an OpenAI-compatible
// /embeddings endpoint serving a multimodal model.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/metrics"
)

const providerName = "openai"

var (
	_ domain.Embedder      = (*Embedder)(nil)
	_ domain.HealthChecker = (*Embedder)(nil)
)

// Config holds the provider settings. Dimensions 0 leaves the model default.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Embedder sends images as base64 data URIs in the input array.
type Embedder struct {
	client *openai.Client
	base   openai.EmbeddingRequest
	logger *zap.Logger
}

// NewEmbedder creates an Embedder.
func NewEmbedder(cfg *Config) *Embedder {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	e := &Embedder{
		client: openai.NewClientWithConfig(cc),
		base: openai.EmbeddingRequest{
			Model:          openai.EmbeddingModel(cfg.Model),
			EncodingFormat: openai.EmbeddingEncodingFormatFloat,
			Dimensions:     max(cfg.Dimensions, 0),
		},
		logger: cfg.Logger,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// EmbedText implements domain.Embedder.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return e.create(ctx, "text", text)
}

// EmbedImage implements domain.Embedder.
func (e *Embedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	uri := "data:" + http.DetectContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
	return e.create(ctx, "image", uri)
}

func (e *Embedder) create(ctx context.Context, kind, input string) (vec []float32, err error) {
	start := time.Now()
	defer func() { metrics.ObserveEmbedding(providerName, kind, start, err) }()

	req := e.base
	req.Input = []string{input}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		e.logger.Debug("Embedding call failed", zap.String("input", kind), zap.Error(err))
		return nil, fmt.Errorf("embed %s: %s: %w", kind, describe(err), domain.ErrEmbeddingProviderError)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embed %s: no vector in response: %w", kind, domain.ErrEmbeddingProviderError)
	}
	return resp.Data[0].Embedding, nil
}

// HealthCheck lists models, which costs nothing on hosted APIs.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// describe renders an API failure for logs and error chains. Self-hosted
// servers often reply with {"detail": ...} instead of the OpenAI envelope.
func describe(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := string(reqErr.Body)
		if detail := detailOf(reqErr.Body); detail != "" {
			body = detail
		}
		return fmt.Sprintf("status %d: %s", reqErr.HTTPStatusCode, body)
	}
	return err.Error()
}

func detailOf(body []byte) string {
	var v struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return ""
	}
	return v.Detail
}
