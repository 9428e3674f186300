// Package llm wraps an OpenAI-compatible chat/image/video API behind a
// small verb-set, grounded on the teacher's internal/clients/openai.Client
// (same method shapes, same env-var configuration style). Every narrative,
// curation, entity-extraction, and classifier call in this module routes
// through this one interface. The only implementation is the OpenAI-compatible
// HTTP client configured from OPENAI_* variables; AI_PROVIDER is not read.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/contentforge/pipeline/internal/platform/apperr"
	"github.com/contentforge/pipeline/internal/platform/envconfig"
	"github.com/contentforge/pipeline/internal/platform/logger"
)

// ImageGeneration is the result of a GenerateImage call.
type ImageGeneration struct {
	Bytes         []byte
	MimeType      string
	URL           string
	RevisedPrompt string
}

// VideoGenerationOptions parameterizes GenerateVideo.
type VideoGenerationOptions struct {
	DurationSeconds int
	Size            string
	ReferenceImageURL string
}

// VideoGeneration is the result of a GenerateVideo call.
type VideoGeneration struct {
	Bytes         []byte
	MimeType      string
	URL           string
	RevisedPrompt string
}

// StreamEvent is one token/progress chunk from StreamText.
type StreamEvent struct {
	Delta string
	Done  bool
}

// Client is the verb-set every adapter needing model inference depends on.
type Client interface {
	// GenerateJSON performs a schema-enforced call; schema is a JSON Schema
	// document and schemaName labels it for provider APIs that require a name.
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]interface{}) (map[string]interface{}, error)
	GenerateText(ctx context.Context, system, user string) (string, error)
	StreamText(ctx context.Context, system, user string) (<-chan StreamEvent, error)
	Embed(ctx context.Context, text string) ([]float64, error)
	GenerateImage(ctx context.Context, prompt string, contextImageURL string) (ImageGeneration, error)
	GenerateVideo(ctx context.Context, prompt string, opts VideoGenerationOptions) (VideoGeneration, error)
}

// Config is the env-sourced configuration for the default HTTP client.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	EmbedModel    string
	ImageModel    string
	ImageSize     string
	VideoModel    string
	VideoSize     string
	Timeout       time.Duration
	MaxRetries    int
}

// LoadConfig reads OPENAI_* env vars, matching the teacher's
// internal/clients/openai.Config field-for-field.
func LoadConfig() Config {
	return Config{
		APIKey:     envconfig.String("OPENAI_API_KEY", ""),
		BaseURL:    envconfig.String("OPENAI_BASE_URL", "https://api.openai.com"),
		Model:      envconfig.String("OPENAI_MODEL", "gpt-5.2"),
		EmbedModel: envconfig.String("OPENAI_EMBED_MODEL", "text-embedding-3-large"),
		ImageModel: envconfig.String("OPENAI_IMAGE_MODEL", "gpt-image-1"),
		ImageSize:  envconfig.String("OPENAI_IMAGE_SIZE", "1024x1024"),
		VideoModel: envconfig.String("OPENAI_VIDEO_MODEL", "sora-2"),
		VideoSize:  envconfig.String("OPENAI_VIDEO_SIZE", "1280x720"),
		Timeout:    time.Duration(envconfig.Int("OPENAI_TIMEOUT_SECONDS", 180)) * time.Second,
		MaxRetries: envconfig.Int("OPENAI_MAX_RETRIES", 4),
	}
}

type httpClient struct {
	cfg Config
	hc  *http.Client
	log *logger.Logger
}

// New constructs the default HTTP-backed Client. Returns apperr with
// KindConfigMissing if no API key is configured, so callers can degrade the
// owning phase gracefully per spec §6.
func New(cfg Config, log *logger.Logger) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.New(apperr.KindConfigMissing, "OPENAI_API_KEY not set", nil)
	}
	return &httpClient{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.Timeout},
		log: log,
	}, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string                 `json:"name"`
	Schema map[string]interface{} `json:"schema"`
	Strict bool                   `json:"strict"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *httpClient) doChat(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", apperr.New(apperr.KindParse, "marshal chat request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", apperr.New(apperr.KindUnknown, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return "", apperr.Wrap(apperr.Classify(err), true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		kind := apperr.ClassifyStatus(resp.StatusCode)
		return "", apperr.New(kind, fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperr.New(apperr.KindParse, "decode chat response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", apperr.New(apperr.KindParse, "empty choices in chat response", nil)
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *httpClient) GenerateText(ctx context.Context, system, user string) (string, error) {
	return c.doChat(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
}

func (c *httpClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]interface{}) (map[string]interface{}, error) {
	text, err := c.doChat(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, apperr.New(apperr.KindSchemaValidation, "response did not parse as JSON object", err)
	}
	return out, nil
}

func (c *httpClient) StreamText(ctx context.Context, system, user string) (<-chan StreamEvent, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: true,
	})
	if err != nil {
		return nil, apperr.New(apperr.KindParse, "marshal stream request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.New(apperr.KindUnknown, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.Classify(err), true, err)
	}
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, apperr.New(apperr.ClassifyStatus(resp.StatusCode), string(respBody), nil)
	}

	out := make(chan StreamEvent)
	go func() {
		defer resp.Body.Close()
		defer close(out)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				select {
				case out <- StreamEvent{Done: true}:
				case <-ctx.Done():
				}
				return
			}
			var chunk struct {
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
				} `json:"choices"`
			}
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			select {
			case out <- StreamEvent{Delta: chunk.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *httpClient) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(map[string]interface{}{
		"model": c.cfg.EmbedModel,
		"input": text,
	})
	if err != nil {
		return nil, apperr.New(apperr.KindParse, "marshal embed request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.New(apperr.KindUnknown, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.Classify(err), true, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, apperr.New(apperr.ClassifyStatus(resp.StatusCode), string(respBody), nil)
	}
	var parsed struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.New(apperr.KindParse, "decode embed response", err)
	}
	if len(parsed.Data) == 0 {
		return nil, apperr.New(apperr.KindParse, "empty embedding data", nil)
	}
	return parsed.Data[0].Embedding, nil
}

func (c *httpClient) GenerateImage(ctx context.Context, prompt string, contextImageURL string) (ImageGeneration, error) {
	payload := map[string]interface{}{
		"model":  c.cfg.ImageModel,
		"prompt": prompt,
		"size":   c.cfg.ImageSize,
	}
	if contextImageURL != "" {
		payload["context_image_url"] = contextImageURL
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return ImageGeneration{}, apperr.New(apperr.KindParse, "marshal image request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/images/generations", bytes.NewReader(body))
	if err != nil {
		return ImageGeneration{}, apperr.New(apperr.KindUnknown, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return ImageGeneration{}, apperr.Wrap(apperr.Classify(err), true, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return ImageGeneration{}, apperr.New(apperr.ClassifyStatus(resp.StatusCode), string(respBody), nil)
	}
	var parsed struct {
		Data []struct {
			URL           string `json:"url"`
			RevisedPrompt string `json:"revised_prompt"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ImageGeneration{}, apperr.New(apperr.KindParse, "decode image response", err)
	}
	if len(parsed.Data) == 0 {
		return ImageGeneration{}, apperr.New(apperr.KindParse, "empty image data", nil)
	}
	return ImageGeneration{URL: parsed.Data[0].URL, RevisedPrompt: parsed.Data[0].RevisedPrompt, MimeType: "image/png"}, nil
}

func (c *httpClient) GenerateVideo(ctx context.Context, prompt string, opts VideoGenerationOptions) (VideoGeneration, error) {
	size := opts.Size
	if size == "" {
		size = c.cfg.VideoSize
	}
	payload := map[string]interface{}{
		"model":            c.cfg.VideoModel,
		"prompt":           prompt,
		"size":             size,
		"duration_seconds": opts.DurationSeconds,
	}
	if opts.ReferenceImageURL != "" {
		payload["reference_image_url"] = opts.ReferenceImageURL
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return VideoGeneration{}, apperr.New(apperr.KindParse, "marshal video request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/videos/generations", bytes.NewReader(body))
	if err != nil {
		return VideoGeneration{}, apperr.New(apperr.KindUnknown, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return VideoGeneration{}, apperr.Wrap(apperr.Classify(err), true, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return VideoGeneration{}, apperr.New(apperr.ClassifyStatus(resp.StatusCode), string(respBody), nil)
	}
	var parsed struct {
		Data []struct {
			URL           string `json:"url"`
			RevisedPrompt string `json:"revised_prompt"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return VideoGeneration{}, apperr.New(apperr.KindParse, "decode video response", err)
	}
	if len(parsed.Data) == 0 {
		return VideoGeneration{}, apperr.New(apperr.KindParse, "empty video data", nil)
	}
	return VideoGeneration{URL: parsed.Data[0].URL, RevisedPrompt: parsed.Data[0].RevisedPrompt, MimeType: "video/mp4"}, nil
}
