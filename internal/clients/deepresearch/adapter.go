// Package deepresearch implements DeepResearchAdapter: research(instructions,
// timeout) -> {content, task_outputs[], research_id}, streaming progress
// events over SSE and treating mid-stream errors as partial success.
// Grounded on the teacher's internal/clients/openai StreamText SSE parsing
// loop, generalized to a standalone research API.
package deepresearch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/contentforge/pipeline/internal/platform/apperr"
	"github.com/contentforge/pipeline/internal/platform/envconfig"
	"github.com/google/uuid"
)

type Config struct {
	APIKey  string
	BaseURL string
}

func LoadConfig() Config {
	return Config{
		APIKey:  envconfig.String("DEEPRESEARCH_API_KEY", ""),
		BaseURL: envconfig.String("DEEPRESEARCH_BASE_URL", "https://api.deepresearch.example/v1"),
	}
}

type Adapter struct {
	cfg Config
	hc  *http.Client
}

func New(cfg Config) *Adapter {
	return &Adapter{cfg: cfg, hc: &http.Client{}}
}

// Result is the research(instructions, timeout) contract output.
type Result struct {
	Content      string
	TaskOutputs  []string
	ResearchID   string
	PartialFail  bool
}

// Research streams a deep-research run; on mid-stream error, returns
// whatever task_outputs arrived with PartialFail=true rather than failing
// the call outright, per spec §4.2.
func (a *Adapter) Research(ctx context.Context, instructions string, timeout time.Duration) (Result, error) {
	if a.cfg.APIKey == "" {
		return Result{}, apperr.New(apperr.KindConfigMissing, "DEEPRESEARCH_API_KEY not set", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	researchID := uuid.NewString()
	body, err := json.Marshal(map[string]interface{}{
		"instructions": instructions,
		"research_id":  researchID,
		"stream":       true,
	})
	if err != nil {
		return Result{}, apperr.New(apperr.KindParse, "marshal research request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/research", strings.NewReader(string(body)))
	if err != nil {
		return Result{}, apperr.New(apperr.KindUnknown, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.hc.Do(httpReq)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.Classify(err), true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return Result{}, apperr.New(apperr.ClassifyStatus(resp.StatusCode), fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	result := Result{ResearchID: researchID}
	var contentBuilder strings.Builder

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}
		var event struct {
			Type        string `json:"type"`
			Delta       string `json:"delta"`
			TaskOutput  string `json:"task_output"`
			Error       string `json:"error"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			continue
		}
		switch event.Type {
		case "content_delta":
			contentBuilder.WriteString(event.Delta)
		case "task_output":
			result.TaskOutputs = append(result.TaskOutputs, event.TaskOutput)
		case "error":
			result.PartialFail = true
			result.Content = contentBuilder.String()
			return result, nil
		}
	}
	if err := scanner.Err(); err != nil {
		result.PartialFail = true
		result.Content = contentBuilder.String()
		return result, nil
	}
	result.Content = contentBuilder.String()
	return result, nil
}
