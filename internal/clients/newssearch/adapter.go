// Package newssearch implements NewsSearchAdapter: search(keywords, region,
// freshness) and search_for_topic(query, region, limit), returning
// RawSource entries with ISO timestamps when available. Grounded on
// tomtom215-cartographus's golang.org/x/time/rate dependency for the
// adapter-internal limiter; no pack repo exposes a news-search client, so
// the HTTP request shape follows the teacher's openai-client request
// builder style.
package newssearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/contentforge/pipeline/internal/domain"
	"github.com/contentforge/pipeline/internal/platform/apperr"
	"github.com/contentforge/pipeline/internal/platform/envconfig"
	"golang.org/x/time/rate"
)

type Adapter struct {
	apiKey   string
	baseURL  string
	hc       *http.Client
	limiter  *rate.Limiter
}

// Config holds the adapter's env-sourced settings.
type Config struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

func LoadConfig() Config {
	return Config{
		APIKey:            envconfig.String("NEWSSEARCH_API_KEY", ""),
		BaseURL:           envconfig.String("NEWSSEARCH_BASE_URL", "https://api.serper.dev"),
		RequestsPerSecond: envconfig.Float64("NEWSSEARCH_RPS", 5),
		Burst:             envconfig.Int("NEWSSEARCH_BURST", 5),
		Timeout:           envconfig.Duration("NEWSSEARCH_TIMEOUT", 15*time.Second),
	}
}

func New(cfg Config) *Adapter {
	return &Adapter{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		hc:      &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

type searchResultItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	Date        string `json:"date"`
}

// Search fetches news for the given keywords, optionally scoped to a search
// region and a freshness window (e.g. "qdr:d" for the last day).
func (a *Adapter) Search(ctx context.Context, keywords []string, region, freshness string) ([]domain.RawSource, error) {
	if a.apiKey == "" {
		return nil, apperr.New(apperr.KindConfigMissing, "NEWSSEARCH_API_KEY not set", nil)
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, apperr.New(apperr.KindTimeout, "rate limiter wait cancelled", err)
	}

	query := strings.Join(keywords, " ")
	return a.doSearch(ctx, query, region, freshness, 0)
}

// SearchForTopic is search_for_topic(query, region, limit).
func (a *Adapter) SearchForTopic(ctx context.Context, query, region string, limit int) ([]domain.RawSource, error) {
	if a.apiKey == "" {
		return nil, apperr.New(apperr.KindConfigMissing, "NEWSSEARCH_API_KEY not set", nil)
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, apperr.New(apperr.KindTimeout, "rate limiter wait cancelled", err)
	}
	return a.doSearch(ctx, query, region, "", limit)
}

func (a *Adapter) doSearch(ctx context.Context, query, region, freshness string, limit int) ([]domain.RawSource, error) {
	reqBody, err := json.Marshal(map[string]interface{}{
		"q":         query,
		"gl":        region,
		"tbs":       freshness,
	})
	if err != nil {
		return nil, apperr.New(apperr.KindParse, "marshal search request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/news", strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, apperr.New(apperr.KindUnknown, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", a.apiKey)

	resp, err := a.hc.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.Classify(err), true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, apperr.New(apperr.ClassifyStatus(resp.StatusCode), fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var parsed struct {
		News []searchResultItem `json:"news"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.New(apperr.KindParse, "decode search response", err)
	}

	items := parsed.News
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	sources := make([]domain.RawSource, 0, len(items))
	for i, it := range items {
		var publishedAt *time.Time
		if it.Date != "" {
			if t, err := parseLooseDate(it.Date); err == nil {
				publishedAt = &t
			}
		}
		sources = append(sources, domain.RawSource{
			SourceID:    fmt.Sprintf("news_%d", i),
			SourceKind:  domain.SourceKindNews,
			URL:         it.Link,
			Title:       it.Title,
			ContentText: it.Snippet,
			PublishedAt: publishedAt,
		})
	}
	return sources, nil
}

func parseLooseDate(s string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02", "Jan 2, 2006"}
	var lastErr error
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
