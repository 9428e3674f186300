// Package crawl implements CrawlAdapter: crawl_one, crawl_many (bounded
// parallelism + inter-request delay), and discover(board_url, max_urls).
// Entirely grounded on rcliao-briefly, whose crawl pipeline is goquery-based
// end to end.
package crawl

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/contentforge/pipeline/internal/platform/apperr"
	"github.com/contentforge/pipeline/internal/platform/envconfig"
)

const defaultPaywallThreshold = 500

type Config struct {
	UserAgent        string
	Timeout          time.Duration
	PaywallThreshold int
}

func LoadConfig() Config {
	return Config{
		UserAgent:        envconfig.String("CRAWL_USER_AGENT", "contentforge-pipeline/1.0"),
		Timeout:          envconfig.Duration("CRAWL_TIMEOUT", 20*time.Second),
		PaywallThreshold: envconfig.Int("CRAWL_PAYWALL_THRESHOLD", defaultPaywallThreshold),
	}
}

type Adapter struct {
	cfg Config
	hc  *http.Client
}

func New(cfg Config) *Adapter {
	return &Adapter{cfg: cfg, hc: &http.Client{Timeout: cfg.Timeout}}
}

// PageResult is the result of crawling a single URL.
type PageResult struct {
	URL        string
	Title      string
	Content    string
	OK         bool
	Paywalled  bool
}

// CrawlOne fetches and extracts readable text from a single URL.
func (a *Adapter) CrawlOne(ctx context.Context, url string) (PageResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return PageResult{}, apperr.New(apperr.KindUnknown, "build request", err)
	}
	httpReq.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := a.hc.Do(httpReq)
	if err != nil {
		return PageResult{URL: url, OK: false}, apperr.Wrap(apperr.Classify(err), true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return PageResult{URL: url, OK: false}, apperr.New(apperr.ClassifyStatus(resp.StatusCode), "crawl status "+resp.Status, nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return PageResult{URL: url, OK: false}, apperr.New(apperr.KindParse, "parse html", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	content := extractReadableText(doc)

	threshold := a.cfg.PaywallThreshold
	if threshold <= 0 {
		threshold = defaultPaywallThreshold
	}
	if len(content) < threshold {
		return PageResult{URL: url, Title: title, Content: content, OK: false, Paywalled: true}, nil
	}
	return PageResult{URL: url, Title: title, Content: content, OK: true}, nil
}

func extractReadableText(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, header, aside").Remove()
	var b strings.Builder
	doc.Find("article, main, p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			b.WriteString(text)
			b.WriteString("\n\n")
		}
	})
	if b.Len() == 0 {
		return strings.TrimSpace(doc.Find("body").Text())
	}
	return strings.TrimSpace(b.String())
}

// CrawlMany crawls urls with bounded parallelism and an inter-request delay
// per worker slot, per spec §4.3 step 3.
func (a *Adapter) CrawlMany(ctx context.Context, urls []string, parallelism int, delayBetween time.Duration) []PageResult {
	if parallelism <= 0 {
		parallelism = 5
	}
	results := make([]PageResult, len(urls))
	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, u string) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := a.CrawlOne(ctx, u)
			if err != nil {
				res = PageResult{URL: u, OK: false}
			}
			results[i] = res
			if delayBetween > 0 {
				select {
				case <-time.After(delayBetween):
				case <-ctx.Done():
				}
			}
		}(i, u)
	}
	wg.Wait()
	return results
}

// FindLogoCandidates scans a site's DOM for likely logo image URLs, used by
// the company-profile workflow's logo-extraction step: rel="icon"/
// apple-touch-icon link tags first (favicons, most reliably present), then
// <img> tags whose class/alt/src mentions "logo", resolved against the
// page's base URL.
func (a *Adapter) FindLogoCandidates(ctx context.Context, pageURL string) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, apperr.New(apperr.KindUnknown, "build request", err)
	}
	httpReq.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := a.hc.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.Classify(err), true, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, apperr.New(apperr.ClassifyStatus(resp.StatusCode), "fetch status "+resp.Status, nil)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, apperr.New(apperr.KindParse, "parse page url", err)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, apperr.New(apperr.KindParse, "parse html", err)
	}

	var out []string
	seen := map[string]bool{}
	add := func(href string) {
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref).String()
		if seen[resolved] {
			return
		}
		seen[resolved] = true
		out = append(out, resolved)
	}

	doc.Find(`link[rel="icon"], link[rel="shortcut icon"], link[rel="apple-touch-icon"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		add(href)
	})
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		alt, _ := s.Attr("alt")
		src, _ := s.Attr("src")
		hay := strings.ToLower(class + " " + alt + " " + src)
		if strings.Contains(hay, "logo") {
			add(src)
		}
	})
	return out, nil
}

// DiscoveredLink is one entry returned by Discover.
type DiscoveredLink struct {
	URL   string
	Title string
}

// Discover finds candidate links on a board/listing page, used by the
// company/job subpipelines.
func (a *Adapter) Discover(ctx context.Context, boardURL string, maxURLs int) ([]DiscoveredLink, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, boardURL, nil)
	if err != nil {
		return nil, apperr.New(apperr.KindUnknown, "build request", err)
	}
	httpReq.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := a.hc.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.Classify(err), true, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, apperr.New(apperr.ClassifyStatus(resp.StatusCode), "discover status "+resp.Status, nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, apperr.New(apperr.KindParse, "parse html", err)
	}

	var out []DiscoveredLink
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") {
			return true
		}
		out = append(out, DiscoveredLink{URL: href, Title: strings.TrimSpace(s.Text())})
		return maxURLs <= 0 || len(out) < maxURLs
	})
	return out, nil
}
