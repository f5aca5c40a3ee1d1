package scraper

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/bookrag/internal/models"
	"golang.org/x/time/rate"
)

// SitemapNamespace is the XML namespace of <loc> elements in a sitemap.
const SitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

const defaultUserAgent = "bookrag-ingest/1.0"

var (
	// ErrFetch is returned when a sitemap or page cannot be retrieved.
	ErrFetch = errors.New("fetch failed")
	// ErrParse is returned when a sitemap is not well-formed XML.
	ErrParse = errors.New("sitemap parse failed")
	// ErrNoContent is returned when a page yields no readable text.
	ErrNoContent = errors.New("no text extracted")
)

type ScraperConfig struct {
	RateLimit      float64 // requests per second
	IgnorePatterns []string
	Timeout        time.Duration
	UserAgent      string
	Client         *http.Client
}

type Scraper struct {
	config  ScraperConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewWithConfig(config ScraperConfig) *Scraper {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}

	client := config.Client
	if client == nil {
		client = &http.Client{
			Timeout: config.Timeout,
		}
	}

	return &Scraper{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

func New() *Scraper {
	return NewWithConfig(ScraperConfig{})
}

type sitemapDoc struct {
	Entries []sitemapEntry `xml:",any"`
}

type sitemapEntry struct {
	Loc string `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 loc"`
}

// FetchSitemap downloads a sitemap and returns the <loc> of every top-level
// entry in document order.
func (s *Scraper) FetchSitemap(ctx context.Context, sitemapURL string) ([]string, error) {
	body, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	urls, err := ParseSitemap(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sitemapURL, err)
	}

	var kept []string
	for _, u := range urls {
		if s.ignored(u) {
			continue
		}
		kept = append(kept, u)
	}
	return kept, nil
}

// ParseSitemap extracts <loc> values from a urlset or sitemapindex document.
func ParseSitemap(data []byte) ([]string, error) {
	var doc sitemapDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	urls := make([]string, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}
		urls = append(urls, loc)
	}
	return urls, nil
}

// FetchPage downloads a page and extracts its readable text.
func (s *Scraper) FetchPage(ctx context.Context, pageURL string) (models.SourceDocument, error) {
	body, err := s.get(ctx, pageURL)
	if err != nil {
		return models.SourceDocument{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.SourceDocument{}, fmt.Errorf("%w: %s: %v", ErrNoContent, pageURL, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	content := extractMainContent(doc)
	if content == "" {
		return models.SourceDocument{}, fmt.Errorf("%w: %s", ErrNoContent, pageURL)
	}

	return models.SourceDocument{
		URL:     pageURL,
		Title:   title,
		Content: content,
	}, nil
}

func (s *Scraper) get(ctx context.Context, target string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, target, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, target, err)
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: received status code %d for URL: %s", ErrFetch, resp.StatusCode, target)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, target, err)
	}
	return body, nil
}

func (s *Scraper) ignored(u string) bool {
	for _, pattern := range s.config.IgnorePatterns {
		if pattern != "" && strings.Contains(u, pattern) {
			return true
		}
	}
	return false
}
