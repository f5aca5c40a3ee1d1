package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://book.example/docs/intro</loc><lastmod>2024-01-01</lastmod></url>
  <url><loc> https://book.example/docs/ros2 </loc></url>
  <url><loc>https://book.example/blog/tags/robots</loc></url>
  <url><loc></loc></url>
</urlset>`

const testPage = `
<html>
	<head><title>Intro to Humanoids</title></head>
	<body>
		<nav>Home | Docs | Blog</nav>
		<article>
			<h1>Introduction</h1>
			<p>Humanoid robots walk.</p><p>They also balance.</p>
			<script>console.log("ignored")</script>
		</article>
		<footer>Copyright</footer>
	</body>
</html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(testSitemap))
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<urlset><url><loc>unterminated"))
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(testPage))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><script>var x = 1;</script></body></html>"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestScraper(config ScraperConfig) *Scraper {
	config.RateLimit = 1000
	return NewWithConfig(config)
}

func TestScraperConfig(t *testing.T) {
	s := New()
	assert.Equal(t, 30*time.Second, s.config.Timeout)
	assert.Equal(t, 2.0, s.config.RateLimit)
	assert.Equal(t, defaultUserAgent, s.config.UserAgent)

	config := ScraperConfig{
		RateLimit:      1.0,
		IgnorePatterns: []string{"/blog/"},
		Timeout:        10 * time.Second,
		UserAgent:      "test-agent",
	}
	s = NewWithConfig(config)
	assert.Equal(t, config.Timeout, s.config.Timeout)
	assert.Equal(t, "test-agent", s.config.UserAgent)
}

func TestFetchSitemap(t *testing.T) {
	server := newTestServer(t)
	s := newTestScraper(ScraperConfig{})

	urls, err := s.FetchSitemap(context.Background(), server.URL+"/sitemap.xml")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://book.example/docs/intro",
		"https://book.example/docs/ros2",
		"https://book.example/blog/tags/robots",
	}, urls)
}

func TestFetchSitemapIgnorePatterns(t *testing.T) {
	server := newTestServer(t)
	s := newTestScraper(ScraperConfig{IgnorePatterns: []string{"/blog/"}})

	urls, err := s.FetchSitemap(context.Background(), server.URL+"/sitemap.xml")
	require.NoError(t, err)
	assert.Len(t, urls, 2)
	for _, u := range urls {
		assert.NotContains(t, u, "/blog/")
	}
}

func TestFetchSitemapErrors(t *testing.T) {
	server := newTestServer(t)
	s := newTestScraper(ScraperConfig{})

	_, err := s.FetchSitemap(context.Background(), server.URL+"/broken.xml")
	assert.ErrorIs(t, err, ErrParse)

	_, err = s.FetchSitemap(context.Background(), server.URL+"/missing.xml")
	assert.ErrorIs(t, err, ErrFetch)
	assert.Contains(t, err.Error(), "received status code 404")
}

func TestParseSitemap(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    []string
		wantErr bool
	}{
		{
			name: "sitemap index",
			data: `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
				<sitemap><loc>https://book.example/sitemap-docs.xml</loc></sitemap>
			</sitemapindex>`,
			want: []string{"https://book.example/sitemap-docs.xml"},
		},
		{
			name: "wrong namespace is ignored",
			data: `<urlset xmlns="http://example.com/other"><url><loc>https://x</loc></url></urlset>`,
			want: []string{},
		},
		{
			name:    "malformed",
			data:    `not xml at all <`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSitemap([]byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchPage(t *testing.T) {
	server := newTestServer(t)
	s := newTestScraper(ScraperConfig{})

	doc, err := s.FetchPage(context.Background(), server.URL+"/page")
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/page", doc.URL)
	assert.Equal(t, "Intro to Humanoids", doc.Title)
	assert.Equal(t, "Introduction Humanoid robots walk. They also balance.", doc.Content)
	assert.NotContains(t, doc.Content, "console.log")
	assert.NotContains(t, doc.Content, "Copyright")
}

func TestFetchPageNoContent(t *testing.T) {
	server := newTestServer(t)
	s := newTestScraper(ScraperConfig{})

	_, err := s.FetchPage(context.Background(), server.URL+"/empty")
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestFetchPageCancelled(t *testing.T) {
	server := newTestServer(t)
	s := newTestScraper(ScraperConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FetchPage(ctx, server.URL+"/page")
	assert.ErrorIs(t, err, ErrFetch)
}
