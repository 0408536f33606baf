// internal/scrape/scraper.go
package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/uiflow/internal/config"
)

// ErrMenuNotFound is returned when the index page has no navigation menu.
var ErrMenuNotFound = errors.New("navigation menu not found")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Page holds the code samples found on one documentation page.
type Page struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Samples []string `json:"samples"`
}

type link struct {
	title string
	url   string
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithHTTPClient replaces the HTTP client. Its transport is used as is.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) { s.client = c }
}

// Scraper collects sample tests from a documentation site: it reads the menu
// on an index page and then fetches every linked page.
type Scraper struct {
	cfg     config.ScrapeConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New builds a scraper from cfg.
func New(cfg config.ScrapeConfig, logger *zap.Logger, opts ...Option) *Scraper {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	s := &Scraper{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout, Transport: NewTransport(nil)},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.Named("scraper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scrapes the index page and every page in its menu. Pages come back in
// menu order.
func (s *Scraper) Run(ctx context.Context) ([]Page, error) {
	base, err := url.Parse(s.cfg.Base)
	if err != nil || base.Scheme == "" {
		return nil, fmt.Errorf("invalid base url %q", s.cfg.Base)
	}

	index, err := s.fetch(ctx, s.cfg.URL)
	if err != nil {
		return nil, err
	}

	links, err := s.menuLinks(index, base)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Found menu entries.", zap.Int("count", len(links)), zap.String("url", s.cfg.URL))

	pages := make([]Page, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, l := range links {
		g.Go(func() error {
			samples, err := s.samples(gctx, l.url)
			if err != nil {
				return err
			}
			pages[i] = Page{Title: l.title, URL: l.url, Samples: samples}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (s *Scraper) menuLinks(doc *goquery.Document, base *url.URL) ([]link, error) {
	menu := doc.Find(s.cfg.MenuSelector).First()
	if menu.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMenuNotFound, s.cfg.MenuSelector)
	}

	var links []link
	menu.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			s.logger.Debug("Skipping malformed menu link.", zap.String("href", href))
			return
		}
		links = append(links, link{
			title: strings.TrimSpace(a.Text()),
			url:   base.ResolveReference(ref).String(),
		})
	})
	return links, nil
}

// samples returns the text of every sample block inside the page content.
func (s *Scraper) samples(ctx context.Context, pageURL string) ([]string, error) {
	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	content := doc.Find(s.cfg.ContentSelector).First()
	if content.Length() == 0 {
		s.logger.Warn("Page has no content section.", zap.String("url", pageURL))
		return []string{}, nil
	}

	samples := []string{}
	content.Find(s.cfg.SampleSelector).Each(func(_ int, sel *goquery.Selection) {
		samples = append(samples, strings.TrimSpace(sel.Text()))
	})
	s.logger.Debug("Scraped page.", zap.String("url", pageURL), zap.Int("samples", len(samples)))
	return samples, nil
}

func (s *Scraper) fetch(ctx context.Context, target string) (*goquery.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", target, err)
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching %s: %s", target, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", target, err)
	}
	return doc, nil
}

// WriteJSON writes pages as indented JSON to path, creating parent directories.
func WriteJSON(path string, pages []Page) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("could not resolve output path %s: %w", path, err)
	}
	if pages == nil {
		pages = []Page{}
	}

	data, err := json.MarshalIndent(pages, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode pages: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(expanded, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", expanded, err)
	}
	return nil
}
