// Package arxiv implements papersources.PaperSource against the arXiv Atom API.
package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// maxFeedBytes bounds the Atom response body.
	maxFeedBytes = 10 << 20

	sourceName = "arxiv"
)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string

	// Timeout bounds a single search call.
	Timeout time.Duration
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Client implements the papersources.PaperSource interface for arXiv.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements PaperSource interface.
var _ papersources.PaperSource = (*Client)(nil)

// New creates a new arXiv client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	return &Client{
		config: cfg,
		httpClient: papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Timeout: cfg.Timeout,
		}),
	}
}

// NewWithHTTPClient creates a new arXiv client with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries arXiv across all fields and returns up to maxResults papers.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]domain.Paper, error) {
	if err := papersources.ValidateSearch(query, maxResults); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	searchURL, err := c.buildSearchURL(query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError(domain.ProviderSearch, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.NewUpstreamError(
			domain.ProviderSearch,
			resp.StatusCode,
			papersources.ErrorExcerpt(resp),
			nil,
		)
	}

	feed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, domain.NewParseError(domain.ProviderSearch, err)
	}

	papers := make([]domain.Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		papers = append(papers, itemToPaper(item))
		if len(papers) == maxResults {
			break
		}
	}

	return papers, nil
}

// Name returns the source identifier.
func (c *Client) Name() string {
	return sourceName
}

// buildSearchURL constructs the arXiv query URL:
// {base}/query?search_query=all:<query>&start=0&max_results=<n>.
func (c *Client) buildSearchURL(query string, maxResults int) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"

	params := url.Values{}
	params.Set("search_query", "all:"+strings.TrimSpace(query))
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))

	baseURL.RawQuery = params.Encode()
	return baseURL.String(), nil
}

// itemToPaper converts a parsed Atom entry to a domain Paper. The Atom
// summary carries the abstract.
func itemToPaper(item *gofeed.Item) domain.Paper {
	authors := make([]string, 0, len(item.Authors))
	for _, a := range item.Authors {
		if a != nil {
			authors = append(authors, a.Name)
		}
	}

	return domain.Paper{
		Title:    item.Title,
		Authors:  authors,
		Abstract: item.Description,
		Link:     itemLink(item),
	}.Normalize()
}

// itemLink prefers the HTML abstract page and falls back to the entry id.
func itemLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	for _, link := range item.Links {
		if link = strings.TrimSpace(link); link != "" {
			return link
		}
	}
	return strings.TrimSpace(item.GUID)
}
