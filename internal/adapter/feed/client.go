package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
)

// Client fetches verified projects from the inventory feed. It implements
// catalog.Fetcher and catalog.DetailFetcher.
type Client struct {
	baseURL    string
	token      string
	pageSize   int
	maxPages   int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed client. timeout bounds each HTTP request; the
// catalog cache bounds the whole multi-page fetch separately.
func NewClient(baseURL, token string, pageSize, maxPages int, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		pageSize: pageSize,
		maxPages: maxPages,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchCatalog walks every page of the project listing. Entries without an
// ID are skipped and repeated IDs keep their first occurrence.
func (c *Client) FetchCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	var entries []domain.CatalogEntry
	seen := make(map[string]struct{})
	skipped := 0

	page := 1
	for fetched := 0; fetched < c.maxPages; fetched++ {
		params := url.Values{
			"page":     {strconv.Itoa(page)},
			"pageSize": {strconv.Itoa(c.pageSize)},
		}

		var p Page
		if err := c.getJSON(ctx, c.baseURL+"/v1/projects?"+params.Encode(), &p); err != nil {
			return nil, fmt.Errorf("fetch catalog page %d: %w", page, err)
		}

		for _, item := range p.Items {
			e, ok := item.Entry()
			if !ok {
				skipped++
				continue
			}
			if _, dup := seen[e.ID]; dup {
				skipped++
				continue
			}
			seen[e.ID] = struct{}{}
			entries = append(entries, e)
		}

		if p.NextPage == nil {
			c.logger.Debug("catalog fetched", "pages", fetched+1, "entries", len(entries), "skipped", skipped)
			return entries, nil
		}
		if *p.NextPage <= page {
			return nil, fmt.Errorf("fetch catalog: feed returned non-advancing next page %d after %d", *p.NextPage, page)
		}
		page = *p.NextPage
	}

	c.logger.Warn("catalog page limit reached, using partial catalog",
		"max_pages", c.maxPages,
		"entries", len(entries),
	)
	return entries, nil
}

// FetchProject looks up one project. It reports false, with a nil error,
// when the feed says the project does not exist.
func (c *Client) FetchProject(ctx context.Context, id string) (domain.CatalogEntry, bool, error) {
	var p Project
	err := c.getJSON(ctx, c.baseURL+"/v1/projects/"+url.PathEscape(id), &p)
	if errors.Is(err, errNotFound) {
		return domain.CatalogEntry{}, false, nil
	}
	if err != nil {
		return domain.CatalogEntry{}, false, fmt.Errorf("fetch project %s: %w", id, err)
	}

	e, ok := p.Entry()
	if !ok {
		return domain.CatalogEntry{}, false, nil
	}
	return e, true, nil
}

var errNotFound = errors.New("not found")

func (c *Client) getJSON(ctx context.Context, fullURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("feed API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
