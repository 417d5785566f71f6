// Package chronicler drives the upstream archival service's paginated
// cursor for game snapshots. It treats pages
// as the unit of causal progress: a page is either fully consumed and
// checkpointed by the caller or discarded and refetched.
package chronicler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"stormlightlabs.org/gamedb/internal/cache"
	"stormlightlabs.org/gamedb/internal/model"
)

const (
	// DefaultPageSize is also the upstream maximum.
	DefaultPageSize = 1000
	MaxPageSize     = 1000

	gameKind = "game"
)

// Config controls the fetcher's pagination, rate limiting, and retry
// behavior.
type Config struct {
	BaseURL        string
	PageSize       int
	RequestsPerSec float64
	Burst          int
	MaxAttempts    int
	RequestTimeout time.Duration
}

// DefaultConfig returns the recommended fetcher settings.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		PageSize:       DefaultPageSize,
		RequestsPerSec: 10,
		Burst:          20,
		MaxAttempts:    5,
		RequestTimeout: 30 * time.Second,
	}
}

// Client fetches paginated entity snapshots from the chronicler.
type Client struct {
	http    *http.Client
	cache   *cache.Client
	limiter *rate.Limiter
	logger  *log.Logger
	cfg     Config
}

// New builds a chronicler client. cache may be nil to disable the
// response-cache fetch accelerator.
func New(cfg Config, cacheClient *cache.Client, logger *log.Logger) *Client {
	if cfg.PageSize <= 0 || cfg.PageSize > MaxPageSize {
		cfg.PageSize = DefaultPageSize
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		cache:   cacheClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		logger:  logger,
		cfg:     cfg,
	}
}

// Page is one page of the entities endpoint for kind="game": the page's
// own token, the token to resume from (nil when exhausted), and the raw
// game documents it carries.
type Page struct {
	PageToken     string
	NextPageToken *string
	Items         []model.RawGame
}

// FetchGamesPage fetches a single page of game entities starting at
// cursor. An empty cursor requests the first page.
func (c *Client) FetchGamesPage(ctx context.Context, cursor string) (*Page, error) {
	q := url.Values{}
	q.Set("kind", gameKind)
	q.Set("count", strconv.Itoa(c.cfg.PageSize))
	if cursor != "" {
		q.Set("page", cursor)
	}
	reqURL := c.cfg.BaseURL + "/entities?" + q.Encode()

	body, err := c.getWithRetry(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetch error: %w", err)
	}

	var wire struct {
		Items []struct {
			EntityID  string          `json:"entity_id"`
			ValidFrom time.Time       `json:"valid_from"`
			Data      json.RawMessage `json:"data"`
		} `json:"items"`
		NextPage *string `json:"next_page"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("fetch error: decode page: %w", err)
	}

	page := &Page{PageToken: cursor, NextPageToken: wire.NextPage}
	for _, it := range wire.Items {
		page.Items = append(page.Items, model.RawGame{
			EntityID:  it.EntityID,
			ValidFrom: it.ValidFrom,
			Data:      it.Data,
		})
	}

	return page, nil
}

// getWithRetry performs an HTTP GET with exponential backoff, consulting
// (and populating) the upstream response cache when available. HTTP
// errors after exhausting MaxAttempts are fatal and abort the ingest
// run.
func (c *Client) getWithRetry(ctx context.Context, reqURL string) ([]byte, error) {
	upstream := cache.DefaultUpstreamConfig()

	var cacheKey string
	if c.cache != nil {
		cacheKey = c.cache.UpstreamKey(http.MethodGet, c.cfg.BaseURL, reqURL)
		if cached, ok := c.cache.GetHTTPCache(ctx, cacheKey); ok {
			return cached.Body, nil
		}
	}

	var lastErr error
	backoff := 250 * time.Millisecond
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if c.logger != nil {
				c.logger.Debug("retrying chronicler fetch", "url", reqURL, "attempt", attempt, "err", lastErr)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		if c.cache != nil && upstream.EnableConditionalRevalidation {
			c.cache.AddConditionalHeaders(ctx, cacheKey, req)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusNotModified && c.cache != nil {
			resp.Body.Close()
			if err := c.cache.RefreshHTTPCache(ctx, cacheKey, upstream.DetermineTTL(resp)); err == nil {
				if cached, ok := c.cache.GetHTTPCache(ctx, cacheKey); ok {
					return cached.Body, nil
				}
			}
			lastErr = fmt.Errorf("304 without a cached body")
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("upstream status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
		}

		if c.cache != nil {
			_ = c.cache.CacheHTTPResponse(ctx, cacheKey, resp, body, upstream.DetermineTTL(resp))
		}
		return body, nil
	}

	return nil, fmt.Errorf("exhausted %d attempts: %w", c.cfg.MaxAttempts, lastErr)
}
