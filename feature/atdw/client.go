package atdw

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"atdw-sync/feature/sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// retryAfterDefault is the wait Atlas documents for throttled requests
// that carry no Retry-After header.
const retryAfterDefault = 60 * time.Second

// Client talks to the Atlas API and implements sync.Feed. Cursors are
// 1-based page numbers rendered as strings; the empty cursor requests
// the first page.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
	logger  *zap.Logger
}

// NewClient creates a feed client from the configuration.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 2
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: time.Duration(timeout) * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}
}

// listing is the Atlas /products response envelope.
type listing struct {
	Products        []json.RawMessage `json:"products"`
	NumberOfResults int               `json:"numberOfResults"`
}

// FetchPage returns one listing page. Concurrent calls for the same
// cursor share a single request. The call blocks on the rate limiter
// and on throttling backoff; it holds no engine state while doing so.
func (c *Client) FetchPage(ctx context.Context, cursor string) (sync.Page, error) {
	page := 1
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 1 {
			return sync.Page{}, fmt.Errorf("invalid page cursor %q", cursor)
		}
		page = n
	}

	v, err, _ := c.group.Do("page:"+strconv.Itoa(page), func() (any, error) {
		return c.fetchListing(ctx, page)
	})
	if err != nil {
		return sync.Page{}, err
	}
	l := v.(*listing)

	p := sync.Page{Records: make([]sync.ProductRecord, 0, len(l.Products))}
	for _, raw := range l.Products {
		payload := raw
		if c.cfg.FetchDetail {
			if detail, err := c.fetchDetail(ctx, payload); err != nil {
				c.logger.Warn("Detail fetch failed, using listing payload", zap.Error(err))
			} else if detail != nil {
				payload = detail
			}
		}
		p.Records = append(p.Records, MapProduct(payload))
	}

	seen := (page-1)*c.cfg.PageSize + len(l.Products)
	if len(l.Products) > 0 && seen < l.NumberOfResults {
		p.HasMore = true
		p.NextCursor = strconv.Itoa(page + 1)
	}
	return p, nil
}

// fetchListing requests one /products page. A 404 past the last page is
// an empty page, not an error.
func (c *Client) fetchListing(ctx context.Context, page int) (*listing, error) {
	params := url.Values{}
	params.Set("pge", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(c.cfg.PageSize))
	if c.cfg.State != "" {
		params.Set("st", c.cfg.State)
	}
	if c.cfg.Categories != "" {
		params.Set("cats", c.cfg.Categories)
	}

	body, status, err := c.get(ctx, "/products", params)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return &listing{}, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("atlas listing page %d: unexpected status %d", page, status)
	}

	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, fmt.Errorf("decode listing page %d: %w", page, err)
	}
	return &l, nil
}

// Delta returns a feed over the products updated since the given date
// (YYYY-MM-DD), for incremental runs between full catalog passes. The
// delta listing is not paginated; the feed yields it as a single page.
func (c *Client) Delta(since string) sync.Feed {
	return &deltaFeed{client: c, since: since}
}

type deltaFeed struct {
	client *Client
	since  string
}

func (d *deltaFeed) FetchPage(ctx context.Context, cursor string) (sync.Page, error) {
	if cursor != "" {
		return sync.Page{}, fmt.Errorf("delta feed has a single page, got cursor %q", cursor)
	}
	records, err := d.client.fetchDelta(ctx, d.since)
	if err != nil {
		return sync.Page{}, err
	}
	return sync.Page{Records: records}, nil
}

// fetchDelta lists the products updated since the given date.
func (c *Client) fetchDelta(ctx context.Context, since string) ([]sync.ProductRecord, error) {
	params := url.Values{}
	params.Set("updatedSince", since)
	if c.cfg.Categories != "" {
		params.Set("cats", c.cfg.Categories)
	}

	body, status, err := c.get(ctx, "/delta", params)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("atlas delta since %s: unexpected status %d", since, status)
	}

	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, fmt.Errorf("decode delta listing: %w", err)
	}

	records := make([]sync.ProductRecord, 0, len(l.Products))
	for _, raw := range l.Products {
		records = append(records, MapProduct(raw))
	}
	return records, nil
}

// fetchDetail requests the full /product payload for one listing entry.
// Listing payloads omit several collections (services, deals); detail
// responses carry everything at the cost of one request per product.
func (c *Client) fetchDetail(ctx context.Context, listingPayload json.RawMessage) (json.RawMessage, error) {
	var probe struct {
		ProductID string `json:"productId"`
	}
	if err := json.Unmarshal(listingPayload, &probe); err != nil || probe.ProductID == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("productId", probe.ProductID)

	body, status, err := c.get(ctx, "/product", params)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("atlas product %s: unexpected status %d", probe.ProductID, status)
	}
	return body, nil
}

// get performs one authenticated request with rate limiting and 429
// retries. Non-429 statuses are returned to the caller to interpret.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, int, error) {
	params.Set("key", c.cfg.Key)
	params.Set("out", "json")
	u := c.cfg.Endpoint + endpoint + "?" + params.Encode()

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, 0, fmt.Errorf("atlas request %s: %w", endpoint, err)
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusTooManyRequests {
			if readErr != nil {
				return nil, resp.StatusCode, fmt.Errorf("read response: %w", readErr)
			}
			return body, resp.StatusCode, nil
		}

		if attempt >= c.cfg.MaxRetries {
			return nil, resp.StatusCode, fmt.Errorf("atlas request %s: throttled after %d retries", endpoint, attempt)
		}
		wait := backoff(resp.Header.Get("Retry-After"), attempt)
		c.logger.Warn("Atlas throttled request, backing off",
			zap.String("endpoint", endpoint),
			zap.Duration("wait", wait),
			zap.Int("attempt", attempt+1),
		)
		if err := sleep(ctx, wait); err != nil {
			return nil, 0, err
		}
	}
}

// backoff derives the retry wait: the Retry-After header (Atlas default
// 60s when absent) scaled exponentially per attempt.
func backoff(retryAfter string, attempt int) time.Duration {
	wait := retryAfterDefault
	if s, err := strconv.Atoi(retryAfter); err == nil && s >= 0 {
		wait = time.Duration(s) * time.Second
	}
	return wait * (1 << attempt)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
