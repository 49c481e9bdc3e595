package anilibria

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/libria/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	defaultPerPage = 2000
	userAgent      = "libria"
	apiPath        = "/public/api/index.php"
)

// Client implements domain.ReleaseSource against the public catalog API.
type Client struct {
	baseURL    string
	perPage    int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new catalog API client.
func NewClient(baseURL string, perPage int, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		perPage:    perPage,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch returns the raw response text for a named query ("list" or "schedule").
func (c *Client) Fetch(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("query", query)

	switch query {
	case domain.QueryList:
		params.Set("page", "1")
		params.Set("perPage", strconv.Itoa(c.perPage))
	case domain.QuerySchedule:
		params.Set("filter", "id")
	default:
		return "", fmt.Errorf("unsupported query %q", query)
	}

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// doRequest posts a form-encoded query to the API endpoint
func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + apiPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("api request", "url", reqURL, "query", params.Get("query"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("api request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("api request error", "status", resp.StatusCode, "bodyLen", len(body))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return body, nil
}
