package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	errs "redirsync/pkg/errors"
	"redirsync/pkg/logger"
	"redirsync/pkg/ratelimit"
	"redirsync/pkg/redirect"
)

const (
	redirectsPath   = "/redirects"
	batchPath       = "/redirects/batch"
	batchDeletePath = "/redirects/batch_delete"
	keysPath        = "/redirects/keys"
)

// Client talks to the remote redirect API. Every failure leaving this
// package is classified into the error taxonomy, so callers never see
// raw transport or status errors.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates an API client for one account/workspace pair
func NewClient(baseURL, account, workspace string, timeout time.Duration, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		headers: map[string]string{
			"Accept":      "application/json",
			"X-Account":   account,
			"X-Workspace": workspace,
		},
		limiter: limiter,
		logger:  log,
	}
}

// ExportPage fetches one page of redirects. An empty cursor fetches the
// first page.
func (c *Client) ExportPage(ctx context.Context, cursor string) (*Page, error) {
	endpoint := c.baseURL + redirectsPath
	if cursor != "" {
		endpoint += "?cursor=" + url.QueryEscape(cursor)
	}

	var page Page
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ImportBatch upserts one batch of redirect records
func (c *Client) ImportBatch(ctx context.Context, records []redirect.Record) error {
	return c.postJSON(ctx, c.baseURL+batchPath, importRequest{Records: records})
}

// DeleteBatch removes redirects by their identity keys
func (c *Client) DeleteBatch(ctx context.Context, keys []string) error {
	return c.postJSON(ctx, c.baseURL+batchDeletePath, deleteRequest{Keys: keys})
}

// ListKeys pages through every existing redirect key on the remote.
// Used by the reset flow to compute the set difference against an
// import file.
func (c *Client) ListKeys(ctx context.Context) ([]string, error) {
	var keys []string
	cursor := ""

	for {
		endpoint := c.baseURL + keysPath
		if cursor != "" {
			endpoint += "?cursor=" + url.QueryEscape(cursor)
		}

		var page keysPage
		if err := c.getJSON(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		keys = append(keys, page.Keys...)
		if page.NextCursor == "" {
			return keys, nil
		}
		cursor = page.NextCursor
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, err, "building request")
	}

	body, err := c.do(req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, err, "decoding response body")
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, err, "encoding request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}

	var ack batchResponse
	if err := json.Unmarshal(body, &ack); err == nil && ack.Message != "" && !ack.OK {
		return errs.New(errs.ErrorTypeClient, ack.Message)
	}
	return nil
}

// do sends the request through the rate limiter, classifying any
// transport failure or non-2xx status before it escapes.
func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending API request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr == context.Canceled {
			return nil, ctxErr
		}
		return nil, errs.Classify(err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("API request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Classify(fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.FromStatusCode(resp.StatusCode, resp.Header, string(body))
	}

	return body, nil
}
