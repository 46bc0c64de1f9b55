// Package backend talks to the hosted backend-as-a-service that owns the
// catalog and the orders tables. Reads go through its REST interface and
// writes through remote procedures.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/doneduardo/storefront/pkg/errors"
)

const (
	restPrefix                  = "rest/v1"
	defaultTimeout              = 10 * time.Second
	responseBodyReadLimit int64 = 1024
)

var (
	errBaseURLRequired = errors.New("backend url is required")
	errAPIKeyRequired  = errors.New("backend api key is required")
)

// Client calls the hosted backend with the public anon key.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a client for the project at baseURL.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, errBaseURLRequired
	}
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		baseURL:    trimmedURL,
		apiKey:     trimmedKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// RPC invokes the named remote procedure with params and decodes the result
// into out when out is non-nil.
func (c *Client) RPC(ctx context.Context, name string, params, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "backend client not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "rpc name is required")
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal rpc params")
	}

	endpoint := c.buildURL("rpc/"+url.PathEscape(name), nil)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build rpc request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq, "rpc "+name, out)
}

func (c *Client) query(ctx context.Context, table string, params url.Values, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "backend client not configured")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(table, params), nil)
	if err != nil {
		return pkgerrors.Wrapf(pkgerrors.CodeDependency, err, "build %s request", table)
	}
	return c.do(httpReq, "select "+table, out)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrapf(pkgerrors.CodeDependency, err, "execute %s", op)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrapf(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "%s failed", op).
			WithDetail("status", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrapf(pkgerrors.CodeDependency, err, "decode %s response", op)
	}
	return nil
}

func (c *Client) buildURL(path string, params url.Values) string {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, restPrefix, strings.TrimLeft(path, "/"))
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	return endpoint
}

func eq(value string) string {
	return "eq." + value
}

func limitParam(limit int) string {
	return strconv.Itoa(limit)
}
