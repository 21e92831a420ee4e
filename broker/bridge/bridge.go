// Package bridge talks to a MetaTrader 5 terminal through an HTTP bridge
// running next to it. The bridge exposes the terminal API as JSON.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"signalbot/broker"
	"signalbot/tracer"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

var _ broker.Broker = (*Client)(nil)

func New(baseURL string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bridge %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// do sends body (if any) as JSON and decodes the response into out (if any).
// It reports false when the bridge answered 204 No Content.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (bool, error) {
	ctx, span := tracer.Start(ctx, "broker.bridge."+strings.ToLower(method))
	defer span.End()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return false, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return false, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("bridge %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return false, &StatusError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(msg)),
		}
	}
	if resp.StatusCode == http.StatusNoContent || out == nil {
		return resp.StatusCode != http.StatusNoContent, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode bridge response for %s: %w", path, err)
	}
	return true, nil
}

// Initialize attaches the bridge to its terminal.
func (c *Client) Initialize(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodPost, "/initialize", nil, nil); err != nil {
		return fmt.Errorf("%w: %v", broker.ErrNotConnected, err)
	}
	return nil
}

func (c *Client) SelectSymbol(ctx context.Context, symbol string) error {
	_, err := c.do(ctx, http.MethodPost, "/symbols/"+url.PathEscape(symbol)+"/select", nil, nil)
	return c.symbolErr(symbol, err)
}

func (c *Client) AccountInfo(ctx context.Context) (*broker.AccountInfo, error) {
	info := &broker.AccountInfo{}
	if _, err := c.do(ctx, http.MethodGet, "/account", nil, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *Client) SymbolInfo(ctx context.Context, symbol string) (*broker.SymbolInfo, error) {
	info := &broker.SymbolInfo{}
	if _, err := c.do(ctx, http.MethodGet, "/symbols/"+url.PathEscape(symbol), nil, info); err != nil {
		return nil, c.symbolErr(symbol, err)
	}
	return info, nil
}

func (c *Client) SendOrder(ctx context.Context, req broker.OrderRequest) (*broker.OrderResult, error) {
	var res *broker.OrderResult
	ok, err := c.do(ctx, http.MethodPost, "/orders", req, &res)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return res, nil
}

func (c *Client) LastError(ctx context.Context) (broker.LastError, error) {
	var le broker.LastError
	_, err := c.do(ctx, http.MethodGet, "/last-error", nil, &le)
	return le, err
}

// Close detaches the bridge from the terminal.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := c.do(ctx, http.MethodPost, "/shutdown", nil, nil)
	if err != nil {
		c.log.Warn("failed to shut down bridge", zap.Error(err))
	}
	return err
}

func (c *Client) symbolErr(symbol string, err error) error {
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", broker.ErrSymbolNotFound, symbol)
	}
	return err
}
