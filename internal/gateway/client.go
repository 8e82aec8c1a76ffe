package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxBodyBytes = 16 << 20

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type PageRequest struct {
	Page int
	Size int
	Sort string
}

func (p PageRequest) values() url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(max(p.Page, 0)))
	if p.Size > 0 {
		values.Set("size", strconv.Itoa(p.Size))
	}
	if p.Sort != "" {
		values.Set("sort", p.Sort)
	}
	return values
}

type Download struct {
	ContentType string
	Filename    string
	Body        []byte
}

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// isPublicPath reports whether a request to path must go out without the
// bearer credential.
func isPublicPath(path string) bool {
	return path == "/auth/login" || strings.HasPrefix(path, "/publico/")
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, token string, body any) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" && !isPublicPath(path) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, op string) (*http.Response, []byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	apiLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		apiCalls.WithLabelValues(op, string(KindNetwork)).Inc()
		if !errors.Is(err, context.Canceled) {
			c.logger.Warn("api request failed", zap.String("op", op), zap.String("path", req.URL.Path), zap.Error(err))
		}
		return nil, nil, networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		apiCalls.WithLabelValues(op, string(KindNetwork)).Inc()
		return nil, nil, networkError(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		apiErr := normalize(resp.StatusCode, strings.TrimSpace(env.Message))
		apiCalls.WithLabelValues(op, string(apiErr.Kind)).Inc()
		fields := []zap.Field{zap.String("op", op), zap.String("path", req.URL.Path), zap.Int("status", resp.StatusCode)}
		if apiErr.Kind == KindServer {
			c.logger.Error("api error", fields...)
		} else {
			c.logger.Info("api error", fields...)
		}
		return nil, nil, apiErr
	}
	return resp, raw, nil
}

// do performs a JSON call and decodes the envelope payload into out.
// Bodies that are not enveloped are decoded as the payload itself.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, token string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, token, body)
	if err != nil {
		return err
	}
	resp, raw, err := c.send(req, op)
	if err != nil {
		return err
	}

	payload := json.RawMessage(raw)
	if len(bytes.TrimSpace(raw)) > 0 {
		var env envelope
		if err := json.Unmarshal(raw, &env); err == nil && env.Success != nil {
			if !*env.Success {
				apiCalls.WithLabelValues(op, string(KindRejected)).Inc()
				return rejected(resp.StatusCode, strings.TrimSpace(env.Message))
			}
			payload = env.Data
		}
	}
	apiCalls.WithLabelValues(op, "ok").Inc()

	if out == nil || len(bytes.TrimSpace(payload)) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &Error{Status: resp.StatusCode, Kind: KindUnknown, Message: MessageUnknown, Err: fmt.Errorf("decode %s: %w", op, err)}
	}
	return nil
}

func (c *Client) download(ctx context.Context, op, path, token string) (Download, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, token, nil)
	if err != nil {
		return Download{}, err
	}
	req.Header.Set("Accept", "application/pdf, application/octet-stream")
	resp, raw, err := c.send(req, op)
	if err != nil {
		return Download{}, err
	}
	apiCalls.WithLabelValues(op, "ok").Inc()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return Download{
		ContentType: contentType,
		Filename:    attachmentName(resp.Header.Get("Content-Disposition")),
		Body:        raw,
	}, nil
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func idPath(prefix string, id int64, suffix ...string) string {
	path := prefix + "/" + strconv.FormatInt(id, 10)
	for _, part := range suffix {
		path += "/" + part
	}
	return path
}
