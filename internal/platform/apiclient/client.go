// Package apiclient is the HTTP client for the UHS backend REST API. Every
// request goes through Client.Do or Client.Download, which attach the bearer
// token, apply a per-request timeout, and map failures onto the error kinds
// in errors.go. Requests are never retried automatically.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultTimeout = 10 * time.Second
	// ExportTimeout applies to exports, backups and uploads.
	ExportTimeout   = 30 * time.Second
	maxErrorBodyLen = 1 << 20
)

// TokenSource supplies the bearer token for authenticated requests.
type TokenSource interface {
	Token() (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() (string, error)

func (f TokenFunc) Token() (string, error) { return f() }

// Observer receives one call per completed request attempt.
type Observer interface {
	ObserveRequest(method, endpoint string, kind ErrorKind, ok bool, elapsed time.Duration)
}

// FilePart is one file of a multipart upload.
type FilePart struct {
	Field    string
	Filename string
	Reader   io.Reader
}

// Request describes a single backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON encoded when non-nil. Ignored when Files is set.
	Body  interface{}
	Files []FilePart
	// Auth requires a bearer token.
	Auth    bool
	Timeout time.Duration
	// Endpoint labels the call for metrics; defaults to Path.
	Endpoint string
}

// Attachment is a binary response body such as a spreadsheet or archive.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Options configures a Client.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	ExportTimeout time.Duration
	HTTPClient    *http.Client
	Logger        zerolog.Logger
	Observer      Observer
}

type Client struct {
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	long     time.Duration
	tokens   TokenSource
	logger   zerolog.Logger
	observer Observer
}

func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", opts.BaseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	long := opts.ExportTimeout
	if long <= 0 {
		long = ExportTimeout
	}
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     hc,
		timeout:  timeout,
		long:     long,
		logger:   opts.Logger,
		observer: opts.Observer,
	}, nil
}

// WithTokens returns a copy of the client that authenticates with ts.
func (c *Client) WithTokens(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// LongTimeout is the timeout for exports, backups and uploads.
func (c *Client) LongTimeout() time.Duration { return c.long }

// Do sends req and decodes a JSON response body into out (when out is non-nil
// and the body is not empty).
func (c *Client) Do(ctx context.Context, req Request, out interface{}) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.body)
		return nil
	}
	data, err := io.ReadAll(resp.body)
	if err != nil {
		return &NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.Path, err)
	}
	return nil
}

// Download sends req and returns the raw body. fallbackName is used when the
// server does not name the file.
func (c *Client) Download(ctx context.Context, req Request, fallbackName string) (*Attachment, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.body.Close()

	data, err := io.ReadAll(resp.body)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}
	name := fallbackName
	if _, params, perr := mime.ParseMediaType(resp.header.Get("Content-Disposition")); perr == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return &Attachment{
		Filename:    name,
		ContentType: resp.header.Get("Content-Type"),
		Data:        data,
	}, nil
}

type response struct {
	header http.Header
	body   io.ReadCloser
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r cancelOnClose) Close() error {
	err := r.ReadCloser.Close()
	r.cancel()
	return err
}

func (c *Client) send(ctx context.Context, req Request) (*response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = req.Path
	}

	var token string
	if req.Auth {
		if c.tokens == nil {
			return nil, ErrAuthenticationMissing
		}
		t, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuthenticationMissing, err)
		}
		if t == "" {
			return nil, ErrAuthenticationMissing
		}
		token = t
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		cancel()
		nerr := &NetworkError{Method: req.Method, Path: req.Path, Err: err}
		c.observe(req.Method, endpoint, KindNetwork, false, elapsed)
		c.logger.Warn().Err(err).Str("method", req.Method).Str("path", req.Path).Dur("latency", elapsed).Msg("backend unreachable")
		return nil, nerr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		serr := &ServerError{StatusCode: resp.StatusCode, Message: serverMessage(resp.Body)}
		c.observe(req.Method, endpoint, KindServer, false, elapsed)
		c.logger.Warn().Str("method", req.Method).Str("path", req.Path).Int("status", resp.StatusCode).Dur("latency", elapsed).Msg("backend error")
		return nil, serr
	}

	c.observe(req.Method, endpoint, KindUnknown, true, elapsed)
	c.logger.Debug().Str("method", req.Method).Str("path", req.Path).Int("status", resp.StatusCode).Dur("latency", elapsed).Msg("backend call")

	return &response{
		header: resp.Header,
		body:   cancelOnClose{ReadCloser: resp.Body, cancel: cancel},
	}, nil
}

func (c *Client) observe(method, endpoint string, kind ErrorKind, ok bool, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, endpoint, kind, ok, elapsed)
	}
}

func encodeBody(req Request) (io.Reader, string, error) {
	if len(req.Files) > 0 {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, f := range req.Files {
			part, err := w.CreateFormFile(f.Field, f.Filename)
			if err != nil {
				return nil, "", fmt.Errorf("create form file %s: %w", f.Filename, err)
			}
			if _, err := io.Copy(part, f.Reader); err != nil {
				return nil, "", fmt.Errorf("copy %s: %w", f.Filename, err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("close multipart body: %w", err)
		}
		return &buf, w.FormDataContentType(), nil
	}
	if req.Body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

// serverMessage extracts the "message" (or "error") field of a JSON error body.
func serverMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodyLen))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
