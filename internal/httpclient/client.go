// Package httpclient sends simple HTTP and HTTPS requests and returns the
// response body as text. Responses with a status of 400 or above are errors
// that carry the status and the body.
package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/conneroisu/assetpipe/internal/errors"
	"github.com/conneroisu/assetpipe/internal/logging"
	"github.com/conneroisu/assetpipe/internal/validation"
)

const (
	DefaultScheme  = "https"
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 10 * 1024 * 1024
)

// Options describe one request.
type Options struct {
	Method  string
	Scheme  string // "https" (default) or "http"
	Host    string
	Port    int
	Path    string
	Headers map[string]string
	// Encoding of the response body: "utf8" (default) or "latin1".
	Encoding string
	// InsecureSkipVerify disables certificate verification.
	InsecureSkipVerify bool
	// CA holds PEM certificates trusted in addition to the system pool.
	CA []byte
}

// StatusError is the cause of a NetworkError for a failed status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request exited with status code %d", e.StatusCode)
}

// Client sends requests described by Options. Cookies set by a server are
// kept for later requests.
type Client struct {
	jar     http.CookieJar
	timeout time.Duration
	logger  logging.Logger
}

// New creates a Client.
func New(logger logging.Logger) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.NewInternalError("httpclient.New", errors.ErrCodeInternal, "cookie jar", err)
	}
	return &Client{
		jar:     jar,
		timeout: DefaultTimeout,
		logger:  logger.WithComponent("http"),
	}, nil
}

// Get sends a GET request without a body.
func (c *Client) Get(ctx context.Context, opts Options) (string, error) {
	opts.Method = http.MethodGet
	return c.do(ctx, "httpclient.Get", opts, nil)
}

// Request sends body with opts.Method (POST when empty).
func (c *Client) Request(ctx context.Context, opts Options, body string) (string, error) {
	if opts.Method == "" {
		opts.Method = http.MethodPost
	}
	return c.do(ctx, "httpclient.Request", opts, strings.NewReader(body))
}

func (c *Client) do(ctx context.Context, op string, opts Options, body io.Reader) (string, error) {
	target, err := buildURL(op, opts)
	if err != nil {
		c.logger.Error(ctx, err, "Invalid request")
		return "", err
	}

	decoder, err := decoderFor(op, opts.Encoding)
	if err != nil {
		return "", err
	}

	httpClient, err := c.httpClient(op, opts)
	if err != nil {
		return "", err
	}

	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, opts.Method, target, body)
	if err != nil {
		return "", errors.NewNetworkError(op, errors.ErrCodeRequest, "build request", err)
	}
	for name, value := range opts.Headers {
		if err := validation.ValidateHeader(name, value); err != nil {
			return "", errors.NewValidationError(op, errors.ErrCodeInvalidArgument, err.Error())
		}
		req.Header.Set(name, value)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		netErr := errors.NewNetworkError(op, errors.ErrCodeRequest, "request failed", err).WithInfo(target)
		c.logger.Error(ctx, netErr, "Request failed")
		return "", netErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", errors.NewNetworkError(op, errors.ErrCodeRequest, "read response", err)
	}
	text, err := decoder.String(string(raw))
	if err != nil {
		return "", errors.NewNetworkError(op, errors.ErrCodeRequest, "decode response", err)
	}

	if resp.StatusCode >= 400 {
		netErr := errors.NewNetworkError(op, errors.ErrCodeHTTPStatus,
			"request exited with status code "+strconv.Itoa(resp.StatusCode),
			&StatusError{StatusCode: resp.StatusCode, Body: text}).
			WithContext("status", resp.StatusCode).
			WithContext("body", text)
		c.logger.Error(ctx, netErr, "Request rejected", "url", target)
		return "", netErr
	}

	c.logger.Success(ctx, "Request finished", "url", target, "status", resp.StatusCode)
	return text, nil
}

func (c *Client) httpClient(op string, opts Options) (*http.Client, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // opt-in per request
	}
	if len(opts.CA) > 0 {
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(opts.CA) {
			return nil, errors.NewConfigError(op, errors.ErrCodeConfigInvalid, "no certificates found in CA")
		}
		tlsConfig.RootCAs = pool
	}

	return &http.Client{
		Jar:     c.jar,
		Timeout: c.timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			TLSClientConfig:     tlsConfig,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}, nil
}

func buildURL(op string, opts Options) (string, error) {
	scheme := strings.ToLower(opts.Scheme)
	if scheme == "" {
		scheme = DefaultScheme
	}
	if scheme != "http" && scheme != "https" {
		return "", errors.NewConfigError(op, errors.ErrCodeUnsupportedProto, "unsupported protocol").WithInfo(opts.Scheme)
	}
	if opts.Host == "" {
		return "", errors.NewValidationError(op, errors.ErrCodeInvalidArgument, "host is required")
	}

	host := opts.Host
	if opts.Port > 0 {
		host = net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	}

	path := opts.Path
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u := &url.URL{Scheme: scheme, Host: host}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		u.Path, u.RawQuery = path[:i], path[i+1:]
	} else {
		u.Path = path
	}

	target := u.String()
	if err := validation.ValidateURL(target); err != nil {
		return "", errors.NewValidationError(op, errors.ErrCodeInvalidArgument, err.Error())
	}
	return target, nil
}

func decoderFor(op, name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "")) {
	case "", "utf8":
		return unicode.UTF8.NewDecoder(), nil
	case "latin1", "iso88591":
		return charmap.ISO8859_1.NewDecoder(), nil
	default:
		return nil, errors.NewConfigError(op, errors.ErrCodeConfigInvalid, "unsupported encoding").WithInfo(name)
	}
}
