package httpclient

import (
	"context"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipeerrors "github.com/conneroisu/assetpipe/internal/errors"
	"github.com/conneroisu/assetpipe/internal/logging"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

// optionsFor points Options at a test server.
func optionsFor(t *testing.T, srv *httptest.Server, path string) Options {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return Options{Scheme: u.Scheme, Host: u.Hostname(), Port: port, Path: path}
}

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/items", r.URL.Path)
		assert.Equal(t, "a=1", r.URL.RawQuery)
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		_, _ = io.WriteString(w, "hello")
	}))
	defer srv.Close()

	opts := optionsFor(t, srv, "/api/items?a=1")
	opts.Headers = map[string]string{"X-Test": "yes"}

	body, err := newClient(t).Get(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "hello", body)
}

func TestRequestSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		data, _ := io.ReadAll(r.Body)
		_, _ = w.Write(append([]byte("got:"), data...))
	}))
	defer srv.Close()

	opts := optionsFor(t, srv, "upload")
	opts.Method = http.MethodPut

	body, err := newClient(t).Request(context.Background(), opts, "payload")
	require.NoError(t, err)
	assert.Equal(t, "got:payload", body)
}

func TestRequestDefaultsToPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Method)
	}))
	defer srv.Close()

	body, err := newClient(t).Request(context.Background(), optionsFor(t, srv, "/"), "")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, body)
}

func TestStatusErrorCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "no such thing")
	}))
	defer srv.Close()

	_, err := newClient(t).Get(context.Background(), optionsFor(t, srv, "/missing"))
	require.Error(t, err)
	assert.True(t, pipeerrors.IsNetwork(err))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "no such thing", statusErr.Body)
}

func TestCookiesPersist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			return
		}
		c, err := r.Cookie("session")
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, c.Value)
	}))
	defer srv.Close()

	client := newClient(t)
	ctx := context.Background()
	_, err := client.Get(ctx, optionsFor(t, srv, "/login"))
	require.NoError(t, err)

	body, err := client.Get(ctx, optionsFor(t, srv, "/me"))
	require.NoError(t, err)
	assert.Equal(t, "abc", body)
}

func TestHTTPSVerification(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "secure")
	}))
	defer srv.Close()

	client := newClient(t)
	ctx := context.Background()
	opts := optionsFor(t, srv, "/")

	_, err := client.Get(ctx, opts)
	require.Error(t, err, "self-signed certificate must be rejected by default")

	withCA := opts
	withCA.CA = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	body, err := client.Get(ctx, withCA)
	require.NoError(t, err)
	assert.Equal(t, "secure", body)

	insecure := opts
	insecure.InsecureSkipVerify = true
	body, err = client.Get(ctx, insecure)
	require.NoError(t, err)
	assert.Equal(t, "secure", body)
}

func TestLatin1Encoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte{'c', 'a', 'f', 0xe9})
	}))
	defer srv.Close()

	opts := optionsFor(t, srv, "/")
	opts.Encoding = "latin1"
	body, err := newClient(t).Get(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "café", body)
}

func TestInvalidOptions(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()

	_, err := client.Get(ctx, Options{Scheme: "ftp", Host: "example.com"})
	require.Error(t, err)
	assert.True(t, pipeerrors.IsConfig(err))

	_, err = client.Get(ctx, Options{})
	require.Error(t, err)
	assert.True(t, pipeerrors.IsValidation(err))

	_, err = client.Get(ctx, Options{Host: "example.com", Encoding: "ebcdic"})
	require.Error(t, err)
	assert.True(t, pipeerrors.IsConfig(err))

	_, err = client.Get(ctx, Options{Host: "example.com", CA: []byte("not pem")})
	require.Error(t, err)
	assert.True(t, pipeerrors.IsConfig(err))

	_, err = client.Get(ctx, Options{Host: "example.com", Headers: map[string]string{"X-A": "1\r\nX-B: 2"}})
	require.Error(t, err)
	assert.True(t, pipeerrors.IsValidation(err))
}

func TestBuildURL(t *testing.T) {
	target, err := buildURL("test", Options{Host: "example.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", target)

	target, err = buildURL("test", Options{Scheme: "HTTP", Host: "::1", Port: 8080, Path: "x/y"})
	require.NoError(t, err)
	assert.Equal(t, "http://[::1]:8080/x/y", target)
}
