package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/netx"
)

// Client is the API contract the CLI depends on.
type Client interface {
	Health(ctx context.Context) error
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) error
	Upload(ctx context.Context, filename string, src io.Reader) (*UploadResult, error)
	Get(ctx context.Context, path string) (*File, error)
	Download(ctx context.Context, path string, dst io.Writer) (int64, error)
	LoggedIn() bool
	Logout()
}

// UploadResult is the server's answer to a successful upload.
type UploadResult struct {
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	StrippedPath string `json:"stripped_path"`
}

// File is a fetched file with its content already decoded.
type File struct {
	Path    string
	Content []byte
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

type fileBody struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration

	mu           sync.RWMutex
	email        string
	accessToken  string
	refreshToken string
}

// NewHTTPClient builds a client for the server at baseURL. timeout bounds
// the JSON calls; zero disables it.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}
	return &HTTPClient{baseURL: u, http: &http.Client{}, timeout: timeout}, nil
}

func (c *HTTPClient) LoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken != ""
}

// Logout forgets both tokens. The server keeps no session, so nothing is sent.
func (c *HTTPClient) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.email = ""
	c.accessToken = ""
	c.refreshToken = ""
}

func (c *HTTPClient) tokens() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken, c.refreshToken
}

// setTokens stores the tokens issued to email. Login only returns a
// refresh token when it was rotated, so an empty one keeps the token
// already held, but only for the same account.
func (c *HTTPClient) setTokens(email string, t tokens) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if email != c.email {
		c.refreshToken = ""
	}
	c.email = email
	c.accessToken = t.AccessToken
	if t.RefreshToken != "" {
		c.refreshToken = t.RefreshToken
	}
}

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *HTTPClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// do sends req and maps transport failures to ErrUnavailable. The caller
// owns the response body on success.
func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp, nil
}

// doAuthed runs newReq with the access token and, when retry is set and the
// server answers 401, once more with the refresh token. newReq is called per
// attempt because a request body cannot be replayed.
func (c *HTTPClient) doAuthed(retry bool, newReq func() (*http.Request, error)) (*http.Response, error) {
	access, refresh := c.tokens()
	if access == "" {
		return nil, ErrNotLoggedIn
	}

	attempts := []string{access}
	if retry && refresh != "" && refresh != access {
		attempts = append(attempts, refresh)
	}

	for i, token := range attempts {
		req, err := newReq()
		if err != nil {
			return nil, err
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)

		resp, err := c.do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized && i+1 < len(attempts) {
			netx.DrainAndClose(resp)
			continue
		}
		return resp, nil
	}
	return nil, ErrUnauthorized
}

// mapError turns a non-2xx response into an error and closes its body.
func mapError(resp *http.Response) error {
	defer netx.DrainAndClose(resp)

	var body errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&body)

	if resp.StatusCode == http.StatusUnauthorized {
		if body.Detail != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, body.Detail)
		}
		return ErrUnauthorized
	}
	return &APIError{Status: resp.StatusCode, Detail: body.Detail}
}

func decodeJSON(resp *http.Response, v any) error {
	defer netx.DrainAndClose(resp)
	if resp.StatusCode != http.StatusOK {
		return mapError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) Health(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/health", nil), nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	var status map[string]string
	return decodeJSON(resp, &status)
}

func (c *HTTPClient) authenticate(ctx context.Context, path, email, password string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	payload, err := json.Marshal(credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}

	var t tokens
	if err := decodeJSON(resp, &t); err != nil {
		return err
	}
	if t.AccessToken == "" {
		return errors.New("server returned no access token")
	}
	c.setTokens(email, t)
	return nil
}

// Register creates an account and keeps the returned tokens.
func (c *HTTPClient) Register(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "/register", email, password)
}

// Login signs in and keeps the returned tokens.
func (c *HTTPClient) Login(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "/login", email, password)
}

// Upload streams src as filename. src is read once, so an upload is never
// retried with the refresh token.
func (c *HTTPClient) Upload(ctx context.Context, filename string, src io.Reader) (*UploadResult, error) {
	resp, err := c.doAuthed(false, func() (*http.Request, error) {
		body, contentType := netx.MultipartBody(common.UploadFieldName, filename, src)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/file", nil), body)
		if err != nil {
			_ = body.Close()
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var res UploadResult
	if err := decodeJSON(resp, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Get fetches path in base64 mode and decodes the content.
func (c *HTTPClient) Get(ctx context.Context, path string) (*File, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	q := url.Values{"path": {path}, "mode": {common.FetchModeBase64}}
	resp, err := c.doAuthed(true, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/file", q), nil)
	})
	if err != nil {
		return nil, err
	}

	var body fileBody
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	content, err := base64.StdEncoding.DecodeString(body.Content)
	if err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return &File{Path: body.Path, Content: content}, nil
}

// Download fetches path in download mode and copies the raw bytes to dst.
func (c *HTTPClient) Download(ctx context.Context, path string, dst io.Writer) (int64, error) {
	q := url.Values{"path": {path}, "mode": {common.FetchModeDownload}}
	resp, err := c.doAuthed(true, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/file", q), nil)
	})
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, mapError(resp)
	}
	defer netx.DrainAndClose(resp)

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download %s: %w", path, err)
	}
	return n, nil
}
