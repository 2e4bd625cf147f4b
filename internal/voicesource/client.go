// Package voicesource fetches the voice catalog and style map from the
// prosodify voices API over HTTP.
package voicesource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/prosodify/prosodify/internal/voicecache"
)

const (
	// DefaultVoicesPath is the voices endpoint relative to the base URL.
	DefaultVoicesPath = "/api/voices"

	// DefaultStylesPath is the styles endpoint relative to the base URL.
	DefaultStylesPath = "/api/voice-styles"

	maxBodySize = 32 << 20
)

// StatusError is returned when the voices endpoint answers with a non-success
// status or a success:false payload.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("voices API error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("voices API error: %d: %s", e.StatusCode, e.Message)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithPaths overrides the endpoint paths. Empty values keep the defaults.
func WithPaths(voices, styles string) Option {
	return func(c *Client) {
		if voices != "" {
			c.voicesPath = voices
		}
		if styles != "" {
			c.stylesPath = styles
		}
	}
}

// WithMinInterval spaces voice fetches at least d apart. Zero disables it.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client implements voicecache.Source against the voices API.
type Client struct {
	baseURL    string
	voicesPath string
	stylesPath string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

var _ voicecache.Source = (*Client)(nil)

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		voicesPath: DefaultVoicesPath,
		stylesPath: DefaultStylesPath,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = log.Default().WithPrefix("voicesource")
	}
	return c
}

// FetchVoices downloads and normalizes the voice catalog.
func (c *Client) FetchVoices(ctx context.Context) ([]voicecache.Voice, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for refresh slot: %w", err)
		}
	}

	status, body, err := c.get(ctx, c.voicesPath)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		if !isSuccess(status) {
			return nil, &StatusError{StatusCode: status, Message: strings.TrimSpace(string(body))}
		}
		return nil, fmt.Errorf("malformed voices payload")
	}
	res := gjson.ParseBytes(body)

	if !isSuccess(status) {
		return nil, &StatusError{StatusCode: status, Message: errorMessage(res)}
	}
	if ok := res.Get("success"); ok.Exists() && !ok.Bool() {
		return nil, &StatusError{StatusCode: status, Message: errorMessage(res)}
	}

	list := res.Get("voices")
	if !list.Exists() {
		c.logger.Warn("Voices payload has no voices")
		return nil, nil
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("malformed voices payload: voices is %s", list.Type)
	}

	voices, err := voicecache.ParseVoices([]byte(list.Raw))
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Fetched voices", "count", len(voices))
	return voices, nil
}

// FetchStyles downloads the style map. Any failure is reported as
// voicecache.ErrStylesUnavailable.
func (c *Client) FetchStyles(ctx context.Context) (voicecache.Styles, error) {
	status, body, err := c.get(ctx, c.stylesPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", voicecache.ErrStylesUnavailable, err)
	}
	if !isSuccess(status) {
		return nil, fmt.Errorf("%w: status %d", voicecache.ErrStylesUnavailable, status)
	}

	styles := gjson.GetBytes(body, "styles")
	if !gjson.ValidBytes(body) || !styles.IsObject() {
		return nil, fmt.Errorf("%w: malformed payload", voicecache.ErrStylesUnavailable)
	}

	out := make(voicecache.Styles)
	styles.ForEach(func(id, list gjson.Result) bool {
		var names []string
		list.ForEach(func(_, s gjson.Result) bool {
			if s.Type == gjson.String {
				names = append(names, s.Str)
			}
			return true
		})
		out[id.String()] = names
		return true
	})
	c.logger.Debug("Fetched styles", "voices", len(out))
	return out, nil
}

func (c *Client) get(ctx context.Context, path string) (int, []byte, error) {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid endpoint %q: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "prosodify")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func errorMessage(res gjson.Result) string {
	msg := res.Get("error").String()
	if details := res.Get("details").String(); details != "" {
		if msg == "" {
			return details
		}
		return msg + ": " + details
	}
	return msg
}
