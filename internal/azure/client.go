// Package azure talks to the Azure Speech voices list and shapes its answer
// into the catalog served by the voices API.
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrNotConfigured is returned when the region or subscription key is missing.
var ErrNotConfigured = errors.New("azure: speech credentials not configured")

// UpstreamError is a non-success answer from Azure.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("azure: voices list returned %d: %s", e.StatusCode, e.Body)
}

// RawVoice is one entry of the Azure voices list.
type RawVoice struct {
	ShortName       string
	DisplayName     string
	Locale          string
	LocaleName      string
	Gender          string
	VoiceType       string
	StyleList       []string
	RolePlayList    []string
	SampleRateHertz string
	Status          string
	WordsPerMinute  int
}

// Client lists voices for one Azure Speech region.
type Client struct {
	region     string
	key        string
	endpoint   string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEndpoint overrides the regional voices list URL.
func WithEndpoint(url string) ClientOption {
	return func(c *Client) { c.endpoint = url }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for region authenticated with key.
func NewClient(region, key string, opts ...ClientOption) *Client {
	c := &Client{
		region:     region,
		key:        key,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if region != "" {
		c.endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/voices/list", region)
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Configured reports whether the client has credentials.
func (c *Client) Configured() bool {
	return c.key != "" && c.endpoint != ""
}

// Region returns the Azure region the client talks to.
func (c *Client) Region() string {
	return c.region
}

// ListVoices downloads every voice the region offers.
func (c *Client) ListVoices(ctx context.Context) ([]RawVoice, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("azure: create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure: list voices: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("azure: read voices: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return parseVoices(body)
}

func parseVoices(body []byte) ([]RawVoice, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("azure: malformed voices list")
	}
	list := gjson.ParseBytes(body)
	if !list.IsArray() {
		return nil, fmt.Errorf("azure: voices list is %s, want array", list.Type)
	}

	var out []RawVoice
	list.ForEach(func(_, v gjson.Result) bool {
		out = append(out, RawVoice{
			ShortName:       v.Get("ShortName").String(),
			DisplayName:     v.Get("DisplayName").String(),
			Locale:          v.Get("Locale").String(),
			LocaleName:      v.Get("LocaleName").String(),
			Gender:          v.Get("Gender").String(),
			VoiceType:       v.Get("VoiceType").String(),
			StyleList:       stringList(v.Get("StyleList")),
			RolePlayList:    stringList(v.Get("RolePlayList")),
			SampleRateHertz: v.Get("SampleRateHertz").String(),
			Status:          v.Get("Status").String(),
			WordsPerMinute:  int(v.Get("WordsPerMinute").Int()),
		})
		return true
	})
	return out, nil
}

func stringList(r gjson.Result) []string {
	if !r.IsArray() {
		return nil
	}
	var out []string
	r.ForEach(func(_, s gjson.Result) bool {
		out = append(out, s.String())
		return true
	})
	return out
}
