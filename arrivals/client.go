// Package arrivals fetches real-time station arrivals from the Seoul open
// data subway API.
package arrivals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/you/subwayviz/models"
)

const (
	// DefaultBaseURL is the Seoul open data subway API root
	DefaultBaseURL = "http://swopenAPI.seoul.go.kr/api/subway"

	// Fixed result window requested upstream
	resultStart = 0
	resultEnd   = 5
)

var (
	// ErrEmptyResult means the upstream list was absent, null or empty.
	// An unknown station and a temporarily empty station look the same.
	ErrEmptyResult = errors.New("no arrivals for station")

	// ErrTransport means the request failed or the response could not be decoded
	ErrTransport = errors.New("arrival request failed")
)

// Kind classifies a Fetch error for display
type Kind int

const (
	KindNone Kind = iota
	KindEmptyResult
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindEmptyResult:
		return "EmptyResult"
	case KindTransport:
		return "TransportError"
	}
	return "unknown"
}

// KindOf maps an error returned by Fetch to its Kind. Any error that is not
// ErrEmptyResult is treated as a transport failure.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrEmptyResult):
		return KindEmptyResult
	default:
		return KindTransport
	}
}

// Client queries the realtimeStationArrival endpoint
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for upstream calls
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a Client for the given API root and key. An empty
// baseURL falls back to DefaultBaseURL.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		// No Timeout: the transport default applies
		client: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// stationArrivalResponse is the subset of the upstream payload we read.
// Error payloads carry code/message instead of realtimeArrivalList.
type stationArrivalResponse struct {
	ErrorMessage *struct {
		Status  int    `json:"status"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errorMessage"`
	Code                string                 `json:"code"`
	Message             string                 `json:"message"`
	RealtimeArrivalList []json.RawMessage `json:"realtimeArrivalList"`
}

// RequestURL builds the upstream URL for station
func (c *Client) RequestURL(station string) string {
	return fmt.Sprintf("%s/%s/json/realtimeStationArrival/%d/%d/%s",
		c.baseURL, url.PathEscape(c.apiKey), resultStart, resultEnd, url.PathEscape(station))
}

// Fetch issues one query for station. It returns the decoded records, or an
// error wrapping ErrEmptyResult or ErrTransport. There is no retry.
func (c *Client) Fetch(ctx context.Context, station string) ([]models.ArrivalRecord, error) {
	records, err := c.fetch(ctx, station)
	if err != nil {
		log.Warn().
			Err(err).
			Str("station", station).
			Str("kind", KindOf(err).String()).
			Msg("Arrival fetch failed")
		return nil, err
	}

	log.Debug().
		Str("station", station).
		Int("count", len(records)).
		Msg("Arrival fetch succeeded")
	return records, nil
}

func (c *Client) fetch(ctx context.Context, station string) ([]models.ArrivalRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RequestURL(station), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: API returned %d: %s", ErrTransport, resp.StatusCode, string(body))
	}

	var data stationArrivalResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrTransport, err)
	}

	if len(data.RealtimeArrivalList) == 0 {
		code := data.Code
		if data.ErrorMessage != nil && data.ErrorMessage.Code != "" {
			code = data.ErrorMessage.Code
		}
		if code != "" {
			return nil, fmt.Errorf("%w: %q (upstream %s)", ErrEmptyResult, station, code)
		}
		return nil, fmt.Errorf("%w: %q", ErrEmptyResult, station)
	}

	records := make([]models.ArrivalRecord, len(data.RealtimeArrivalList))
	malformed := 0
	for i, raw := range data.RealtimeArrivalList {
		var ok bool
		if records[i], ok = decodeRecord(raw); !ok {
			malformed++
		}
	}
	if malformed > 0 {
		log.Warn().
			Str("station", station).
			Int("malformed", malformed).
			Int("count", len(records)).
			Msg("Upstream arrival entries decoded with fallback values")
	}

	return records, nil
}
