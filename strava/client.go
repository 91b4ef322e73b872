package strava

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL   = "https://www.strava.com/api/v3"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "strava-go"
)

// apiResponse is one completed HTTP exchange. Instances are immutable once
// built, so a deduplicated response can be shared across callers.
type apiResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client is the core Strava API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	timeout    time.Duration

	accessToken string
	oauth       *OAuthManager

	limiter *rateLimiter
	retrier *retrier
	deduper *deduplicator

	retryCfg     RetryConfig
	rateStrategy RateLimitStrategy
	rateLimiting bool
	dedupeWindow time.Duration
	transforms   []ResponseTransform
	log          *zap.Logger

	// Services used for communicating with the Strava API endpoints.
	Athletes          *AthletesService
	Activities        *ActivitiesService
	Clubs             *ClubsService
	Gear              *GearService
	Routes            *RoutesService
	Segments          *SegmentsService
	SegmentEfforts    *SegmentEffortsService
	Streams           *StreamsService
	Uploads           *UploadsService
	PushSubscriptions *PushSubscriptionsService
}

// NewClient creates a new Strava API client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{},
		baseURL:      defaultBaseURL,
		userAgent:    defaultUserAgent,
		timeout:      defaultTimeout,
		retryCfg:     DefaultRetryConfig(),
		rateStrategy: RateLimitQueue,
		rateLimiting: true,
		log:          zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.limiter = newRateLimiter(c.rateStrategy, c.log)
	c.limiter.SetAutoLimiting(c.rateLimiting)
	c.retrier = newRetrier(c.retryCfg, c.log)
	if c.dedupeWindow > 0 {
		c.deduper = newDeduplicator(c.dedupeWindow, c.log)
	}

	c.Athletes = &AthletesService{client: c}
	c.Activities = &ActivitiesService{client: c}
	c.Clubs = &ClubsService{client: c}
	c.Gear = &GearService{client: c}
	c.Routes = &RoutesService{client: c}
	c.Segments = &SegmentsService{client: c}
	c.SegmentEfforts = &SegmentEffortsService{client: c}
	c.Streams = &StreamsService{client: c}
	c.Uploads = &UploadsService{client: c}
	c.PushSubscriptions = &PushSubscriptionsService{client: c}

	return c
}

// Close releases background resources. It is required when deduplication is
// enabled and harmless otherwise.
func (c *Client) Close() {
	if c.deduper != nil {
		c.deduper.destroy()
	}
}

// String implements fmt.Stringer with the access token redacted, so a client
// logged by accident never leaks credentials.
func (c *Client) String() string {
	return fmt.Sprintf("strava.Client{baseURL:%s accessToken:<REDACTED>}", c.baseURL)
}

// GoString implements fmt.GoStringer, covering the %#v verb the same way.
func (c *Client) GoString() string {
	return c.String()
}

// RateLimit reports current usage against the API rate limits.
func (c *Client) RateLimit() RateLimitSnapshot {
	return c.limiter.Snapshot()
}

// token resolves the access token for a call, refreshing through the OAuth
// manager when one is configured. With no credentials at all it fails fast
// without touching the network.
func (c *Client) token(ctx context.Context) (string, error) {
	if c.oauth != nil {
		rec, err := c.oauth.GetValidToken(ctx)
		if err != nil {
			return "", err
		}
		return rec.AccessToken, nil
	}
	if c.accessToken != "" {
		return c.accessToken, nil
	}
	return "", &AuthError{Message: "no credentials configured", Err: ErrNotAuthenticated}
}

// call runs one logical API call through the full pipeline: token fetch,
// optional deduplication, retries, rate-limit admission and the per-attempt
// timeout. body is JSON-encoded when non-nil.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body any) (*apiResponse, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("strava: encoding request body: %w", err)
		}
	}
	return c.execute(ctx, method, path, query, payload, "application/json")
}

// execute is shared by JSON calls and raw-body calls such as multipart
// uploads. The token is fetched once per logical call; every retry attempt
// reuses it.
func (c *Client) execute(ctx context.Context, method, path string, query url.Values, payload []byte, contentType string) (*apiResponse, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	return c.executeWith(ctx, tok, method, path, query, payload, contentType)
}

// executeWith runs the deduplication, retry and admission pipeline with an
// explicit credential. An empty token sends no Authorization header, which
// the application-scoped push subscription endpoints require.
func (c *Client) executeWith(ctx context.Context, tok, method, path string, query url.Values, payload []byte, contentType string) (*apiResponse, error) {
	run := func(ctx context.Context) (*apiResponse, error) {
		return c.retrier.run(ctx, func(ctx context.Context) (*apiResponse, error) {
			return c.attempt(ctx, method, path, query, payload, contentType, tok)
		})
	}

	if c.deduper != nil {
		return c.deduper.run(ctx, requestKey(method, path, query, payload), run)
	}
	return run(ctx)
}

// attempt performs one physical HTTP attempt: admission, the network call
// under the per-attempt timeout, rate-limit feedback, error classification
// and the response transform pipeline.
func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, payload []byte, contentType, token string) (*apiResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if len(payload) > 0 {
		reqBody = bytes.NewReader(payload)
	}

	attemptCtx := ctx
	cancel := func() {}
	if c.timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("strava: building request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if len(payload) > 0 && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The parent context staying live means the deadline that fired was
		// the per-attempt one.
		if isTimeout(err) && ctx.Err() == nil {
			return nil, &TimeoutError{URL: u, Timeout: c.timeout, Err: err}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("strava: request failed: %w", err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	c.limiter.UpdateFromHeaders(resp.Header)
	c.limiter.processQueue()

	if readErr != nil {
		return nil, fmt.Errorf("strava: reading response body: %w", readErr)
	}

	if resp.StatusCode >= 400 {
		return nil, mapHTTPError(resp, respBody)
	}

	out, err := applyTransforms(respBody, c.transforms)
	if err != nil {
		return nil, fmt.Errorf("strava: response transform failed: %w", err)
	}
	return &apiResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: out}, nil
}

// isTimeout reports whether a transport error was caused by a deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// get issues a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.call(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

// getRaw issues a GET request and returns the raw response body.
func (c *Client) getRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := c.call(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// post issues a POST request with a JSON body and decodes the response.
func (c *Client) post(ctx context.Context, path string, query url.Values, body, out any) error {
	resp, err := c.call(ctx, http.MethodPost, path, query, body)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

// put issues a PUT request with a JSON body and decodes the response.
func (c *Client) put(ctx context.Context, path string, body, out any) error {
	resp, err := c.call(ctx, http.MethodPut, path, nil, body)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

// del issues a DELETE request, ignoring the response body.
func (c *Client) del(ctx context.Context, path string) error {
	_, err := c.call(ctx, http.MethodDelete, path, nil, nil)
	return err
}

func decodeResponse(resp *apiResponse, out any) error {
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("strava: decoding response: %w", err)
	}
	return nil
}
