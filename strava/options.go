package strava

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client used for requests.
// If this is not provided, a default http.Client is used.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithAccessToken sets a static OAuth2 access token for authentication.
// This will automatically set the Authorization: Bearer <token> header on all
// requests. Use WithOAuth instead when the token should refresh itself.
func WithAccessToken(token string) Option {
	return func(client *Client) {
		client.accessToken = token
	}
}

// WithOAuth attaches an OAuthManager so every call transparently uses a valid
// access token, refreshing it ahead of expiry. Takes precedence over
// WithAccessToken.
func WithOAuth(m *OAuthManager) Option {
	return func(client *Client) {
		client.oauth = m
	}
}

// WithBaseURL overrides the default Strava API base URL.
// This is primarily useful for testing or connecting to a proxy.
func WithBaseURL(url string) Option {
	return func(client *Client) {
		client.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithTimeout sets the per-attempt request timeout. Attempts cut off by it
// fail with a TimeoutError and are retried. Zero disables the timeout.
// By default, this is 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.timeout = d
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(client *Client) {
		client.userAgent = ua
	}
}

// WithRetryConfig overrides the retry behavior. Zero fields keep their
// defaults.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(client *Client) {
		client.retryCfg = cfg.normalized()
	}
}

// WithRateLimitStrategy selects what happens when the local rate limiter is
// out of capacity. The default is RateLimitQueue.
func WithRateLimitStrategy(s RateLimitStrategy) Option {
	return func(client *Client) {
		client.rateStrategy = s
	}
}

// WithRateLimiting enables or disables client-side rate limiting.
// This is primarily used for testing and benchmarking.
func WithRateLimiting(enabled bool) Option {
	return func(client *Client) {
		client.rateLimiting = enabled
	}
}

// WithDeduplicationWindow enables request deduplication: identical calls
// issued within the window share a single execution. A client with
// deduplication enabled owns a background sweep; release it with Close.
func WithDeduplicationWindow(window time.Duration) Option {
	return func(client *Client) {
		client.dedupeWindow = window
	}
}

// WithDeduplication enables request deduplication with the default window.
func WithDeduplication(enabled bool) Option {
	return func(client *Client) {
		if enabled {
			client.dedupeWindow = defaultDedupWindow
		} else {
			client.dedupeWindow = 0
		}
	}
}

// WithResponseTransforms appends transforms applied, in order, to every
// successful response body before decoding.
func WithResponseTransforms(transforms ...ResponseTransform) Option {
	return func(client *Client) {
		client.transforms = append(client.transforms, transforms...)
	}
}

// WithLogger sets a structured logger for debug-level client events. The
// default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(client *Client) {
		if log != nil {
			client.log = log
		}
	}
}
