package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPushManager builds an OAuthManager that only supplies application
// credentials; the subscription endpoints never use an athlete token.
func newPushManager(t *testing.T) *OAuthManager {
	t.Helper()
	m, err := NewOAuthManager(OAuthConfig{ClientID: "42", ClientSecret: "s3cret"})
	require.NoError(t, err)
	return m
}

type pushCapture struct {
	method string
	path   string
	auth   string
	query  url.Values
	form   url.Values
}

func TestPushSubscriptionsCreate(t *testing.T) {
	captured := make(chan pushCapture, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := pushCapture{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization")}
		if assert.NoError(t, r.ParseForm()) {
			got.form = r.PostForm
		}
		captured <- got

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{
			"id": 120,
			"application_id": 42,
			"callback_url": "https://bot.example.com/webhook",
			"resource_state": 2,
			"created_at": "2026-05-12T10:00:00Z",
			"updated_at": "2026-05-12T10:00:00Z"
		}`)
	}))
	defer srv.Close()

	c := newMockClient(srv, WithOAuth(newPushManager(t)))
	defer c.Close()

	sub, token, err := c.PushSubscriptions.Create(context.Background(), "https://bot.example.com/webhook", "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, int64(120), sub.ID)
	assert.Equal(t, int64(42), sub.ApplicationID)
	assert.Equal(t, "https://bot.example.com/webhook", sub.CallbackURL)

	got := <-captured
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/push_subscriptions", got.path)
	assert.Equal(t, "42", got.form.Get("client_id"))
	assert.Equal(t, "s3cret", got.form.Get("client_secret"))
	assert.Equal(t, "https://bot.example.com/webhook", got.form.Get("callback_url"))
	assert.Equal(t, "tok-123", got.form.Get("verify_token"))

	// Application credentials replace the athlete token on these endpoints.
	assert.Empty(t, got.auth)
}

func TestPushSubscriptionsCreateGeneratesVerifyToken(t *testing.T) {
	captured := make(chan pushCapture, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := pushCapture{}
		if assert.NoError(t, r.ParseForm()) {
			got.form = r.PostForm
		}
		captured <- got
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 121, "application_id": 42, "callback_url": "https://bot.example.com/webhook", "resource_state": 2}`)
	}))
	defer srv.Close()

	c := newMockClient(srv, WithOAuth(newPushManager(t)))
	defer c.Close()

	_, token, err := c.PushSubscriptions.Create(context.Background(), "https://bot.example.com/webhook", "")
	require.NoError(t, err)
	assert.Len(t, token, 36)

	got := <-captured
	assert.Equal(t, token, got.form.Get("verify_token"))
}

func TestPushSubscriptionsList(t *testing.T) {
	captured := make(chan pushCapture, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured <- pushCapture{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			query:  r.URL.Query(),
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id": 120, "application_id": 42, "callback_url": "https://bot.example.com/webhook", "resource_state": 2}]`)
	}))
	defer srv.Close()

	c := newMockClient(srv, WithOAuth(newPushManager(t)))
	defer c.Close()

	subs, err := c.PushSubscriptions.List(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(120), subs[0].ID)

	got := <-captured
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/push_subscriptions", got.path)
	assert.Equal(t, "42", got.query.Get("client_id"))
	assert.Equal(t, "s3cret", got.query.Get("client_secret"))
	assert.Empty(t, got.auth)
}

func TestPushSubscriptionsDelete(t *testing.T) {
	captured := make(chan pushCapture, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured <- pushCapture{method: r.Method, path: r.URL.Path, query: r.URL.Query()}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newMockClient(srv, WithOAuth(newPushManager(t)))
	defer c.Close()

	require.NoError(t, c.PushSubscriptions.Delete(context.Background(), 120))

	got := <-captured
	assert.Equal(t, http.MethodDelete, got.method)
	assert.Equal(t, "/push_subscriptions/120", got.path)
	assert.Equal(t, "42", got.query.Get("client_id"))
	assert.Equal(t, "s3cret", got.query.Get("client_secret"))
}

func TestPushSubscriptionsRequireCredentials(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	// No OAuthManager configured, so there are no application credentials.
	c := newMockClient(srv)
	defer c.Close()
	ctx := context.Background()

	_, _, err := c.PushSubscriptions.Create(ctx, "https://bot.example.com/webhook", "tok")
	require.ErrorContains(t, err, "WithOAuth")

	_, err = c.PushSubscriptions.List(ctx)
	require.ErrorContains(t, err, "WithOAuth")

	err = c.PushSubscriptions.Delete(ctx, 120)
	require.ErrorContains(t, err, "WithOAuth")

	assert.Zero(t, hits.Load())
}

func TestPushSubscriptionsCreateRequiresCallbackURL(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := newMockClient(srv, WithOAuth(newPushManager(t)))
	defer c.Close()

	_, _, err := c.PushSubscriptions.Create(context.Background(), "", "tok")
	require.ErrorContains(t, err, "callback URL")
	assert.Zero(t, hits.Load())
}

func TestHandleValidation(t *testing.T) {
	t.Run("echoes challenge", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.challenge=abc123&hub.verify_token=tok-1", nil)
		w := httptest.NewRecorder()

		require.NoError(t, HandleValidation(w, r, "tok-1"))
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "abc123", body["hub.challenge"])
	})

	t.Run("rejects wrong mode", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=unsubscribe&hub.challenge=abc123", nil)
		w := httptest.NewRecorder()

		require.ErrorContains(t, HandleValidation(w, r, ""), "hub.mode")
		assert.Empty(t, w.Body.String())
	})

	t.Run("rejects token mismatch", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.challenge=abc123&hub.verify_token=wrong", nil)
		w := httptest.NewRecorder()

		require.ErrorContains(t, HandleValidation(w, r, "tok-1"), "verify token")
	})

	t.Run("skips token check when unconfigured", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.challenge=xyz", nil)
		w := httptest.NewRecorder()

		require.NoError(t, HandleValidation(w, r, ""))
		assert.Contains(t, w.Body.String(), "xyz")
	})
}

func TestParseWebhookEvent(t *testing.T) {
	t.Run("valid event", func(t *testing.T) {
		body := `{
			"object_type": "activity",
			"object_id": 42,
			"aspect_type": "update",
			"owner_id": 1001,
			"subscription_id": 120,
			"event_time": 1768000000,
			"updates": {"title": "Morning Ride", "private": "false"}
		}`
		r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))

		event, err := ParseWebhookEvent(r)
		require.NoError(t, err)
		assert.Equal(t, "activity", event.ObjectType)
		assert.Equal(t, int64(42), event.ObjectID)
		assert.Equal(t, "update", event.AspectType)
		assert.Equal(t, int64(1001), event.OwnerID)
		assert.Equal(t, int64(120), event.SubscriptionID)
		assert.Equal(t, int64(1768000000), event.EventTime)
		assert.Equal(t, map[string]string{"title": "Morning Ride", "private": "false"}, event.Updates)
	})

	t.Run("rejects non-POST", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/webhook", nil)

		_, err := ParseWebhookEvent(r)
		require.ErrorContains(t, err, "POST")
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"object_type": `))

		_, err := ParseWebhookEvent(r)
		require.ErrorContains(t, err, "parsing webhook event")
	})
}
