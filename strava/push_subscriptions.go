package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// PushSubscription represents a registered webhook callback for the
// application.
type PushSubscription struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"application_id"`
	CallbackURL   string    `json:"callback_url"`
	ResourceState int       `json:"resource_state"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WebhookEvent represents an event payload delivered to the callback URL.
type WebhookEvent struct {
	// ObjectType is "activity" or "athlete".
	ObjectType string `json:"object_type"`
	ObjectID   int64  `json:"object_id"`
	// AspectType is "create", "update" or "delete".
	AspectType     string `json:"aspect_type"`
	OwnerID        int64  `json:"owner_id"`
	SubscriptionID int64  `json:"subscription_id"`
	EventTime      int64  `json:"event_time"`
	// Updates carries the changed fields on update events, and
	// "authorized": "false" on deauthorization.
	Updates map[string]string `json:"updates"`
}

// PushSubscriptionsService handles communication with the webhook
// subscription methods. These endpoints authenticate with the application's
// client credentials rather than an athlete token, so the client must be
// configured with WithOAuth.
type PushSubscriptionsService struct {
	client *Client
}

func (s *PushSubscriptionsService) creds() (clientID, clientSecret string, err error) {
	if s.client.oauth == nil {
		return "", "", errors.New("strava: push subscriptions require application credentials; configure the client with WithOAuth")
	}
	return s.client.oauth.clientID, s.client.oauth.clientSecret, nil
}

// Create registers a webhook callback URL. Strava validates the URL with a
// GET challenge carrying verifyToken before this call returns; serve it with
// HandleValidation. An empty verifyToken gets a generated one, which is
// returned alongside the subscription.
func (s *PushSubscriptionsService) Create(ctx context.Context, callbackURL, verifyToken string) (*PushSubscription, string, error) {
	clientID, clientSecret, err := s.creds()
	if err != nil {
		return nil, "", err
	}
	if callbackURL == "" {
		return nil, "", errors.New("strava: callback URL is required")
	}
	if verifyToken == "" {
		verifyToken = uuid.NewString()
	}

	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("callback_url", callbackURL)
	form.Set("verify_token", verifyToken)

	resp, err := s.client.executeWith(ctx, "", http.MethodPost, "/push_subscriptions", nil,
		[]byte(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, "", err
	}
	var sub PushSubscription
	if err := decodeResponse(resp, &sub); err != nil {
		return nil, "", err
	}
	return &sub, verifyToken, nil
}

// List fetches the application's push subscriptions. Strava allows at most
// one per application, but the endpoint still returns a list.
func (s *PushSubscriptionsService) List(ctx context.Context) ([]PushSubscription, error) {
	clientID, clientSecret, err := s.creds()
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("client_secret", clientSecret)

	resp, err := s.client.executeWith(ctx, "", http.MethodGet, "/push_subscriptions", q, nil, "")
	if err != nil {
		return nil, err
	}
	var subs []PushSubscription
	if err := decodeResponse(resp, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Delete removes a push subscription.
func (s *PushSubscriptionsService) Delete(ctx context.Context, id int64) error {
	clientID, clientSecret, err := s.creds()
	if err != nil {
		return err
	}
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("client_secret", clientSecret)

	_, err = s.client.executeWith(ctx, "", http.MethodDelete, fmt.Sprintf("/push_subscriptions/%d", id), q, nil, "")
	return err
}

// HandleValidation answers the GET challenge Strava sends to a callback URL
// during subscription creation. It checks hub.mode and, when verifyToken is
// non-empty, the echoed verify token, then writes the hub.challenge response.
func HandleValidation(w http.ResponseWriter, r *http.Request, verifyToken string) error {
	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" {
		return errors.New("strava: unexpected hub.mode in validation request")
	}
	if verifyToken != "" && q.Get("hub.verify_token") != verifyToken {
		return errors.New("strava: verify token mismatch")
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{
		"hub.challenge": q.Get("hub.challenge"),
	})
}

// ParseWebhookEvent reads an incoming event delivery. Strava does not sign
// event payloads; match SubscriptionID against your own subscription before
// trusting one. Ensure your handler does not consume r.Body first.
func ParseWebhookEvent(r *http.Request) (*WebhookEvent, error) {
	if r.Method != http.MethodPost {
		return nil, errors.New("strava: webhook events must be POST requests")
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("strava: reading webhook body: %w", err)
	}
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("strava: parsing webhook event: %w", err)
	}
	return &event, nil
}
