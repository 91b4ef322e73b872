// Package strava provides a production-grade Go client for the Strava API
// (v3).
//
// The client handles OAuth2 token lifecycle with transparent refresh,
// sliding-window rate limiting against Strava's 15-minute and daily limits,
// automatic retries with exponential backoff, request deduplication, and
// page-based pagination.
//
// # Quick Start
//
//	client := strava.NewClient(
//	    strava.WithAccessToken("your_oauth2_token"),
//	)
//
//	athlete, err := client.Athletes.Get(ctx)
//
// # OAuth
//
// For long-lived programs, attach an OAuthManager so tokens refresh
// themselves ahead of expiry and persist across runs:
//
//	manager, _ := strava.NewOAuthManager(strava.OAuthConfig{
//	    ClientID:     os.Getenv("STRAVA_CLIENT_ID"),
//	    ClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
//	    Store:        strava.NewFileTokenStore("/path/to/token.json"),
//	})
//	client := strava.NewClient(strava.WithOAuth(manager))
//
// # Pagination
//
// List methods return page objects with a NextPage iterator:
//
//	page, _ := client.Activities.List(ctx, nil)
//	for {
//	    for _, a := range page.Records { /* process activity */ }
//	    page, err = page.NextPage(ctx)
//	    if errors.Is(err, strava.ErrNoNextPage) {
//	        break
//	    }
//	}
//
// # Rate limiting
//
// The client tracks both of Strava's usage windows locally, adjusts its
// ceilings from the X-RateLimit response headers and, by default, queues
// requests that would exceed them. WithRateLimitStrategy selects failing
// fast or polling instead.
//
// # Webhooks
//
// Manage push subscriptions with client.PushSubscriptions, answer callback
// validation with HandleValidation, and decode event deliveries with
// ParseWebhookEvent:
//
//	event, err := strava.ParseWebhookEvent(r)
package strava
