package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/Pinta365/strava/strava"
)

func main() {
	// Pick up STRAVA_* settings from a local .env when present.
	_ = godotenv.Load()

	clientID := os.Getenv("STRAVA_CLIENT_ID")
	clientSecret := os.Getenv("STRAVA_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Fatal("Error: STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET environment variables are required.")
	}

	redirectURI := os.Getenv("STRAVA_REDIRECT_URI")
	if redirectURI == "" {
		redirectURI = "http://localhost:8081/callback"
	}

	store, err := strava.NewDefaultTokenStore(strava.TokenStoreEnvironment{})
	if err != nil {
		log.Fatalf("Error selecting token store: %v", err)
	}

	manager, err := strava.NewOAuthManager(strava.OAuthConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		Store:        store,
	})
	if err != nil {
		log.Fatalf("Error building OAuth manager: %v", err)
	}

	// Try to reuse an existing session first; GetValidToken refreshes it when
	// it is close to expiry.
	if rec, err := manager.GetValidToken(context.Background()); err == nil {
		fmt.Println("Found existing token session.")
		printToken(rec)
		return
	}

	// No valid session, run the full OAuth authorization code flow.
	runAuthFlow(manager, redirectURI)
}

func runAuthFlow(manager *strava.OAuthManager, redirectURI string) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		log.Fatalf("Error parsing STRAVA_REDIRECT_URI: %v", err)
	}

	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	scopes := []strava.Scope{
		strava.ScopeRead,
		strava.ScopeActivityReadAll,
		strava.ScopeProfileReadAll,
	}

	// The state parameter ties the callback to this run.
	state := uuid.NewString()

	authURL, err := manager.AuthorizationURL(scopes, state, strava.ApprovalPromptAuto)
	if err != nil {
		log.Fatalf("Error building authorization URL: %v", err)
	}

	fmt.Println("=== Strava OAuth 2.0 Token Generator ===")
	fmt.Println("\n1. IMPORTANT: Ensure the Authorization Callback Domain of your API application (https://www.strava.com/settings/api) matches:")
	fmt.Printf("   %s\n", u.Hostname())
	fmt.Println("\n2. Open this URL in your browser to authorize:")
	fmt.Printf("\n   %s\n\n", authURL)
	fmt.Printf("Waiting for authorization callback on port %s...\n", port)

	server := &http.Server{Addr: ":" + port}

	http.HandleFunc(u.Path, func(w http.ResponseWriter, r *http.Request) {
		// Strava reports a denied authorization as an error parameter.
		if errParam := r.URL.Query().Get("error"); errParam != "" {
			msg := fmt.Sprintf("OAuth error: %s", errParam)
			fmt.Fprintf(os.Stderr, "\n=== OAUTH ERROR ===\n%s\n", msg)
			http.Error(w, msg, http.StatusBadRequest)
			shutdownSoon(server)
			return
		}

		if got := r.URL.Query().Get("state"); got != state {
			http.Error(w, "State mismatch, please restart the flow", http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Failed to get auth code from request", http.StatusBadRequest)
			return
		}

		fmt.Println("Received auth code! Exchanging for access token...")

		rec, err := manager.ExchangeCode(r.Context(), code)
		if err != nil {
			http.Error(w, fmt.Sprintf("Token exchange error: %v", err), http.StatusInternalServerError)
			return
		}

		printToken(rec)

		fmt.Fprintf(w, "Success! You can close this window and check your terminal.")
		shutdownSoon(server)
	})

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

// shutdownSoon stops the callback server after the response has been written.
func shutdownSoon(server *http.Server) {
	go func() {
		time.Sleep(1 * time.Second)
		server.Shutdown(context.Background())
	}()
}

func printToken(rec *strava.TokenRecord) {
	expiresAt := time.Unix(rec.ExpiresAt, 0)

	fmt.Println("\n=== SUCCESS ===")
	if rec.AthleteID != 0 {
		fmt.Printf("\nAuthorized athlete: %d (scope: %s)\n", rec.AthleteID, rec.Scope)
	}
	fmt.Println("\nExport your token:")
	fmt.Printf("\nexport STRAVA_ACCESS_TOKEN=\"%s\"\n", rec.AccessToken)
	fmt.Printf("export STRAVA_REFRESH_TOKEN=\"%s\"\n", rec.RefreshToken)
	fmt.Printf("export STRAVA_TOKEN_EXPIRES_AT=\"%d\"\n", rec.ExpiresAt)
	fmt.Printf("\nThe token is also persisted in the token store, so programs using the same store refresh it without a browser login.\n")
	fmt.Printf("\nToken expires at %s (in %s).\n", expiresAt.Format(time.RFC3339), time.Until(expiresAt).Round(time.Second))
}
