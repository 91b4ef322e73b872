package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Pinta365/strava/strava"
)

// This example runs a webhook integration end to end: answer Strava's
// callback validation, parse incoming event deliveries, and pull the full
// activity for each one through the rate-limited REST client.
func main() {
	_ = godotenv.Load()

	store, err := strava.NewDefaultTokenStore(strava.TokenStoreEnvironment{})
	if err != nil {
		log.Fatalf("Error selecting token store: %v", err)
	}

	manager, err := strava.NewOAuthManager(strava.OAuthConfig{
		ClientID:     os.Getenv("STRAVA_CLIENT_ID"),
		ClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
		Store:        store,
	})
	if err != nil {
		log.Fatalf("Error building OAuth manager: %v (run cmd/auth first)", err)
	}

	client := strava.NewClient(
		strava.WithOAuth(manager),
		strava.WithRetryConfig(strava.RetryConfig{MaxAttempts: 5}),
		strava.WithDeduplication(true),
	)
	defer client.Close()

	verifyToken := os.Getenv("STRAVA_VERIFY_TOKEN")

	// Process events through a bounded worker pool instead of a goroutine per
	// delivery, so a traffic spike cannot create unbounded concurrency.
	jobQueue := make(chan int64, 100)
	for i := 0; i < 5; i++ {
		go worker(client, jobQueue)
	}

	http.HandleFunc("/strava/webhook", webhookHandler(verifyToken, jobQueue))

	log.Println("Webhook listener on :8080...")
	log.Fatal(http.ListenAndServe(":8080", nil))
}

func webhookHandler(verifyToken string, jobQueue chan<- int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Subscription creation sends a GET challenge before any events.
		if r.Method == http.MethodGet {
			if err := strava.HandleValidation(w, r, verifyToken); err != nil {
				log.Printf("Rejected validation request: %v", err)
				http.Error(w, "Forbidden", http.StatusForbidden)
			}
			return
		}

		event, err := strava.ParseWebhookEvent(r)
		if err != nil {
			log.Printf("Failed to parse webhook event: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		log.Printf("Received webhook event: %s %s %d", event.AspectType, event.ObjectType, event.ObjectID)

		// Acknowledge rapidly; Strava retries deliveries that do not answer
		// within a couple of seconds.
		w.WriteHeader(http.StatusOK)

		if event.ObjectType == "activity" && event.AspectType != "delete" {
			select {
			case jobQueue <- event.ObjectID:
			default:
				log.Printf("Worker pool full, dropping activity %d", event.ObjectID)
			}
		}
	}
}

func worker(client *strava.Client, jobQueue <-chan int64) {
	for activityID := range jobQueue {
		processActivity(client, activityID)
	}
}

// processActivity pulls the full activity named by a webhook delivery. The
// event itself only carries IDs, the data lives behind the REST API.
func processActivity(client *strava.Client, activityID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	activity, err := client.Activities.Get(ctx, activityID, false)
	if err != nil {
		log.Printf("[Webhook Worker] Failed to fetch activity %d: %v", activityID, err)
		return
	}

	log.Printf("[Webhook Worker] Activity processed: ID=%d, Name=%q, Distance=%.1fkm, MovingTime=%s",
		activity.ID,
		activity.Name,
		activity.Distance/1000,
		time.Duration(activity.MovingTime)*time.Second,
	)

	// TODO: Save this `activity` payload locally to a database or generic store!
}
