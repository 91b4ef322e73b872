package strava

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"
)

// newMockServer returns a test server with canned responses for the
// endpoints the service tests exercise. Tests that need scripted failures
// (flaky endpoints, rate limit responses, slow handlers) build their own
// small servers instead.
func newMockServer() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/athlete", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-RateLimit-Limit", "600,30000")
		w.Header().Set("X-RateLimit-Usage", "3,12")
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `{
				"id": 1001,
				"username": "mvala",
				"resource_state": 3,
				"firstname": "Marta",
				"lastname": "Vala",
				"city": "Girona",
				"country": "Spain",
				"sex": "F",
				"summit": true,
				"created_at": "2019-03-11T08:21:54Z",
				"updated_at": "2026-05-01T16:03:10Z",
				"follower_count": 87,
				"friend_count": 112,
				"measurement_preference": "meters",
				"ftp": 255,
				"weight": 61.5,
				"clubs": [{"id": 7, "name": "Girona Velo", "sport_type": "cycling", "member_count": 412}],
				"bikes": [{"id": "b1234", "name": "Canyon Ultimate", "primary": true, "distance": 8214339}],
				"shoes": [{"id": "g5678", "name": "Pegasus 40", "primary": true, "distance": 421800}]
			}`)
		case http.MethodPut:
			fmt.Fprintf(w, `{"id": 1001, "username": "mvala", "weight": %s}`, r.URL.Query().Get("weight"))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/athletes/1001/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"biggest_ride_distance": 211044.0,
			"biggest_climb_elevation_gain": 1158.0,
			"recent_ride_totals": {"count": 11, "distance": 742012.5, "moving_time": 99301, "elapsed_time": 105872, "elevation_gain": 8412.2, "achievement_count": 18},
			"ytd_ride_totals": {"count": 94, "distance": 5213044.0, "moving_time": 702115, "elapsed_time": 751200, "elevation_gain": 61280.0},
			"all_ride_totals": {"count": 1322, "distance": 64100233.0, "moving_time": 8872110, "elapsed_time": 9466121, "elevation_gain": 811230.0}
		}`)
	})

	mux.HandleFunc("/athlete/zones", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"heart_rate": {"custom_zones": true, "zones": [{"min": 0, "max": 115}, {"min": 115, "max": 152}, {"min": 152, "max": 171}, {"min": 171, "max": 186}, {"min": 186, "max": -1}]},
			"power": {"zones": [{"min": 0, "max": 142}, {"min": 143, "max": 194}, {"min": 195, "max": 232}]}
		}`)
	})

	mux.HandleFunc("/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "", "1":
			fmt.Fprint(w, `[
				{"id": 42, "name": "Morning Ride", "distance": 42195.0, "moving_time": 6012, "elapsed_time": 6347, "type": "Ride", "sport_type": "Ride", "start_date": "2026-05-12T06:02:13Z", "athlete": {"id": 1001}, "kudos_count": 14, "average_speed": 7.02},
				{"id": 43, "name": "Lunch Run", "distance": 10212.4, "moving_time": 2904, "elapsed_time": 2988, "type": "Run", "sport_type": "Run", "start_date": "2026-05-13T11:31:02Z", "athlete": {"id": 1001}, "kudos_count": 3, "average_speed": 3.52}
			]`)
		case "2":
			fmt.Fprint(w, `[
				{"id": 44, "name": "Evening Swim", "distance": 1500.0, "moving_time": 1812, "elapsed_time": 1902, "type": "Swim", "sport_type": "Swim", "start_date": "2026-05-14T18:14:55Z", "athlete": {"id": 1001}}
			]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	})

	mux.HandleFunc("/activities", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 4242, "name": "Indoor Intervals", "type": "Ride", "sport_type": "VirtualRide", "trainer": true, "distance": 30120.0, "moving_time": 3600, "elapsed_time": 3600, "start_date": "2026-05-15T17:00:00Z", "athlete": {"id": 1001}}`)
	})

	mux.HandleFunc("/activities/42", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": 42,
			"external_id": "garmin_ping_310841",
			"upload_id": 9902114,
			"athlete": {"id": 1001, "resource_state": 1},
			"name": "Morning Ride",
			"description": "Coastal loop before work.",
			"distance": 42195.0,
			"moving_time": 6012,
			"elapsed_time": 6347,
			"total_elevation_gain": 412.0,
			"type": "Ride",
			"sport_type": "Ride",
			"start_date": "2026-05-12T06:02:13Z",
			"start_date_local": "2026-05-12T08:02:13Z",
			"timezone": "(GMT+01:00) Europe/Madrid",
			"start_latlng": [41.97, 2.82],
			"end_latlng": [41.97, 2.82],
			"achievement_count": 4,
			"kudos_count": 14,
			"comment_count": 2,
			"athlete_count": 1,
			"map": {"id": "a42", "summary_polyline": "ki{eFvqfiVqAWQIGEEKAYJgB"},
			"trainer": false,
			"commute": true,
			"gear_id": "b1234",
			"average_speed": 7.02,
			"max_speed": 16.8,
			"average_watts": 221.4,
			"kilojoules": 1331.2,
			"device_watts": true,
			"has_heartrate": true,
			"average_heartrate": 141.2,
			"max_heartrate": 178.0,
			"calories": 1410.5,
			"device_name": "Garmin Edge 840"
		}`)
	})

	mux.HandleFunc("/activities/42/laps", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"id": 421, "name": "Lap 1", "activity": {"id": 42}, "athlete": {"id": 1001}, "elapsed_time": 3102, "moving_time": 3001, "start_date": "2026-05-12T06:02:13Z", "distance": 21100.0, "lap_index": 1, "split": 1, "average_speed": 7.0, "max_speed": 15.2},
			{"id": 422, "name": "Lap 2", "activity": {"id": 42}, "athlete": {"id": 1001}, "elapsed_time": 3245, "moving_time": 3011, "start_date": "2026-05-12T06:53:55Z", "distance": 21095.0, "lap_index": 2, "split": 2, "average_speed": 6.9, "max_speed": 16.8}
		]`)
	})

	mux.HandleFunc("/activities/42/comments", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"id": 9001, "activity_id": 42, "text": "Nice pace!", "athlete": {"id": 2002, "firstname": "Jon", "lastname": "K."}, "created_at": "2026-05-12T09:14:00Z"}
		]`)
	})

	mux.HandleFunc("/activities/42/kudos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"id": 2002, "firstname": "Jon", "lastname": "K."},
			{"id": 2003, "firstname": "Ana", "lastname": "R."}
		]`)
	})

	mux.HandleFunc("/activities/42/zones", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"score": 112.0, "type": "heartrate", "sensor_based": true, "points": 42, "distribution_buckets": [{"min": 0, "max": 115, "time": 902}, {"min": 115, "max": 152, "time": 3110}, {"min": 152, "max": 171, "time": 1800}]}
		]`)
	})

	mux.HandleFunc("/activities/42/streams", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"time": {"data": [0, 5, 10, 15], "series_type": "time", "original_size": 4, "resolution": "high"},
			"distance": {"data": [0.0, 31.2, 64.8, 99.5], "series_type": "distance", "original_size": 4, "resolution": "high"},
			"latlng": {"data": [[41.97, 2.82], [41.971, 2.821], [41.972, 2.822], [41.973, 2.823]], "series_type": "distance", "original_size": 4, "resolution": "high"},
			"heartrate": {"data": [98, 112, 121, 128], "series_type": "time", "original_size": 4, "resolution": "high"},
			"moving": {"data": [false, true, true, true], "series_type": "time", "original_size": 4, "resolution": "high"}
		}`)
	})

	mux.HandleFunc("/clubs/7", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": 7,
			"resource_state": 3,
			"name": "Girona Velo",
			"sport_type": "cycling",
			"city": "Girona",
			"country": "Spain",
			"private": false,
			"member_count": 412,
			"following_count": 398,
			"membership": "member",
			"admin": false,
			"owner": false,
			"url": "girona-velo"
		}`)
	})

	mux.HandleFunc("/clubs/7/members", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"firstname": "Marta", "lastname": "V.", "membership": "member", "admin": false, "owner": false},
			{"firstname": "Pau", "lastname": "S.", "membership": "member", "admin": true, "owner": true}
		]`)
	})

	mux.HandleFunc("/clubs/7/admins", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"firstname": "Pau", "lastname": "S."}]`)
	})

	mux.HandleFunc("/clubs/7/activities", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"athlete": {"firstname": "Pau", "lastname": "S."}, "name": "Gravel social", "distance": 61200.0, "moving_time": 9120, "elapsed_time": 10250, "total_elevation_gain": 880.0, "type": "Ride", "sport_type": "GravelRide"}
		]`)
	})

	mux.HandleFunc("/athlete/clubs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id": 7, "name": "Girona Velo", "sport_type": "cycling", "member_count": 412}]`)
	})

	mux.HandleFunc("/gear/b1234", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "b1234",
			"resource_state": 3,
			"primary": true,
			"name": "Canyon Ultimate",
			"brand_name": "Canyon",
			"model_name": "Ultimate CF SL",
			"frame_type": 3,
			"description": "Race bike",
			"distance": 8214339.0
		}`)
	})

	mux.HandleFunc("/routes/88", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": 88,
			"id_str": "88",
			"name": "Rocacorba Classic",
			"description": "The local test climb.",
			"athlete": {"id": 1001},
			"distance": 68211.0,
			"elevation_gain": 1402.0,
			"type": 1,
			"sub_type": 1,
			"private": false,
			"starred": true,
			"timestamp": 1715500800,
			"estimated_moving_time": 9900,
			"map": {"id": "r88", "summary_polyline": "}ri{Fbw}LoBqD"}
		}`)
	})

	mux.HandleFunc("/athletes/1001/routes", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id": 88, "name": "Rocacorba Classic", "distance": 68211.0, "elevation_gain": 1402.0}]`)
	})

	mux.HandleFunc("/routes/88/export_gpx", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/gpx+xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><gpx creator="StravaGPX"></gpx>`)
	})

	mux.HandleFunc("/routes/88/export_tcx", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/tcx+xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><TrainingCenterDatabase></TrainingCenterDatabase>`)
	})

	mux.HandleFunc("/routes/88/streams", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"type": "latlng", "data": [[42.1, 2.75], [42.11, 2.76]], "series_type": "distance", "original_size": 2, "resolution": "high"},
			{"type": "distance", "data": [0.0, 1520.5], "series_type": "distance", "original_size": 2, "resolution": "high"},
			{"type": "altitude", "data": [210.0, 388.4], "series_type": "distance", "original_size": 2, "resolution": "high"},
			{"type": "surface", "data": [0, 1], "series_type": "distance", "original_size": 2, "resolution": "high"}
		]`)
	})

	mux.HandleFunc("/segments/33", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": 33,
			"resource_state": 3,
			"name": "Rocacorba",
			"activity_type": "Ride",
			"distance": 9812.0,
			"average_grade": 6.9,
			"maximum_grade": 12.8,
			"elevation_high": 971.0,
			"elevation_low": 302.0,
			"start_latlng": [42.1, 2.75],
			"end_latlng": [42.13, 2.71],
			"climb_category": 1,
			"city": "Canet d'Adri",
			"country": "Spain",
			"private": false,
			"starred": true,
			"total_elevation_gain": 669.0,
			"effort_count": 102110,
			"athlete_count": 12208,
			"star_count": 2301,
			"created_at": "2010-01-09T18:14:12Z",
			"updated_at": "2026-04-28T07:45:00Z"
		}`)
	})

	mux.HandleFunc("/segments/starred", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id": 33, "name": "Rocacorba", "activity_type": "Ride", "distance": 9812.0, "average_grade": 6.9, "climb_category": 1, "starred": true}]`)
	})

	mux.HandleFunc("/segments/33/starred", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": 33, "name": "Rocacorba", "starred": true, "star_count": 2302}`)
	})

	mux.HandleFunc("/segments/explore", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"segments": [
			{"id": 33, "name": "Rocacorba", "climb_category": 1, "climb_category_desc": "1", "avg_grade": 6.9, "start_latlng": [42.1, 2.75], "end_latlng": [42.13, 2.71], "elev_difference": 669.0, "distance": 9812.0, "points": "}ri{Fbw}L"}
		]}`)
	})

	mux.HandleFunc("/segments/33/streams", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"distance": {"data": [0.0, 4901.0, 9812.0], "series_type": "distance", "original_size": 3, "resolution": "low"},
			"altitude": {"data": [302.0, 640.2, 971.0], "series_type": "distance", "original_size": 3, "resolution": "low"}
		}`)
	})

	mux.HandleFunc("/segment_efforts/55", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": 55,
			"name": "Rocacorba",
			"activity": {"id": 42},
			"athlete": {"id": 1001},
			"elapsed_time": 2112,
			"moving_time": 2110,
			"start_date": "2026-05-12T06:40:00Z",
			"start_date_local": "2026-05-12T08:40:00Z",
			"distance": 9812.0,
			"average_heartrate": 168.2,
			"max_heartrate": 181.0,
			"segment": {"id": 33, "name": "Rocacorba"},
			"kom_rank": null,
			"pr_rank": 2
		}`)
	})

	mux.HandleFunc("/segment_efforts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("segment_id") == "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"message": "Bad Request", "errors": [{"resource": "SegmentEffort", "field": "segment_id", "code": "required"}]}`)
			return
		}
		fmt.Fprint(w, `[
			{"id": 55, "name": "Rocacorba", "activity": {"id": 42}, "athlete": {"id": 1001}, "elapsed_time": 2112, "distance": 9812.0, "segment": {"id": 33, "name": "Rocacorba"}}
		]`)
	})

	mux.HandleFunc("/segment_efforts/55/streams", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"watts": {"data": [301, 322, 318], "series_type": "time", "original_size": 3, "resolution": "high"}}`)
	})

	mux.HandleFunc("/uploads", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 99, "id_str": "99", "external_id": "morning.fit", "status": "Your activity is still being processed.", "activity_id": 0}`)
	})

	mux.HandleFunc("/uploads/99", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": 99, "id_str": "99", "external_id": "morning.fit", "status": "Your activity is ready.", "activity_id": 4242}`)
	})

	return httptest.NewServer(mux)
}

// newMockClient returns a Client pointed at the given test server,
// authenticated with a static token and configured with fast retries so
// failure tests finish quickly.
func newMockClient(ts *httptest.Server, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(ts.URL),
		WithAccessToken("test-token"),
		WithRetryConfig(RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 5 * time.Millisecond,
			MaxDelay:     50 * time.Millisecond,
		}),
	}
	return NewClient(append(base, opts...)...)
}
