package strava

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// MetaActivity is the minimal activity reference embedded in other
// resources.
type MetaActivity struct {
	ID int64 `json:"id"`
}

// PolylineMap carries the encoded polylines of an activity or route map.
type PolylineMap struct {
	ID              string `json:"id"`
	Polyline        string `json:"polyline,omitempty"`
	SummaryPolyline string `json:"summary_polyline"`
}

// SummaryActivity represents an activity as returned by list endpoints.
type SummaryActivity struct {
	ID                 int64          `json:"id"`
	ExternalID         string         `json:"external_id"`
	UploadID           int64          `json:"upload_id"`
	Athlete            SummaryAthlete `json:"athlete"`
	Name               string         `json:"name"`
	Distance           float64        `json:"distance"`
	MovingTime         int            `json:"moving_time"`
	ElapsedTime        int            `json:"elapsed_time"`
	TotalElevationGain float64        `json:"total_elevation_gain"`
	Type               string         `json:"type"`
	SportType          string         `json:"sport_type"`
	StartDate          time.Time      `json:"start_date"`
	StartDateLocal     time.Time      `json:"start_date_local"`
	Timezone           string         `json:"timezone"`
	StartLatLng        []float64      `json:"start_latlng"`
	EndLatLng          []float64      `json:"end_latlng"`
	AchievementCount   int            `json:"achievement_count"`
	KudosCount         int            `json:"kudos_count"`
	CommentCount       int            `json:"comment_count"`
	AthleteCount       int            `json:"athlete_count"`
	PhotoCount         int            `json:"photo_count"`
	Map                PolylineMap    `json:"map"`
	Trainer            bool           `json:"trainer"`
	Commute            bool           `json:"commute"`
	Manual             bool           `json:"manual"`
	Private            bool           `json:"private"`
	Flagged            bool           `json:"flagged"`
	GearID             string         `json:"gear_id"`
	AverageSpeed       float64        `json:"average_speed"`
	MaxSpeed           float64        `json:"max_speed"`
	AverageWatts       float64        `json:"average_watts"`
	Kilojoules         float64        `json:"kilojoules"`
	DeviceWatts        bool           `json:"device_watts"`
	HasHeartrate       bool           `json:"has_heartrate"`
	AverageHeartrate   float64        `json:"average_heartrate"`
	MaxHeartrate       float64        `json:"max_heartrate"`
}

// DetailedActivity extends SummaryActivity with fields only present on the
// single-activity endpoint.
type DetailedActivity struct {
	SummaryActivity
	Description string  `json:"description"`
	Calories    float64 `json:"calories"`
	DeviceName  string  `json:"device_name"`
	EmbedToken  string  `json:"embed_token"`
}

// Lap represents one lap of an activity.
type Lap struct {
	ID                 int64          `json:"id"`
	ResourceState      int            `json:"resource_state"`
	Name               string         `json:"name"`
	Activity           MetaActivity   `json:"activity"`
	Athlete            SummaryAthlete `json:"athlete"`
	ElapsedTime        int            `json:"elapsed_time"`
	MovingTime         int            `json:"moving_time"`
	StartDate          time.Time      `json:"start_date"`
	StartDateLocal     time.Time      `json:"start_date_local"`
	Distance           float64        `json:"distance"`
	StartIndex         int            `json:"start_index"`
	EndIndex           int            `json:"end_index"`
	TotalElevationGain float64        `json:"total_elevation_gain"`
	AverageSpeed       float64        `json:"average_speed"`
	MaxSpeed           float64        `json:"max_speed"`
	AverageCadence     float64        `json:"average_cadence"`
	DeviceWatts        bool           `json:"device_watts"`
	AverageWatts       float64        `json:"average_watts"`
	LapIndex           int            `json:"lap_index"`
	Split              int            `json:"split"`
}

// Comment represents a comment left on an activity.
type Comment struct {
	ID         int64          `json:"id"`
	ActivityID int64          `json:"activity_id"`
	Text       string         `json:"text"`
	Athlete    SummaryAthlete `json:"athlete"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TimedZoneRange is one bucket of an activity zone distribution, with the
// time in seconds spent in it.
type TimedZoneRange struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Time int `json:"time"`
}

// ActivityZone is the heart rate or power distribution of one activity.
type ActivityZone struct {
	Score               float64          `json:"score"`
	Type                string           `json:"type"`
	SensorBased         bool             `json:"sensor_based"`
	CustomZones         bool             `json:"custom_zones"`
	Max                 int              `json:"max"`
	Points              float64          `json:"points"`
	DistributionBuckets []TimedZoneRange `json:"distribution_buckets"`
}

// CreateActivityRequest describes a manual activity to create.
type CreateActivityRequest struct {
	Name           string    `json:"name"`
	SportType      string    `json:"sport_type"`
	StartDateLocal time.Time `json:"start_date_local"`
	ElapsedTime    int       `json:"elapsed_time"`
	Type           string    `json:"type,omitempty"`
	Description    string    `json:"description,omitempty"`
	Distance       float64   `json:"distance,omitempty"`
	Trainer        bool      `json:"trainer,omitempty"`
	Commute        bool      `json:"commute,omitempty"`
}

// UpdateActivityRequest describes the editable fields of an activity. Nil
// pointers leave the field unchanged.
type UpdateActivityRequest struct {
	Name         *string `json:"name,omitempty"`
	SportType    *string `json:"sport_type,omitempty"`
	Description  *string `json:"description,omitempty"`
	GearID       *string `json:"gear_id,omitempty"`
	Trainer      *bool   `json:"trainer,omitempty"`
	Commute      *bool   `json:"commute,omitempty"`
	HideFromHome *bool   `json:"hide_from_home,omitempty"`
}

// ListActivityOptions filters the authenticated athlete's activity list.
type ListActivityOptions struct {
	ListOptions

	// Before filters to activities started before this epoch timestamp.
	Before int64 `url:"before,omitempty"`

	// After filters to activities started after this epoch timestamp.
	After int64 `url:"after,omitempty"`
}

// ActivitiesService handles communication with the activity related methods.
type ActivitiesService struct {
	client *Client
}

// Create records a manual activity. Requires the activity:write scope.
func (s *ActivitiesService) Create(ctx context.Context, req *CreateActivityRequest) (*DetailedActivity, error) {
	var activity DetailedActivity
	if err := s.client.post(ctx, "/activities", nil, req, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Get fetches a single activity by its ID. includeAllEfforts requests every
// segment effort instead of the notable ones.
func (s *ActivitiesService) Get(ctx context.Context, id int64, includeAllEfforts bool) (*DetailedActivity, error) {
	var q url.Values
	if includeAllEfforts {
		q = url.Values{}
		q.Set("include_all_efforts", "true")
	}
	var activity DetailedActivity
	if err := s.client.get(ctx, fmt.Sprintf("/activities/%d", id), q, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Update edits an activity. Requires the activity:write scope.
func (s *ActivitiesService) Update(ctx context.Context, id int64, req *UpdateActivityRequest) (*DetailedActivity, error) {
	var activity DetailedActivity
	if err := s.client.put(ctx, fmt.Sprintf("/activities/%d", id), req, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// List fetches a paginated collection of the authenticated athlete's
// activities, most recent first.
func (s *ActivitiesService) List(ctx context.Context, opts *ListActivityOptions) (*Page[SummaryActivity], error) {
	page, perPage := opts.pageOptions()
	return listPage[SummaryActivity](ctx, s.client, "/athlete/activities", opts, page, perPage)
}

// pageOptions tolerates a nil receiver so callers can pass nil options.
func (o *ListActivityOptions) pageOptions() (page, perPage int) {
	if o == nil {
		return 0, 0
	}
	return o.ListOptions.pageArgs()
}

// ListLaps fetches the laps of an activity.
func (s *ActivitiesService) ListLaps(ctx context.Context, id int64) ([]Lap, error) {
	var laps []Lap
	if err := s.client.get(ctx, fmt.Sprintf("/activities/%d/laps", id), nil, &laps); err != nil {
		return nil, err
	}
	return laps, nil
}

// ListComments fetches a paginated collection of an activity's comments.
func (s *ActivitiesService) ListComments(ctx context.Context, id int64, opts *ListOptions) (*Page[Comment], error) {
	page, perPage := opts.pageArgs()
	return listPage[Comment](ctx, s.client, fmt.Sprintf("/activities/%d/comments", id), opts, page, perPage)
}

// ListKudoers fetches a paginated collection of the athletes who kudoed an
// activity.
func (s *ActivitiesService) ListKudoers(ctx context.Context, id int64, opts *ListOptions) (*Page[SummaryAthlete], error) {
	page, perPage := opts.pageArgs()
	return listPage[SummaryAthlete](ctx, s.client, fmt.Sprintf("/activities/%d/kudos", id), opts, page, perPage)
}

// Zones fetches the heart rate and power distributions of an activity.
// Summit-only on Strava's side.
func (s *ActivitiesService) Zones(ctx context.Context, id int64) ([]ActivityZone, error) {
	var zones []ActivityZone
	if err := s.client.get(ctx, fmt.Sprintf("/activities/%d/zones", id), nil, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}
