package strava

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SummarySegment represents a segment as embedded in efforts and list
// responses.
type SummarySegment struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	ActivityType  string    `json:"activity_type"`
	Distance      float64   `json:"distance"`
	AverageGrade  float64   `json:"average_grade"`
	MaximumGrade  float64   `json:"maximum_grade"`
	ElevationHigh float64   `json:"elevation_high"`
	ElevationLow  float64   `json:"elevation_low"`
	StartLatLng   []float64 `json:"start_latlng"`
	EndLatLng     []float64 `json:"end_latlng"`
	ClimbCategory int       `json:"climb_category"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	Country       string    `json:"country"`
	Private       bool      `json:"private"`
	Hazardous     bool      `json:"hazardous"`
	Starred       bool      `json:"starred"`
}

// DetailedSegment extends SummarySegment with aggregate counts and the
// segment map.
type DetailedSegment struct {
	SummarySegment
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
	TotalElevationGain float64     `json:"total_elevation_gain"`
	Map                PolylineMap `json:"map"`
	EffortCount        int         `json:"effort_count"`
	AthleteCount       int         `json:"athlete_count"`
	StarCount          int         `json:"star_count"`
}

// ExploreSegment is the reduced representation returned by segment
// exploration.
type ExploreSegment struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	ClimbCategory     int       `json:"climb_category"`
	ClimbCategoryDesc string    `json:"climb_category_desc"`
	AvgGrade          float64   `json:"avg_grade"`
	StartLatLng       []float64 `json:"start_latlng"`
	EndLatLng         []float64 `json:"end_latlng"`
	ElevDifference    float64   `json:"elev_difference"`
	Distance          float64   `json:"distance"`
	Points            string    `json:"points"`
	Starred           bool      `json:"starred"`
}

// Bounds is a geographic rectangle: south-west latitude and longitude
// followed by north-east latitude and longitude.
type Bounds [4]float64

func (b Bounds) encode() string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// ExploreOptions narrows segment exploration.
type ExploreOptions struct {
	// ActivityType restricts results to "running" or "riding".
	ActivityType string `url:"activity_type,omitempty"`

	// MinCat and MaxCat bound the climb category of returned segments.
	MinCat int `url:"min_cat,omitempty"`
	MaxCat int `url:"max_cat,omitempty"`
}

// SegmentsService handles communication with the segment related methods.
type SegmentsService struct {
	client *Client
}

// Get fetches a single segment by its ID.
func (s *SegmentsService) Get(ctx context.Context, id int64) (*DetailedSegment, error) {
	var segment DetailedSegment
	if err := s.client.get(ctx, fmt.Sprintf("/segments/%d", id), nil, &segment); err != nil {
		return nil, err
	}
	return &segment, nil
}

// ListStarred fetches a paginated collection of the segments starred by the
// authenticated athlete.
func (s *SegmentsService) ListStarred(ctx context.Context, opts *ListOptions) (*Page[SummarySegment], error) {
	page, perPage := opts.pageArgs()
	return listPage[SummarySegment](ctx, s.client, "/segments/starred", opts, page, perPage)
}

// Star stars or unstars a segment for the authenticated athlete. Requires
// the profile:write scope.
func (s *SegmentsService) Star(ctx context.Context, id int64, starred bool) (*DetailedSegment, error) {
	body := struct {
		Starred bool `json:"starred"`
	}{Starred: starred}

	var segment DetailedSegment
	if err := s.client.put(ctx, fmt.Sprintf("/segments/%d/starred", id), body, &segment); err != nil {
		return nil, err
	}
	return &segment, nil
}

// Explore finds popular segments within the given bounds.
func (s *SegmentsService) Explore(ctx context.Context, bounds Bounds, opts *ExploreOptions) ([]ExploreSegment, error) {
	q, err := queryValues(opts)
	if err != nil {
		return nil, err
	}
	q.Set("bounds", bounds.encode())

	var out struct {
		Segments []ExploreSegment `json:"segments"`
	}
	if err := s.client.get(ctx, "/segments/explore", q, &out); err != nil {
		return nil, err
	}
	return out.Segments, nil
}
