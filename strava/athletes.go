package strava

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DetailedAthlete represents the authenticated athlete's full profile.
type DetailedAthlete struct {
	ID                    int64         `json:"id"`
	Username              string        `json:"username"`
	ResourceState         int           `json:"resource_state"`
	Firstname             string        `json:"firstname"`
	Lastname              string        `json:"lastname"`
	Bio                   string        `json:"bio"`
	City                  string        `json:"city"`
	State                 string        `json:"state"`
	Country               string        `json:"country"`
	Sex                   string        `json:"sex"`
	Summit                bool          `json:"summit"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
	FollowerCount         int           `json:"follower_count"`
	FriendCount           int           `json:"friend_count"`
	MeasurementPreference string        `json:"measurement_preference"`
	FTP                   int           `json:"ftp"`
	Weight                float64       `json:"weight"`
	ProfileMedium         string        `json:"profile_medium"`
	Profile               string        `json:"profile"`
	Clubs                 []SummaryClub `json:"clubs"`
	Bikes                 []SummaryGear `json:"bikes"`
	Shoes                 []SummaryGear `json:"shoes"`
}

// SummaryAthlete is the reduced athlete representation embedded in other
// resources.
type SummaryAthlete struct {
	ID            int64  `json:"id"`
	ResourceState int    `json:"resource_state"`
	Firstname     string `json:"firstname"`
	Lastname      string `json:"lastname"`
}

// ActivityTotal aggregates a group of activities.
type ActivityTotal struct {
	Count            int     `json:"count"`
	Distance         float64 `json:"distance"`
	MovingTime       int     `json:"moving_time"`
	ElapsedTime      int     `json:"elapsed_time"`
	ElevationGain    float64 `json:"elevation_gain"`
	AchievementCount int     `json:"achievement_count"`
}

// ActivityStats is the athlete's rolled-up activity statistics.
type ActivityStats struct {
	BiggestRideDistance       float64       `json:"biggest_ride_distance"`
	BiggestClimbElevationGain float64       `json:"biggest_climb_elevation_gain"`
	RecentRideTotals          ActivityTotal `json:"recent_ride_totals"`
	RecentRunTotals           ActivityTotal `json:"recent_run_totals"`
	RecentSwimTotals          ActivityTotal `json:"recent_swim_totals"`
	YTDRideTotals             ActivityTotal `json:"ytd_ride_totals"`
	YTDRunTotals              ActivityTotal `json:"ytd_run_totals"`
	YTDSwimTotals             ActivityTotal `json:"ytd_swim_totals"`
	AllRideTotals             ActivityTotal `json:"all_ride_totals"`
	AllRunTotals              ActivityTotal `json:"all_run_totals"`
	AllSwimTotals             ActivityTotal `json:"all_swim_totals"`
}

// ZoneRange is one bucket of a heart rate or power zone distribution.
type ZoneRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// HeartRateZones describes the athlete's heart rate zones.
type HeartRateZones struct {
	CustomZones bool        `json:"custom_zones"`
	Zones       []ZoneRange `json:"zones"`
}

// PowerZones describes the athlete's power zones.
type PowerZones struct {
	Zones []ZoneRange `json:"zones"`
}

// AthleteZones bundles the athlete's configured zones.
type AthleteZones struct {
	HeartRate *HeartRateZones `json:"heart_rate,omitempty"`
	Power     *PowerZones     `json:"power,omitempty"`
}

// AthletesService handles communication with the athlete related methods.
type AthletesService struct {
	client *Client
}

// Get fetches the currently authenticated athlete.
func (s *AthletesService) Get(ctx context.Context) (*DetailedAthlete, error) {
	var athlete DetailedAthlete
	if err := s.client.get(ctx, "/athlete", nil, &athlete); err != nil {
		return nil, err
	}
	return &athlete, nil
}

// Update sets the authenticated athlete's weight in kilograms. Requires the
// profile:write scope.
func (s *AthletesService) Update(ctx context.Context, weight float64) (*DetailedAthlete, error) {
	q := url.Values{}
	q.Set("weight", strconv.FormatFloat(weight, 'f', -1, 64))

	resp, err := s.client.call(ctx, http.MethodPut, "/athlete", q, nil)
	if err != nil {
		return nil, err
	}
	var athlete DetailedAthlete
	if err := decodeResponse(resp, &athlete); err != nil {
		return nil, err
	}
	return &athlete, nil
}

// Stats fetches activity statistics for the given athlete. Only available
// for the authenticated athlete's own ID.
func (s *AthletesService) Stats(ctx context.Context, athleteID int64) (*ActivityStats, error) {
	var stats ActivityStats
	if err := s.client.get(ctx, fmt.Sprintf("/athletes/%d/stats", athleteID), nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Zones fetches the authenticated athlete's heart rate and power zones.
// Requires the profile:read_all scope.
func (s *AthletesService) Zones(ctx context.Context) (*AthleteZones, error) {
	var zones AthleteZones
	if err := s.client.get(ctx, "/athlete/zones", nil, &zones); err != nil {
		return nil, err
	}
	return &zones, nil
}
