package strava

import (
	"context"
	"fmt"
)

// SummaryClub represents a club as returned by list endpoints.
type SummaryClub struct {
	ID              int64  `json:"id"`
	ResourceState   int    `json:"resource_state"`
	Name            string `json:"name"`
	ProfileMedium   string `json:"profile_medium"`
	CoverPhoto      string `json:"cover_photo"`
	CoverPhotoSmall string `json:"cover_photo_small"`
	SportType       string `json:"sport_type"`
	City            string `json:"city"`
	State           string `json:"state"`
	Country         string `json:"country"`
	Private         bool   `json:"private"`
	MemberCount     int    `json:"member_count"`
	Featured        bool   `json:"featured"`
	Verified        bool   `json:"verified"`
	URL             string `json:"url"`
}

// DetailedClub extends SummaryClub with the authenticated athlete's
// membership view.
type DetailedClub struct {
	SummaryClub
	Membership     string `json:"membership"`
	Admin          bool   `json:"admin"`
	Owner          bool   `json:"owner"`
	FollowingCount int    `json:"following_count"`
}

// ClubAthlete is the anonymized athlete representation used by club member
// lists.
type ClubAthlete struct {
	ResourceState int    `json:"resource_state"`
	Firstname     string `json:"firstname"`
	Lastname      string `json:"lastname"`
	Membership    string `json:"membership"`
	Admin         bool   `json:"admin"`
	Owner         bool   `json:"owner"`
}

// ClubActivity is the reduced activity representation of a club feed.
type ClubActivity struct {
	Athlete            ClubAthlete `json:"athlete"`
	Name               string      `json:"name"`
	Distance           float64     `json:"distance"`
	MovingTime         int         `json:"moving_time"`
	ElapsedTime        int         `json:"elapsed_time"`
	TotalElevationGain float64     `json:"total_elevation_gain"`
	Type               string      `json:"type"`
	SportType          string      `json:"sport_type"`
}

// ClubsService handles communication with the club related methods.
type ClubsService struct {
	client *Client
}

// Get fetches a single club by its ID.
func (s *ClubsService) Get(ctx context.Context, id int64) (*DetailedClub, error) {
	var club DetailedClub
	if err := s.client.get(ctx, fmt.Sprintf("/clubs/%d", id), nil, &club); err != nil {
		return nil, err
	}
	return &club, nil
}

// ListMembers fetches a paginated collection of a club's members.
func (s *ClubsService) ListMembers(ctx context.Context, id int64, opts *ListOptions) (*Page[ClubAthlete], error) {
	page, perPage := opts.pageArgs()
	return listPage[ClubAthlete](ctx, s.client, fmt.Sprintf("/clubs/%d/members", id), opts, page, perPage)
}

// ListAdmins fetches a paginated collection of a club's administrators.
func (s *ClubsService) ListAdmins(ctx context.Context, id int64, opts *ListOptions) (*Page[SummaryAthlete], error) {
	page, perPage := opts.pageArgs()
	return listPage[SummaryAthlete](ctx, s.client, fmt.Sprintf("/clubs/%d/admins", id), opts, page, perPage)
}

// ListActivities fetches a paginated collection of a club's recent
// activities.
func (s *ClubsService) ListActivities(ctx context.Context, id int64, opts *ListOptions) (*Page[ClubActivity], error) {
	page, perPage := opts.pageArgs()
	return listPage[ClubActivity](ctx, s.client, fmt.Sprintf("/clubs/%d/activities", id), opts, page, perPage)
}

// ListAthleteClubs fetches a paginated collection of the clubs the
// authenticated athlete belongs to.
func (s *ClubsService) ListAthleteClubs(ctx context.Context, opts *ListOptions) (*Page[SummaryClub], error) {
	page, perPage := opts.pageArgs()
	return listPage[SummaryClub](ctx, s.client, "/athlete/clubs", opts, page, perPage)
}
