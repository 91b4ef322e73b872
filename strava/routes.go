package strava

import (
	"context"
	"fmt"
	"time"
)

// Route represents a planned route.
type Route struct {
	ID                  int64          `json:"id"`
	IDStr               string         `json:"id_str"`
	Name                string         `json:"name"`
	Description         string         `json:"description"`
	Athlete             SummaryAthlete `json:"athlete"`
	Distance            float64        `json:"distance"`
	ElevationGain       float64        `json:"elevation_gain"`
	Map                 PolylineMap    `json:"map"`
	Type                int            `json:"type"`
	SubType             int            `json:"sub_type"`
	Private             bool           `json:"private"`
	Starred             bool           `json:"starred"`
	Timestamp           int64          `json:"timestamp"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	EstimatedMovingTime int            `json:"estimated_moving_time"`
}

// RoutesService handles communication with the route related methods.
type RoutesService struct {
	client *Client
}

// Get fetches a single route by its ID.
func (s *RoutesService) Get(ctx context.Context, id int64) (*Route, error) {
	var route Route
	if err := s.client.get(ctx, fmt.Sprintf("/routes/%d", id), nil, &route); err != nil {
		return nil, err
	}
	return &route, nil
}

// ListAthleteRoutes fetches a paginated collection of an athlete's routes.
func (s *RoutesService) ListAthleteRoutes(ctx context.Context, athleteID int64, opts *ListOptions) (*Page[Route], error) {
	page, perPage := opts.pageArgs()
	return listPage[Route](ctx, s.client, fmt.Sprintf("/athletes/%d/routes", athleteID), opts, page, perPage)
}

// ExportGPX downloads a route as a GPX document.
func (s *RoutesService) ExportGPX(ctx context.Context, id int64) ([]byte, error) {
	return s.client.getRaw(ctx, fmt.Sprintf("/routes/%d/export_gpx", id), nil)
}

// ExportTCX downloads a route as a TCX document.
func (s *RoutesService) ExportTCX(ctx context.Context, id int64) ([]byte, error) {
	return s.client.getRaw(ctx, fmt.Sprintf("/routes/%d/export_tcx", id), nil)
}
