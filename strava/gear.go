package strava

import (
	"context"
	"errors"
)

// SummaryGear represents a bike or pair of shoes as embedded in an athlete
// profile.
type SummaryGear struct {
	ID            string  `json:"id"`
	ResourceState int     `json:"resource_state"`
	Primary       bool    `json:"primary"`
	Name          string  `json:"name"`
	Distance      float64 `json:"distance"`
}

// DetailedGear extends SummaryGear with the full equipment description.
type DetailedGear struct {
	SummaryGear
	BrandName   string `json:"brand_name"`
	ModelName   string `json:"model_name"`
	FrameType   int    `json:"frame_type"`
	Description string `json:"description"`
}

// GearService handles communication with the equipment related methods.
type GearService struct {
	client *Client
}

// Get fetches a piece of equipment by its ID. Gear IDs are prefixed strings
// such as "b1234" for bikes and "g1234" for shoes.
func (s *GearService) Get(ctx context.Context, id string) (*DetailedGear, error) {
	if id == "" {
		return nil, errors.New("strava: gear id is required")
	}
	var gear DetailedGear
	if err := s.client.get(ctx, "/gear/"+id, nil, &gear); err != nil {
		return nil, err
	}
	return &gear, nil
}
