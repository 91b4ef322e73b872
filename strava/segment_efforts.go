package strava

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// DetailedSegmentEffort represents an athlete's attempt at a segment.
type DetailedSegmentEffort struct {
	ID               int64          `json:"id"`
	ActivityID       int64          `json:"activity_id"`
	Name             string         `json:"name"`
	Activity         MetaActivity   `json:"activity"`
	Athlete          SummaryAthlete `json:"athlete"`
	ElapsedTime      int            `json:"elapsed_time"`
	MovingTime       int            `json:"moving_time"`
	StartDate        time.Time      `json:"start_date"`
	StartDateLocal   time.Time      `json:"start_date_local"`
	Distance         float64        `json:"distance"`
	StartIndex       int            `json:"start_index"`
	EndIndex         int            `json:"end_index"`
	AverageCadence   float64        `json:"average_cadence"`
	AverageWatts     float64        `json:"average_watts"`
	DeviceWatts      bool           `json:"device_watts"`
	AverageHeartrate float64        `json:"average_heartrate"`
	MaxHeartrate     float64        `json:"max_heartrate"`
	Segment          SummarySegment `json:"segment"`
	KomRank          int            `json:"kom_rank"`
	PRRank           int            `json:"pr_rank"`
	Hidden           bool           `json:"hidden"`
}

// ListSegmentEffortOptions filters segment effort listings. The time range
// is only honored for Summit accounts on Strava's side.
type ListSegmentEffortOptions struct {
	ListOptions

	StartDateLocal *time.Time `url:"start_date_local,omitempty"`
	EndDateLocal   *time.Time `url:"end_date_local,omitempty"`
}

// SegmentEffortsService handles communication with the segment effort
// related methods.
type SegmentEffortsService struct {
	client *Client
}

// Get fetches a single segment effort by its ID.
func (s *SegmentEffortsService) Get(ctx context.Context, id int64) (*DetailedSegmentEffort, error) {
	var effort DetailedSegmentEffort
	if err := s.client.get(ctx, fmt.Sprintf("/segment_efforts/%d", id), nil, &effort); err != nil {
		return nil, err
	}
	return &effort, nil
}

// List fetches a paginated collection of the authenticated athlete's efforts
// on the given segment.
func (s *SegmentEffortsService) List(ctx context.Context, segmentID int64, opts *ListSegmentEffortOptions) (*Page[DetailedSegmentEffort], error) {
	page, perPage := 0, 0
	if opts != nil {
		page, perPage = opts.ListOptions.pageArgs()
	}
	return fetchPage(ctx, page, perPage, func(ctx context.Context, page, perPage int) ([]DetailedSegmentEffort, error) {
		q, err := queryValues(opts)
		if err != nil {
			return nil, err
		}
		q.Set("segment_id", strconv.FormatInt(segmentID, 10))
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(perPage))
		var efforts []DetailedSegmentEffort
		if err := s.client.get(ctx, "/segment_efforts", q, &efforts); err != nil {
			return nil, err
		}
		return efforts, nil
	})
}
