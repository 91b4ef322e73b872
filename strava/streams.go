package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Stream is one time-aligned data series of an activity, segment or route.
type Stream[T any] struct {
	Data         []T    `json:"data"`
	SeriesType   string `json:"series_type"`
	OriginalSize int    `json:"original_size"`
	Resolution   string `json:"resolution"`
}

// StreamSet holds every stream type the API can return, keyed by type.
// Streams that were not requested or not recorded are nil.
type StreamSet struct {
	Time           *Stream[int]        `json:"time"`
	Distance       *Stream[float64]    `json:"distance"`
	LatLng         *Stream[[2]float64] `json:"latlng"`
	Altitude       *Stream[float64]    `json:"altitude"`
	VelocitySmooth *Stream[float64]    `json:"velocity_smooth"`
	Heartrate      *Stream[int]        `json:"heartrate"`
	Cadence        *Stream[int]        `json:"cadence"`
	Watts          *Stream[int]        `json:"watts"`
	Temp           *Stream[int]        `json:"temp"`
	Moving         *Stream[bool]       `json:"moving"`
	GradeSmooth    *Stream[float64]    `json:"grade_smooth"`
}

// StreamsService handles communication with the stream related methods.
type StreamsService struct {
	client *Client
}

// streamQuery requests the keyed-by-type representation for the given
// stream keys.
func streamQuery(keys []string) url.Values {
	q := url.Values{}
	q.Set("keys", strings.Join(keys, ","))
	q.Set("key_by_type", "true")
	return q
}

// Activity fetches the requested streams of an activity.
func (s *StreamsService) Activity(ctx context.Context, id int64, keys []string) (*StreamSet, error) {
	var set StreamSet
	if err := s.client.get(ctx, fmt.Sprintf("/activities/%d/streams", id), streamQuery(keys), &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// Segment fetches the requested streams of a segment. The API supports only
// distance, latlng and altitude here.
func (s *StreamsService) Segment(ctx context.Context, id int64, keys []string) (*StreamSet, error) {
	var set StreamSet
	if err := s.client.get(ctx, fmt.Sprintf("/segments/%d/streams", id), streamQuery(keys), &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// SegmentEffort fetches the requested streams of a segment effort, cropped
// to the effort's window.
func (s *StreamsService) SegmentEffort(ctx context.Context, id int64, keys []string) (*StreamSet, error) {
	var set StreamSet
	if err := s.client.get(ctx, fmt.Sprintf("/segment_efforts/%d/streams", id), streamQuery(keys), &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// rawStream is the array-element representation used by the route streams
// endpoint, which predates key_by_type.
type rawStream struct {
	Type         string          `json:"type"`
	Data         json.RawMessage `json:"data"`
	SeriesType   string          `json:"series_type"`
	OriginalSize int             `json:"original_size"`
	Resolution   string          `json:"resolution"`
}

// Route fetches the streams of a route. The endpoint returns an array of
// typed streams; they are folded into a StreamSet for a uniform interface.
func (s *StreamsService) Route(ctx context.Context, id int64) (*StreamSet, error) {
	body, err := s.client.getRaw(ctx, fmt.Sprintf("/routes/%d/streams", id), nil)
	if err != nil {
		return nil, err
	}
	var raws []rawStream
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("strava: decoding route streams: %w", err)
	}

	set := &StreamSet{}
	for _, raw := range raws {
		if err := set.assign(raw); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// assign decodes one typed raw stream into its StreamSet slot. Unknown
// stream types are skipped rather than failing the whole set.
func (set *StreamSet) assign(raw rawStream) error {
	switch raw.Type {
	case "time":
		return decodeStream(raw, &set.Time)
	case "distance":
		return decodeStream(raw, &set.Distance)
	case "latlng":
		return decodeStream(raw, &set.LatLng)
	case "altitude":
		return decodeStream(raw, &set.Altitude)
	case "velocity_smooth":
		return decodeStream(raw, &set.VelocitySmooth)
	case "heartrate":
		return decodeStream(raw, &set.Heartrate)
	case "cadence":
		return decodeStream(raw, &set.Cadence)
	case "watts":
		return decodeStream(raw, &set.Watts)
	case "temp":
		return decodeStream(raw, &set.Temp)
	case "moving":
		return decodeStream(raw, &set.Moving)
	case "grade_smooth":
		return decodeStream(raw, &set.GradeSmooth)
	default:
		return nil
	}
}

func decodeStream[T any](raw rawStream, slot **Stream[T]) error {
	st := &Stream[T]{
		SeriesType:   raw.SeriesType,
		OriginalSize: raw.OriginalSize,
		Resolution:   raw.Resolution,
	}
	if err := json.Unmarshal(raw.Data, &st.Data); err != nil {
		return fmt.Errorf("strava: decoding %s stream: %w", raw.Type, err)
	}
	*slot = st
	return nil
}
