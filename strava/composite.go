package strava

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// AthleteBundle aggregates the authenticated athlete's profile with
// best-effort extras. Stats and Zones are nil when their fetch failed.
type AthleteBundle struct {
	Athlete *DetailedAthlete
	Stats   *ActivityStats
	Zones   *AthleteZones
}

// GetBundle fetches the athlete profile plus stats and zones. The profile
// fetch must succeed; the extras run concurrently and their failures are
// discarded.
func (s *AthletesService) GetBundle(ctx context.Context) (*AthleteBundle, error) {
	athlete, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	bundle := &AthleteBundle{Athlete: athlete}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if stats, err := s.Stats(gctx, athlete.ID); err == nil {
			bundle.Stats = stats
		}
		return nil
	})
	g.Go(func() error {
		if zones, err := s.Zones(gctx); err == nil {
			bundle.Zones = zones
		}
		return nil
	})
	_ = g.Wait()
	return bundle, nil
}

// ActivityBundle aggregates one activity with best-effort extras. Laps and
// Zones are nil when their fetch failed.
type ActivityBundle struct {
	Activity *DetailedActivity
	Laps     []Lap
	Zones    []ActivityZone
}

// GetBundle fetches an activity plus its laps and zone distributions. The
// activity fetch must succeed; the extras run concurrently and their
// failures are discarded.
func (s *ActivitiesService) GetBundle(ctx context.Context, id int64) (*ActivityBundle, error) {
	activity, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}

	bundle := &ActivityBundle{Activity: activity}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if laps, err := s.ListLaps(gctx, id); err == nil {
			bundle.Laps = laps
		}
		return nil
	})
	g.Go(func() error {
		if zones, err := s.Zones(gctx, id); err == nil {
			bundle.Zones = zones
		}
		return nil
	})
	_ = g.Wait()
	return bundle, nil
}
