package usecase

import (
	"context"
	"time"

	"github.com/openwidgets/nhl-ticker/external/nhle"
)

// UpstreamClient is the outbound contract to the data provider. The services
// do not know transport details beyond the typed failures the client maps.
type UpstreamClient interface {
	ClubScheduleNow(ctx context.Context, teamCode string) (nhle.ScheduleEnvelope, error)
	StandingsNow(ctx context.Context) (nhle.StandingsEnvelope, error)
	TVScheduleByDate(ctx context.Context, date string) (nhle.TVScheduleEnvelope, error)
}

// DatasetMeta is the per-dataset freshness metadata attached to composed
// views. WasStale means the payload outlived its TTL and was served as a
// fallback during an upstream failure.
type DatasetMeta struct {
	WasStale  bool      `json:"was_stale"`
	FetchedAt time.Time `json:"fetched_at"`
}
