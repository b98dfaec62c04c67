package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/openwidgets/nhl-ticker/external/nhle"
	"github.com/openwidgets/nhl-ticker/internal/domain/game"
	"github.com/openwidgets/nhl-ticker/internal/platform/cache"
	"github.com/openwidgets/nhl-ticker/internal/platform/logging"
)

type GamesConfig struct {
	RecentTTL   time.Duration
	UpcomingTTL time.Duration
	TVTTL       time.Duration
	// TVFetchWorkers bounds the parallel per-date tv-schedule fetches.
	TVFetchWorkers int
	Networks       NetworkConfig
}

// GamesService serves the recent and upcoming game datasets for a team.
// Each dataset is cached independently under its own TTL; the service returns
// full ordered lists and leaves truncation to the composer.
type GamesService struct {
	upstream UpstreamClient
	store    *cache.Store
	cfg      GamesConfig
	logger   *logging.Logger
}

func NewGamesService(upstream UpstreamClient, store *cache.Store, cfg GamesConfig, logger *logging.Logger) *GamesService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TVFetchWorkers < 1 {
		cfg.TVFetchWorkers = 4
	}
	return &GamesService{upstream: upstream, store: store, cfg: cfg, logger: logger}
}

// Recent returns live and final games for teamCode, most recent first.
func (s *GamesService) Recent(ctx context.Context, teamCode string) ([]game.Game, DatasetMeta, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GamesService.Recent")
	defer span.End()

	key := cache.Key{Kind: cache.KindRecent, Scope: teamCode}
	games, res, err := cache.Load(ctx, s.store, key, s.cfg.RecentTTL, func(ctx context.Context) ([]game.Game, error) {
		all, err := s.loadSchedule(ctx, teamCode)
		if err != nil {
			return nil, err
		}
		recent := filterByStatus(all, game.StatusLive, game.StatusFinal)
		sort.SliceStable(recent, func(i, j int) bool {
			return recent[i].StartTime.After(recent[j].StartTime)
		})
		return recent, nil
	})
	if err != nil {
		return nil, DatasetMeta{}, fmt.Errorf("%w: recent games for %s: %v", ErrNoData, teamCode, err)
	}

	return games, DatasetMeta{WasStale: res.WasStale, FetchedAt: res.FetchedAt}, nil
}

// Upcoming returns scheduled games for teamCode, earliest first.
func (s *GamesService) Upcoming(ctx context.Context, teamCode string) ([]game.Game, DatasetMeta, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GamesService.Upcoming")
	defer span.End()

	key := cache.Key{Kind: cache.KindUpcoming, Scope: teamCode}
	games, res, err := cache.Load(ctx, s.store, key, s.cfg.UpcomingTTL, func(ctx context.Context) ([]game.Game, error) {
		all, err := s.loadSchedule(ctx, teamCode)
		if err != nil {
			return nil, err
		}
		upcoming := filterByStatus(all, game.StatusScheduled)
		sort.SliceStable(upcoming, func(i, j int) bool {
			return upcoming[i].StartTime.Before(upcoming[j].StartTime)
		})
		return upcoming, nil
	})
	if err != nil {
		return nil, DatasetMeta{}, fmt.Errorf("%w: upcoming games for %s: %v", ErrNoData, teamCode, err)
	}

	return games, DatasetMeta{WasStale: res.WasStale, FetchedAt: res.FetchedAt}, nil
}

// AttachNetworks returns copies of games with display-ready broadcast lists.
// Games lacking embedded broadcasts fall back to the per-date tv-schedule
// payload; those payloads are cached per date and fetched in parallel.
// TV data is best-effort: a failed date just leaves its games without
// networks.
func (s *GamesService) AttachNetworks(ctx context.Context, games []game.Game) []game.Game {
	ctx, span := startUsecaseSpan(ctx, "usecase.GamesService.AttachNetworks")
	defer span.End()

	if len(games) == 0 {
		return games
	}

	missing := make(map[string]bool)
	for _, g := range games {
		if len(g.Networks) == 0 {
			missing[g.StartTime.UTC().Format("2006-01-02")] = true
		}
	}

	payloads := make(map[string]nhle.TVScheduleEnvelope, len(missing))
	if len(missing) > 0 {
		var mu sync.Mutex
		p := pool.New().WithMaxGoroutines(s.cfg.TVFetchWorkers)
		for date := range missing {
			p.Go(func() {
				env, err := s.tvSchedule(ctx, date)
				if err != nil {
					s.logger.WarnContext(ctx, "tv schedule fetch failed, leaving networks empty", "date", date, "error", err)
					return
				}
				mu.Lock()
				payloads[date] = env
				mu.Unlock()
			})
		}
		p.Wait()
	}

	out := make([]game.Game, len(games))
	for i, g := range games {
		raw := g.Networks
		if len(raw) == 0 {
			date := g.StartTime.UTC().Format("2006-01-02")
			raw = nhle.NetworksForGame(payloads[date], g.ID)
		}
		g.Networks = s.cfg.Networks.DisplayNetworks(raw)
		out[i] = g
	}
	return out
}

func (s *GamesService) loadSchedule(ctx context.Context, teamCode string) ([]game.Game, error) {
	env, err := s.upstream.ClubScheduleNow(ctx, teamCode)
	if err != nil {
		return nil, err
	}
	return nhle.NormalizeGames(env)
}

func (s *GamesService) tvSchedule(ctx context.Context, date string) (nhle.TVScheduleEnvelope, error) {
	key := cache.Key{Kind: cache.KindTV, Scope: date}
	env, _, err := cache.Load(ctx, s.store, key, s.cfg.TVTTL, func(ctx context.Context) (nhle.TVScheduleEnvelope, error) {
		return s.upstream.TVScheduleByDate(ctx, date)
	})
	return env, err
}

func filterByStatus(games []game.Game, statuses ...game.Status) []game.Game {
	out := make([]game.Game, 0, len(games))
	for _, g := range games {
		for _, status := range statuses {
			if g.Status == status {
				out = append(out, g)
				break
			}
		}
	}
	return out
}
