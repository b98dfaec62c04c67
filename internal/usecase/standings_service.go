package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/openwidgets/nhl-ticker/external/nhle"
	"github.com/openwidgets/nhl-ticker/internal/domain/standings"
	"github.com/openwidgets/nhl-ticker/internal/platform/cache"
	"github.com/openwidgets/nhl-ticker/internal/platform/logging"
)

var teamCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

type StandingsConfig struct {
	StandingsTTL time.Duration
	RegistryTTL  time.Duration
	// RegistryRetryTTL bounds how long an empty registry is trusted before
	// the upstream is tried again, so a failed bootstrap is retried soon
	// rather than in a day.
	RegistryRetryTTL time.Duration
	DefaultTeam      string
}

// StandingsService serves division standings and the derived team registry.
// The full league table is cached once; division filtering happens per
// request on the cached rows.
type StandingsService struct {
	upstream UpstreamClient
	store    *cache.Store
	cfg      StandingsConfig
	logger   *logging.Logger
}

func NewStandingsService(upstream UpstreamClient, store *cache.Store, cfg StandingsConfig, logger *logging.Logger) *StandingsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &StandingsService{upstream: upstream, store: store, cfg: cfg, logger: logger}
}

// Division returns the standings rows for the named division, best first.
// An unknown division name yields an empty list, not an error: the widget
// renders an empty table instead of failing the whole view.
func (s *StandingsService) Division(ctx context.Context, division string) ([]standings.Row, DatasetMeta, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.Division")
	defer span.End()

	rows, res, err := s.leagueRows(ctx)
	if err != nil {
		return nil, DatasetMeta{}, fmt.Errorf("%w: standings: %v", ErrNoData, err)
	}

	want := strings.TrimSpace(division)
	out := make([]standings.Row, 0, 8)
	for _, r := range rows {
		if strings.EqualFold(r.Division, want) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points() != b.Points() {
			return a.Points() > b.Points()
		}
		if a.RegulationWins != b.RegulationWins {
			return a.RegulationWins > b.RegulationWins
		}
		return a.GoalDiff() > b.GoalDiff()
	})

	return out, DatasetMeta{WasStale: res.WasStale, FetchedAt: res.FetchedAt}, nil
}

// Registry returns the known team codes mapped to full team names, derived
// from the league standings. The registry is long-lived; while it is empty
// it refreshes on a short retry interval.
func (s *StandingsService) Registry(ctx context.Context) (map[string]string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.Registry")
	defer span.End()

	key := cache.Key{Kind: cache.KindRegistry, Scope: "league"}

	// An empty registry only stays trusted for the retry interval, not the
	// full TTL. Expiring it here forces the next load through the upstream
	// while keeping the entry around as the stale fallback.
	if v, fetchedAt, fresh, ok := s.store.Peek(key); ok && fresh {
		if reg, ok := v.(map[string]string); ok && len(reg) == 0 && time.Since(fetchedAt) >= s.cfg.RegistryRetryTTL {
			s.store.Expire(key)
		}
	}

	reg, _, err := cache.Load(ctx, s.store, key, s.cfg.RegistryTTL, func(ctx context.Context) (map[string]string, error) {
		rows, _, err := s.leagueRows(ctx)
		if err != nil {
			return nil, err
		}
		reg := make(map[string]string, len(rows))
		for _, r := range rows {
			if r.TeamCode != "" {
				reg[r.TeamCode] = r.TeamName
			}
		}
		return reg, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: team registry: %v", ErrNoData, err)
	}
	return reg, nil
}

// ResolveTeam validates a requested team code against the registry. Codes
// that do not look like a team code, or are unknown to a populated registry,
// fall back to the configured default team.
func (s *StandingsService) ResolveTeam(ctx context.Context, requested string) string {
	code := strings.ToUpper(strings.TrimSpace(requested))
	if !teamCodePattern.MatchString(code) {
		return s.cfg.DefaultTeam
	}
	reg, err := s.Registry(ctx)
	if err != nil || len(reg) == 0 {
		// Registry unavailable: trust the well-formed code.
		return code
	}
	if _, ok := reg[code]; ok {
		return code
	}
	return s.cfg.DefaultTeam
}

func (s *StandingsService) leagueRows(ctx context.Context) ([]standings.Row, cache.Result, error) {
	key := cache.Key{Kind: cache.KindStandings, Scope: "league"}
	return cache.Load(ctx, s.store, key, s.cfg.StandingsTTL, func(ctx context.Context) ([]standings.Row, error) {
		env, err := s.upstream.StandingsNow(ctx)
		if err != nil {
			return nil, err
		}
		return nhle.NormalizeStandings(env)
	})
}
