package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"

	"github.com/openwidgets/nhl-ticker/internal/domain/game"
	"github.com/openwidgets/nhl-ticker/internal/domain/standings"
	"github.com/openwidgets/nhl-ticker/internal/platform/logging"
)

const (
	ThemeDark        = "dark"
	ThemeLight       = "light"
	ThemeTransparent = "transparent"
)

type WidgetConfig struct {
	DefaultTeam     string
	DefaultDivision string
	DefaultUpcoming int
	DefaultRecent   int
	MaxUpcoming     int
	MaxRecent       int
}

// ViewRequest carries raw, untrusted query input for one widget view.
// Counts stay strings here; resolveCount owns the defaulting rules.
type ViewRequest struct {
	Team             string
	Theme            string
	Division         string
	UpcomingCount    string
	RecentCount      string
	IncludeUpcoming  bool
	IncludeRecent    bool
	IncludeStandings bool
}

type ComposedView struct {
	Team        string                 `json:"team"`
	TeamName    string                 `json:"team_name,omitempty"`
	Theme       string                 `json:"theme"`
	Division    string                 `json:"division,omitempty"`
	Upcoming    []game.Game            `json:"upcoming,omitempty"`
	Recent      []game.Game            `json:"recent,omitempty"`
	Standings   []standings.Row        `json:"standings,omitempty"`
	Freshness   map[string]DatasetMeta `json:"freshness"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// WidgetService composes the datasets into a single widget view. It owns
// input sanitization (team, theme, counts, division) and the fan-out to the
// dataset services.
type WidgetService struct {
	games     *GamesService
	standings *StandingsService
	cfg       WidgetConfig
	logger    *logging.Logger
}

func NewWidgetService(games *GamesService, st *StandingsService, cfg WidgetConfig, logger *logging.Logger) *WidgetService {
	if logger == nil {
		logger = logging.Default()
	}
	return &WidgetService{games: games, standings: st, cfg: cfg, logger: logger}
}

// GetView fetches the requested datasets in parallel and assembles the view.
// A dataset that cannot be served even stale fails the whole view.
func (s *WidgetService) GetView(ctx context.Context, req ViewRequest) (ComposedView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WidgetService.GetView")
	defer span.End()

	if !req.IncludeUpcoming && !req.IncludeRecent && !req.IncludeStandings {
		return ComposedView{}, errors.Wrap(ErrInvalidInput, "no datasets requested")
	}

	team := s.standings.ResolveTeam(ctx, req.Team)
	division := strings.TrimSpace(req.Division)
	if division == "" {
		division = s.cfg.DefaultDivision
	}

	view := ComposedView{
		Team:      team,
		Theme:     sanitizeTheme(req.Theme),
		Freshness: make(map[string]DatasetMeta, 3),
	}

	var (
		upcoming, recent []game.Game
		rows             []standings.Row
		upMeta, recMeta  DatasetMeta
		stMeta           DatasetMeta
	)

	p := pool.New().WithErrors().WithContext(ctx)
	if req.IncludeUpcoming {
		p.Go(func(ctx context.Context) error {
			var err error
			upcoming, upMeta, err = s.games.Upcoming(ctx, team)
			return err
		})
	}
	if req.IncludeRecent {
		p.Go(func(ctx context.Context) error {
			var err error
			recent, recMeta, err = s.games.Recent(ctx, team)
			return err
		})
	}
	if req.IncludeStandings {
		p.Go(func(ctx context.Context) error {
			var err error
			rows, stMeta, err = s.standings.Division(ctx, division)
			return err
		})
	}
	if err := p.Wait(); err != nil {
		return ComposedView{}, err
	}

	if req.IncludeUpcoming {
		n := resolveCount(req.UpcomingCount, s.cfg.DefaultUpcoming, s.cfg.MaxUpcoming)
		view.Upcoming = s.games.AttachNetworks(ctx, truncate(upcoming, n))
		view.Freshness["upcoming"] = upMeta
	}
	if req.IncludeRecent {
		n := resolveCount(req.RecentCount, s.cfg.DefaultRecent, s.cfg.MaxRecent)
		view.Recent = s.games.AttachNetworks(ctx, truncate(recent, n))
		view.Freshness["recent"] = recMeta
	}
	if req.IncludeStandings {
		view.Standings = rows
		view.Division = division
		view.Freshness["standings"] = stMeta
	}

	if reg, err := s.standings.Registry(ctx); err == nil {
		view.TeamName = reg[team]
	}

	view.GeneratedAt = time.Now().UTC()
	return view, nil
}

// resolveCount turns a raw count parameter into a usable limit. Empty,
// non-numeric, and negative inputs all get the default; anything above max
// is clamped down.
func resolveCount(raw string, def, max int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return clampCount(def, max)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return clampCount(def, max)
	}
	return clampCount(n, max)
}

func clampCount(n, max int) int {
	if n > max {
		return max
	}
	if n < 0 {
		return 0
	}
	return n
}

func sanitizeTheme(theme string) string {
	switch strings.ToLower(strings.TrimSpace(theme)) {
	case ThemeLight:
		return ThemeLight
	case ThemeTransparent:
		return ThemeTransparent
	default:
		return ThemeDark
	}
}

func truncate(games []game.Game, n int) []game.Game {
	if len(games) <= n {
		return games
	}
	return games[:n]
}
