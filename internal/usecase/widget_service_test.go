package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openwidgets/nhl-ticker/external/nhle"
	"github.com/openwidgets/nhl-ticker/internal/platform/cache"
	"github.com/openwidgets/nhl-ticker/internal/platform/logging"
)

func newWidgetService(upstream UpstreamClient, cfg WidgetConfig) *WidgetService {
	store := cache.NewStore()
	games := NewGamesService(upstream, store, GamesConfig{
		RecentTTL:   time.Minute,
		UpcomingTTL: time.Minute,
		TVTTL:       time.Minute,
	}, logging.NewNop())
	st := NewStandingsService(upstream, store, StandingsConfig{
		StandingsTTL:     time.Minute,
		RegistryTTL:      time.Minute,
		RegistryRetryTTL: time.Millisecond,
		DefaultTeam:      cfg.DefaultTeam,
	}, logging.NewNop())
	return NewWidgetService(games, st, cfg, logging.NewNop())
}

func widgetTestConfig() WidgetConfig {
	return WidgetConfig{
		DefaultTeam:     "MIN",
		DefaultDivision: "Central",
		DefaultUpcoming: 8,
		DefaultRecent:   5,
		MaxUpcoming:     10,
		MaxRecent:       10,
	}
}

func fullStub() *stubUpstream {
	return &stubUpstream{
		scheduleFn: func(ctx context.Context, teamCode string) (nhle.ScheduleEnvelope, error) {
			return snapshotSchedule(), nil
		},
		standingsFn: func(ctx context.Context) (nhle.StandingsEnvelope, error) {
			return leagueStandings(), nil
		},
		tvFn: func(ctx context.Context, date string) (nhle.TVScheduleEnvelope, error) {
			return nhle.TVScheduleEnvelope{Payload: map[string]any{}}, nil
		},
	}
}

func TestWidgetService_GetView_AllDatasets(t *testing.T) {
	t.Parallel()

	svc := newWidgetService(fullStub(), widgetTestConfig())

	view, err := svc.GetView(context.Background(), ViewRequest{
		IncludeUpcoming:  true,
		IncludeRecent:    true,
		IncludeStandings: true,
	})
	if err != nil {
		t.Fatalf("GetView error: %v", err)
	}

	if view.Team != "MIN" {
		t.Fatalf("team = %s, want default MIN", view.Team)
	}
	if view.TeamName != "MIN Club" {
		t.Fatalf("team name = %q", view.TeamName)
	}
	if view.Theme != ThemeDark {
		t.Fatalf("theme = %s, want dark default", view.Theme)
	}
	if view.Division != "Central" {
		t.Fatalf("division = %s", view.Division)
	}
	if len(view.Upcoming) != 2 || len(view.Recent) != 3 || len(view.Standings) != 3 {
		t.Fatalf("sizes: upcoming=%d recent=%d standings=%d",
			len(view.Upcoming), len(view.Recent), len(view.Standings))
	}
	for _, dataset := range []string{"upcoming", "recent", "standings"} {
		meta, ok := view.Freshness[dataset]
		if !ok {
			t.Fatalf("freshness missing %s", dataset)
		}
		if meta.WasStale || meta.FetchedAt.IsZero() {
			t.Fatalf("freshness[%s] = %+v", dataset, meta)
		}
	}
	if view.GeneratedAt.IsZero() {
		t.Fatal("GeneratedAt unset")
	}
}

func TestWidgetService_GetView_NoDatasetsIsInvalid(t *testing.T) {
	t.Parallel()

	svc := newWidgetService(fullStub(), widgetTestConfig())

	_, err := svc.GetView(context.Background(), ViewRequest{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestWidgetService_GetView_CountRules(t *testing.T) {
	t.Parallel()

	cfg := widgetTestConfig()
	cfg.DefaultRecent = 2
	cfg.MaxRecent = 2
	svc := newWidgetService(fullStub(), cfg)

	cases := []struct {
		name  string
		raw   string
		want  int
	}{
		{"empty uses default", "", 2},
		{"explicit below max", "1", 1},
		{"zero allowed", "0", 0},
		{"negative uses default", "-3", 2},
		{"garbage uses default", "abc", 2},
		{"above max clamps", "99", 2},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			view, err := svc.GetView(context.Background(), ViewRequest{
				IncludeRecent: true,
				RecentCount:   tc.raw,
			})
			if err != nil {
				t.Fatalf("GetView error: %v", err)
			}
			if len(view.Recent) != tc.want {
				t.Fatalf("recent size = %d, want %d", len(view.Recent), tc.want)
			}
		})
	}
}

func TestWidgetService_GetView_RecentKeepsNewestWhenTruncating(t *testing.T) {
	t.Parallel()

	cfg := widgetTestConfig()
	cfg.DefaultRecent = 2
	svc := newWidgetService(fullStub(), cfg)

	view, err := svc.GetView(context.Background(), ViewRequest{IncludeRecent: true})
	if err != nil {
		t.Fatalf("GetView error: %v", err)
	}
	if len(view.Recent) != 2 {
		t.Fatalf("recent size = %d, want 2", len(view.Recent))
	}
	// Truncation keeps the head of the desc-ordered list.
	if view.Recent[0].ID != "3" || view.Recent[1].ID != "2" {
		t.Fatalf("kept %s, %s", view.Recent[0].ID, view.Recent[1].ID)
	}
}

func TestWidgetService_GetView_ThemeSanitized(t *testing.T) {
	t.Parallel()

	svc := newWidgetService(fullStub(), widgetTestConfig())

	cases := map[string]string{
		"":            ThemeDark,
		"dark":        ThemeDark,
		"LIGHT":       ThemeLight,
		"transparent": ThemeTransparent,
		"neon":        ThemeDark,
	}
	for raw, want := range cases {
		view, err := svc.GetView(context.Background(), ViewRequest{
			IncludeStandings: true,
			Theme:            raw,
		})
		if err != nil {
			t.Fatalf("GetView(%q) error: %v", raw, err)
		}
		if view.Theme != want {
			t.Fatalf("theme %q -> %s, want %s", raw, view.Theme, want)
		}
	}
}

func TestWidgetService_GetView_DivisionOverride(t *testing.T) {
	t.Parallel()

	svc := newWidgetService(fullStub(), widgetTestConfig())

	view, err := svc.GetView(context.Background(), ViewRequest{
		IncludeStandings: true,
		Division:         "Atlantic",
	})
	if err != nil {
		t.Fatalf("GetView error: %v", err)
	}
	if view.Division != "Atlantic" {
		t.Fatalf("division = %s", view.Division)
	}
	if len(view.Standings) != 1 || view.Standings[0].TeamCode != "BOS" {
		t.Fatalf("standings = %+v", view.Standings)
	}

	// Unknown division renders an empty table, not an error.
	view, err = svc.GetView(context.Background(), ViewRequest{
		IncludeStandings: true,
		Division:         "Norris",
	})
	if err != nil {
		t.Fatalf("GetView error: %v", err)
	}
	if len(view.Standings) != 0 {
		t.Fatalf("standings = %+v, want empty", view.Standings)
	}
}

func TestWidgetService_GetView_FailedDatasetFailsView(t *testing.T) {
	t.Parallel()

	stub := fullStub()
	stub.standingsFn = nil
	svc := newWidgetService(stub, widgetTestConfig())

	_, err := svc.GetView(context.Background(), ViewRequest{
		IncludeRecent:    true,
		IncludeStandings: true,
	})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("got %v, want ErrNoData", err)
	}
}
