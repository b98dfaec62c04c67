package nhle

import (
	"errors"
	"testing"
	"time"

	"github.com/openwidgets/nhl-ticker/internal/domain/game"
)

func intPtr(n int) *int { return &n }

func TestNormalizeGames_FlatList(t *testing.T) {
	t.Parallel()

	env := ScheduleEnvelope{Games: []ScheduleGame{
		{
			ID:           2026020001,
			StartTimeUTC: "2026-01-17T00:00:00Z",
			GameState:    "FUT",
			HomeTeam:     RawTeam{Abbrev: "MIN", Score: intPtr(0)},
			AwayTeam:     RawTeam{Abbrev: "CHI", Score: intPtr(0)},
		},
		{
			ID:           2026020002,
			StartTimeUTC: "2026-01-15T00:00:00Z",
			GameState:    "FINAL",
			HomeTeam:     RawTeam{Abbrev: "DAL", Score: intPtr(2)},
			AwayTeam:     RawTeam{Abbrev: "MIN", Score: intPtr(4)},
		},
	}}

	games, err := NormalizeGames(env)
	if err != nil {
		t.Fatalf("NormalizeGames error: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("got %d games, want 2", len(games))
	}

	scheduled := games[0]
	if scheduled.Status != game.StatusScheduled {
		t.Fatalf("status = %s, want scheduled", scheduled.Status)
	}
	if scheduled.Score != nil {
		t.Fatal("scheduled game carries a score")
	}
	if scheduled.ID != "2026020001" {
		t.Fatalf("id = %s", scheduled.ID)
	}

	final := games[1]
	if final.Status != game.StatusFinal {
		t.Fatalf("status = %s, want final", final.Status)
	}
	if final.Score == nil || final.Score.Home != 2 || final.Score.Away != 4 {
		t.Fatalf("score = %+v", final.Score)
	}
	if final.Result("MIN") != "W" || final.Result("DAL") != "L" {
		t.Fatalf("results: MIN=%s DAL=%s", final.Result("MIN"), final.Result("DAL"))
	}
}

func TestNormalizeGames_GameWeekFallback(t *testing.T) {
	t.Parallel()

	env := ScheduleEnvelope{}
	env.GameWeek = []struct {
		Games []ScheduleGame `json:"games"`
	}{
		{Games: []ScheduleGame{{
			GamePK:    42,
			GameDate:  "2026-01-17",
			GameState: "SCHEDULED",
			HomeTeam:  RawTeam{TeamAbbrev: "MIN"},
			AwayTeam:  RawTeam{TeamAbbrev: "COL"},
		}}},
	}

	games, err := NormalizeGames(env)
	if err != nil {
		t.Fatalf("NormalizeGames error: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("got %d games, want 1", len(games))
	}
	if games[0].ID != "42" {
		t.Fatalf("gamePk fallback id = %s", games[0].ID)
	}
	want := time.Date(2026, 1, 17, 0, 0, 0, 0, time.UTC)
	if !games[0].StartTime.Equal(want) {
		t.Fatalf("date-only start = %v, want %v", games[0].StartTime, want)
	}
}

func TestNormalizeGames_LiveGameClock(t *testing.T) {
	t.Parallel()

	env := ScheduleEnvelope{Games: []ScheduleGame{{
		ID:               7,
		StartTimeUTC:     "2026-01-17T00:00:00Z",
		GameState:        "LIVE",
		HomeTeam:         RawTeam{Abbrev: "MIN", Score: intPtr(1)},
		AwayTeam:         RawTeam{Abbrev: "WPG", Score: intPtr(1)},
		PeriodDescriptor: &RawPeriodDescriptor{Number: 2, PeriodType: "REG"},
		Clock:            &RawClock{TimeRemaining: "12:34"},
	}}}

	games, err := NormalizeGames(env)
	if err != nil {
		t.Fatalf("NormalizeGames error: %v", err)
	}
	g := games[0]
	if g.Status != game.StatusLive {
		t.Fatalf("status = %s, want live", g.Status)
	}
	if g.Clock == nil || g.Clock.Period != 2 || g.Clock.TimeRemaining != "12:34" {
		t.Fatalf("clock = %+v", g.Clock)
	}
	if g.Score == nil {
		t.Fatal("live game lost its score")
	}
}

func TestNormalizeGames_SchemaMismatches(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		row  ScheduleGame
	}{
		{"missing id", ScheduleGame{
			StartTimeUTC: "2026-01-17T00:00:00Z",
			GameState:    "FUT",
			HomeTeam:     RawTeam{Abbrev: "MIN"},
			AwayTeam:     RawTeam{Abbrev: "CHI"},
		}},
		{"missing start time", ScheduleGame{
			ID:        1,
			GameState: "FUT",
			HomeTeam:  RawTeam{Abbrev: "MIN"},
			AwayTeam:  RawTeam{Abbrev: "CHI"},
		}},
		{"missing team code", ScheduleGame{
			ID:           1,
			StartTimeUTC: "2026-01-17T00:00:00Z",
			GameState:    "FUT",
			HomeTeam:     RawTeam{Abbrev: "MIN"},
		}},
		{"final without score", ScheduleGame{
			ID:           1,
			StartTimeUTC: "2026-01-17T00:00:00Z",
			GameState:    "FINAL",
			HomeTeam:     RawTeam{Abbrev: "MIN"},
			AwayTeam:     RawTeam{Abbrev: "CHI"},
		}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NormalizeGames(ScheduleEnvelope{Games: []ScheduleGame{tc.row}})
			if !errors.Is(err, ErrSchemaMismatch) {
				t.Fatalf("got %v, want ErrSchemaMismatch", err)
			}
		})
	}
}

func TestNormalizeGames_UnknownStateHeuristic(t *testing.T) {
	t.Parallel()

	env := ScheduleEnvelope{Games: []ScheduleGame{
		{
			ID:           1,
			StartTimeUTC: "2020-01-01T00:00:00Z",
			GameState:    "MYSTERY",
			HomeTeam:     RawTeam{Abbrev: "MIN", Score: intPtr(3)},
			AwayTeam:     RawTeam{Abbrev: "STL", Score: intPtr(2)},
		},
		{
			ID:           2,
			StartTimeUTC: "2099-01-01T00:00:00Z",
			GameState:    "MYSTERY",
			HomeTeam:     RawTeam{Abbrev: "MIN"},
			AwayTeam:     RawTeam{Abbrev: "STL"},
		},
	}}

	games, err := NormalizeGames(env)
	if err != nil {
		t.Fatalf("NormalizeGames error: %v", err)
	}
	if games[0].Status != game.StatusFinal {
		t.Fatalf("scored past game = %s, want final", games[0].Status)
	}
	if games[1].Status != game.StatusScheduled {
		t.Fatalf("future game = %s, want scheduled", games[1].Status)
	}
}

func TestNormalizeGames_EmbeddedNetworks(t *testing.T) {
	t.Parallel()

	env := ScheduleEnvelope{Games: []ScheduleGame{{
		ID:           1,
		StartTimeUTC: "2026-01-17T00:00:00Z",
		GameState:    "FUT",
		HomeTeam:     RawTeam{Abbrev: "MIN"},
		AwayTeam:     RawTeam{Abbrev: "CHI"},
		TVBroadcasts: []RawBroadcast{
			{Network: "TNT"},
			{Network: "TNT"},
			{Name: "null"},
		},
		Broadcasts: []RawBroadcast{{CallSign: "FDSN"}},
	}}}

	games, err := NormalizeGames(env)
	if err != nil {
		t.Fatalf("NormalizeGames error: %v", err)
	}
	got := games[0].Networks
	if len(got) != 2 || got[0] != "FDSN" || got[1] != "TNT" {
		t.Fatalf("networks = %v", got)
	}
}

func TestNormalizeStandings_KeyFallbacks(t *testing.T) {
	t.Parallel()

	env := StandingsEnvelope{Standings: []map[string]any{
		{
			"teamAbbrev":   map[string]any{"default": "MIN"},
			"teamName":     map[string]any{"default": "Minnesota Wild"},
			"divisionName": "Central",
			"gamesPlayed":  float64(48),
			"wins":         float64(30),
			"losses":       float64(12),
			"otLosses":     float64(6),
			"regulationWins": float64(24),
			"goalFor":      float64(160),
			"goalAgainst":  float64(130),
			"streakCode":   "W",
			"streakCount":  float64(3),
			"homeWins":     float64(18),
			"homeLosses":   float64(4),
			"homeOtLosses": float64(2),
			"roadWins":     float64(12),
			"roadLosses":   float64(8),
			"roadOtLosses": float64(4),
		},
		{
			"teamAbbrev":     "CHI",
			"divisionAbbrev": "C",
			"games":          "50",
			"w":              float64(20),
			"l":              float64(25),
			"overtimeLosses": float64(5),
		},
	}}

	rows, err := NormalizeStandings(env)
	if err != nil {
		t.Fatalf("NormalizeStandings error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	wild := rows[0]
	if wild.TeamCode != "MIN" || wild.TeamName != "Minnesota Wild" || wild.Division != "Central" {
		t.Fatalf("row = %+v", wild)
	}
	if wild.Points() != 66 {
		t.Fatalf("points = %d, want 66", wild.Points())
	}
	if wild.GoalDiff() != 30 {
		t.Fatalf("goal diff = %d, want 30", wild.GoalDiff())
	}
	if wild.Streak != "W3" {
		t.Fatalf("streak = %s", wild.Streak)
	}
	if wild.HomeRecord != "18-4-2" || wild.AwayRecord != "12-8-4" {
		t.Fatalf("records = %s / %s", wild.HomeRecord, wild.AwayRecord)
	}

	hawks := rows[1]
	if hawks.TeamCode != "CHI" || hawks.TeamName != "CHI" || hawks.Division != "C" {
		t.Fatalf("row = %+v", hawks)
	}
	if hawks.GamesPlayed != 50 || hawks.Wins != 20 || hawks.OTLosses != 5 {
		t.Fatalf("fallback counters = %+v", hawks)
	}
}

func TestNormalizeStandings_SchemaMismatch(t *testing.T) {
	t.Parallel()

	_, err := NormalizeStandings(StandingsEnvelope{Standings: []map[string]any{
		{"divisionName": "Central"},
	}})
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("missing abbrev: got %v, want ErrSchemaMismatch", err)
	}

	_, err = NormalizeStandings(StandingsEnvelope{Standings: []map[string]any{
		{"teamAbbrev": "MIN"},
	}})
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("missing division: got %v, want ErrSchemaMismatch", err)
	}
}

func TestNetworksForGame(t *testing.T) {
	t.Parallel()

	env := TVScheduleEnvelope{Payload: map[string]any{
		"broadcastSchedule": []any{
			map[string]any{
				"gameId": float64(2026020001),
				"broadcasts": []any{
					map[string]any{"network": "TNT"},
					map[string]any{"callSign": "FDSN"},
					"ESPN+",
					"null",
				},
			},
			map[string]any{
				"gameId":     float64(2026020999),
				"broadcasts": []any{map[string]any{"network": "SN"}},
			},
		},
	}}

	got := NetworksForGame(env, "2026020001")
	if len(got) != 3 || got[0] != "ESPN+" || got[1] != "FDSN" || got[2] != "TNT" {
		t.Fatalf("networks = %v", got)
	}

	if nets := NetworksForGame(env, "123"); len(nets) != 0 {
		t.Fatalf("unknown game returned %v", nets)
	}
	if nets := NetworksForGame(TVScheduleEnvelope{}, "2026020001"); len(nets) != 0 {
		t.Fatalf("empty payload returned %v", nets)
	}
}
