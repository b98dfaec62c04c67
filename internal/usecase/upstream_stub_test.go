package usecase

import (
	"context"
	"errors"

	"github.com/openwidgets/nhl-ticker/external/nhle"
)

var errStubUpstreamDown = errors.New("upstream down")

type stubUpstream struct {
	scheduleFn  func(ctx context.Context, teamCode string) (nhle.ScheduleEnvelope, error)
	standingsFn func(ctx context.Context) (nhle.StandingsEnvelope, error)
	tvFn        func(ctx context.Context, date string) (nhle.TVScheduleEnvelope, error)
}

func (s *stubUpstream) ClubScheduleNow(ctx context.Context, teamCode string) (nhle.ScheduleEnvelope, error) {
	if s.scheduleFn == nil {
		return nhle.ScheduleEnvelope{}, errStubUpstreamDown
	}
	return s.scheduleFn(ctx, teamCode)
}

func (s *stubUpstream) StandingsNow(ctx context.Context) (nhle.StandingsEnvelope, error) {
	if s.standingsFn == nil {
		return nhle.StandingsEnvelope{}, errStubUpstreamDown
	}
	return s.standingsFn(ctx)
}

func (s *stubUpstream) TVScheduleByDate(ctx context.Context, date string) (nhle.TVScheduleEnvelope, error) {
	if s.tvFn == nil {
		return nhle.TVScheduleEnvelope{}, errStubUpstreamDown
	}
	return s.tvFn(ctx, date)
}

func intPtr(n int) *int { return &n }

func scheduleGame(id int64, start, state, home, away string, homeScore, awayScore *int) nhle.ScheduleGame {
	return nhle.ScheduleGame{
		ID:           id,
		StartTimeUTC: start,
		GameState:    state,
		HomeTeam:     nhle.RawTeam{Abbrev: home, Score: homeScore},
		AwayTeam:     nhle.RawTeam{Abbrev: away, Score: awayScore},
	}
}

func standingsRow(team, division string, wins, losses, otLosses, regWins, gf, ga int) map[string]any {
	return map[string]any{
		"teamAbbrev":     team,
		"teamName":       map[string]any{"default": team + " Club"},
		"divisionName":   division,
		"gamesPlayed":    float64(wins + losses + otLosses),
		"wins":           float64(wins),
		"losses":         float64(losses),
		"otLosses":       float64(otLosses),
		"regulationWins": float64(regWins),
		"goalFor":        float64(gf),
		"goalAgainst":    float64(ga),
	}
}
