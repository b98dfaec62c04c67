package game

import "time"

// Status is the normalized three-state game lifecycle.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusLive      Status = "LIVE"
	StatusFinal     Status = "FINAL"
)

// Score holds the home/away goal pair. Present only for live and final games.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Clock describes where a live game currently stands. Nil unless the game is live.
type Clock struct {
	Period        int    `json:"period"`
	PeriodType    string `json:"period_type"` // REG, OT, SO
	TimeRemaining string `json:"time_remaining,omitempty"`
	Intermission  bool   `json:"intermission"`
}

// Game is the normalized schedule entry exposed by the service.
type Game struct {
	ID        string    `json:"id"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	StartTime time.Time `json:"start_time"` // UTC instant
	Status    Status    `json:"status"`
	Score     *Score    `json:"score,omitempty"`
	Clock     *Clock    `json:"clock,omitempty"`
	// Networks is the broadcast list for the game. The normalizer fills it
	// with the raw embedded broadcasts for any status; display mapping and
	// tv-schedule fallback happen when a view is composed.
	Networks []string `json:"networks,omitempty"`
}

// Involves reports whether the given team code plays in this game.
func (g Game) Involves(teamCode string) bool {
	return g.HomeTeam == teamCode || g.AwayTeam == teamCode
}

// Opponent returns the other team's code relative to teamCode, and whether
// teamCode is the home side. Falls back to the away team when teamCode is not
// part of the game.
func (g Game) Opponent(teamCode string) (opponent string, home bool) {
	switch teamCode {
	case g.HomeTeam:
		return g.AwayTeam, true
	case g.AwayTeam:
		return g.HomeTeam, false
	default:
		return g.AwayTeam, true
	}
}

// TeamScore returns (own, opponent) goals from teamCode's perspective.
// ok is false when the game carries no score or teamCode is not involved.
func (g Game) TeamScore(teamCode string) (own, opp int, ok bool) {
	if g.Score == nil {
		return 0, 0, false
	}
	switch teamCode {
	case g.HomeTeam:
		return g.Score.Home, g.Score.Away, true
	case g.AwayTeam:
		return g.Score.Away, g.Score.Home, true
	default:
		return 0, 0, false
	}
}

// Result returns "W" or "L" for a decided final from teamCode's perspective,
// and "" otherwise.
func (g Game) Result(teamCode string) string {
	if g.Status != StatusFinal {
		return ""
	}
	own, opp, ok := g.TeamScore(teamCode)
	if !ok {
		return ""
	}
	switch {
	case own > opp:
		return "W"
	case own < opp:
		return "L"
	default:
		return ""
	}
}
