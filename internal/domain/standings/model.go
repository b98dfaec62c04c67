package standings

import "fmt"

// Row is a single team's line in the division standings.
//
// Points is intentionally not a field: NHL points are fully determined by the
// win/OT-loss counters, so they are derived via Points() instead of being
// settable independently of the record.
type Row struct {
	TeamCode string `json:"team_code"`
	TeamName string `json:"team_name"`
	Division string `json:"division"`

	GamesPlayed    int `json:"games_played"`
	Wins           int `json:"wins"`
	Losses         int `json:"losses"`
	OTLosses       int `json:"ot_losses"`
	RegulationWins int `json:"regulation_wins"`

	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
	Streak       string `json:"streak,omitempty"` // e.g. "W3"

	HomeRecord string `json:"home_record,omitempty"` // "W-L-OTL"
	AwayRecord string `json:"away_record,omitempty"`
}

// Points derives standings points per NHL rules: two per win, one per
// overtime/shootout loss.
func (r Row) Points() int {
	return 2*r.Wins + r.OTLosses
}

// GoalDiff derives the goal differential.
func (r Row) GoalDiff() int {
	return r.GoalsFor - r.GoalsAgainst
}

// FormatRecord renders a W-L-OTL triple, or "" when all counters are zero.
func FormatRecord(wins, losses, otLosses int) string {
	if wins == 0 && losses == 0 && otLosses == 0 {
		return ""
	}
	return fmt.Sprintf("%d-%d-%d", wins, losses, otLosses)
}
