package nhle

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/openwidgets/nhl-ticker/internal/domain/game"
	"github.com/openwidgets/nhl-ticker/internal/domain/standings"
)

// Pure payload-to-entity mapping. No I/O, no shared state; the same envelope
// always normalizes to the same entities.

var liveStates = map[string]bool{
	"LIVE": true, "IN_PROGRESS": true, "INPROGRESS": true,
	"ACTIVE": true, "CRIT": true, "CRITICAL": true, "ONGOING": true,
}

var finalStates = map[string]bool{
	"FINAL": true, "OFF": true, "COMPLETED": true, "DONE": true, "FINISHED": true,
}

var scheduledStates = map[string]bool{
	"FUT": true, "PRE": true, "SCHEDULED": true,
}

// NormalizeGames maps a schedule envelope to the canonical game list.
// Optional fields that are legitimately absent for a status (score for a
// scheduled game, clock for anything not live) normalize to nil; missing
// required fields fail with ErrSchemaMismatch.
func NormalizeGames(env ScheduleEnvelope) ([]game.Game, error) {
	rows := env.Games
	if len(rows) == 0 {
		for _, week := range env.GameWeek {
			rows = append(rows, week.Games...)
		}
	}

	out := make([]game.Game, 0, len(rows))
	for i, row := range rows {
		g, err := normalizeGame(row)
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", i, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func normalizeGame(row ScheduleGame) (game.Game, error) {
	id := row.ID
	if id == 0 {
		id = row.GamePK
	}
	if id == 0 {
		return game.Game{}, fmt.Errorf("%w: missing game id", ErrSchemaMismatch)
	}

	start, err := parseStartTime(row)
	if err != nil {
		return game.Game{}, err
	}

	home := row.HomeTeam.Code()
	away := row.AwayTeam.Code()
	if home == "" || away == "" {
		return game.Game{}, fmt.Errorf("%w: game %d missing team codes", ErrSchemaMismatch, id)
	}

	status := normalizeStatus(row, start)

	g := game.Game{
		ID:        strconv.FormatInt(id, 10),
		HomeTeam:  home,
		AwayTeam:  away,
		StartTime: start,
		Status:    status,
		Networks:  embeddedNetworks(row),
	}

	switch status {
	case game.StatusScheduled:
		// Score stays nil even when the provider pre-fills zeros.
	case game.StatusLive, game.StatusFinal:
		if row.HomeTeam.Score == nil || row.AwayTeam.Score == nil {
			if status == game.StatusFinal {
				return game.Game{}, fmt.Errorf("%w: final game %d without score", ErrSchemaMismatch, id)
			}
			break
		}
		g.Score = &game.Score{Home: *row.HomeTeam.Score, Away: *row.AwayTeam.Score}
	}

	if status == game.StatusLive {
		g.Clock = normalizeClock(row)
	}

	return g, nil
}

func parseStartTime(row ScheduleGame) (time.Time, error) {
	for _, raw := range []string{row.StartTimeUTC, row.StartTime, row.GameDate} {
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.UTC(), nil
		}
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable start time", ErrSchemaMismatch)
}

func normalizeStatus(row ScheduleGame, start time.Time) game.Status {
	for _, raw := range []string{row.GameState, row.GameScheduleState} {
		state := strings.ToUpper(strings.TrimSpace(raw))
		switch {
		case state == "":
			continue
		case liveStates[state]:
			return game.StatusLive
		case finalStates[state]:
			return game.StatusFinal
		case scheduledStates[state]:
			return game.StatusScheduled
		}
	}

	// Unknown state token: a scored game whose start has passed is treated as
	// final, everything else as scheduled.
	if row.HomeTeam.Score != nil && row.AwayTeam.Score != nil && start.Before(time.Now().UTC()) {
		return game.StatusFinal
	}
	return game.StatusScheduled
}

func normalizeClock(row ScheduleGame) *game.Clock {
	clock := &game.Clock{PeriodType: "REG"}
	if row.PeriodDescriptor != nil {
		clock.Period = row.PeriodDescriptor.Number
		if pt := strings.ToUpper(strings.TrimSpace(row.PeriodDescriptor.PeriodType)); pt != "" {
			clock.PeriodType = pt
		}
	}
	if row.Clock != nil {
		clock.TimeRemaining = strings.TrimSpace(row.Clock.TimeRemaining)
		clock.Intermission = row.Clock.InIntermission
	}
	return clock
}

func embeddedNetworks(row ScheduleGame) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]RawBroadcast{row.TVBroadcasts, row.Broadcasts} {
		for _, b := range list {
			v := strings.TrimSpace(b.DisplayValue())
			if v == "" || seen[v] {
				continue
			}
			lower := strings.ToLower(v)
			if lower == "null" || lower == "none" {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// NormalizeStandings maps the standings envelope to canonical rows. The
// endpoint renames counters across seasons, so every integer goes through
// keyed fallbacks.
func NormalizeStandings(env StandingsEnvelope) ([]standings.Row, error) {
	out := make([]standings.Row, 0, len(env.Standings))
	for i, row := range env.Standings {
		abbrev := teamAbbrev(row)
		if abbrev == "" {
			return nil, fmt.Errorf("%w: standings row %d missing team abbrev", ErrSchemaMismatch, i)
		}
		division := strings.TrimSpace(getString(row, "divisionName"))
		if division == "" {
			division = strings.TrimSpace(getString(row, "divisionAbbrev"))
		}
		if division == "" {
			return nil, fmt.Errorf("%w: standings row %d missing division", ErrSchemaMismatch, i)
		}

		gf := getIntAny(row, "goalFor", "goalsFor", "gf")
		ga := getIntAny(row, "goalAgainst", "goalsAgainst", "ga")

		out = append(out, standings.Row{
			TeamCode:       abbrev,
			TeamName:       teamName(row, abbrev),
			Division:       division,
			GamesPlayed:    getIntAny(row, "gamesPlayed", "games", "gp"),
			Wins:           getIntAny(row, "wins", "w"),
			Losses:         getIntAny(row, "losses", "l"),
			OTLosses:       getIntAny(row, "otLosses", "overtimeLosses", "otl"),
			RegulationWins: getIntAny(row, "regulationWins", "regWins", "rw"),
			GoalsFor:       gf,
			GoalsAgainst:   ga,
			Streak:         streak(row),
			HomeRecord: standings.FormatRecord(
				getIntAny(row, "homeWins"),
				getIntAny(row, "homeLosses"),
				getIntAny(row, "homeOtLosses", "homeOTLosses"),
			),
			AwayRecord: standings.FormatRecord(
				getIntAny(row, "roadWins", "awayWins"),
				getIntAny(row, "roadLosses", "awayLosses"),
				getIntAny(row, "roadOtLosses", "awayOtLosses", "awayOTLosses"),
			),
		})
	}
	return out, nil
}

func teamAbbrev(row map[string]any) string {
	switch v := row["teamAbbrev"].(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if s, ok := v["default"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func teamName(row map[string]any, fallback string) string {
	for _, key := range []string{"teamName", "teamCommonName"} {
		if nested, ok := row[key].(map[string]any); ok {
			if s, ok := nested["default"].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return fallback
}

func streak(row map[string]any) string {
	code := getString(row, "streakCode")
	if code == "" {
		code = getString(row, "streak")
	}
	if code == "" {
		return ""
	}
	if count := getIntAny(row, "streakCount"); count > 0 {
		return code + strconv.Itoa(count)
	}
	return code
}

func getString(row map[string]any, key string) string {
	if s, ok := row[key].(string); ok {
		return s
	}
	return ""
}

func getIntAny(row map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := row[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case int64:
			return int(v)
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}

// NetworksForGame walks a tv-schedule payload for the broadcasts attached to
// a game id. The payload shape varies per date, so the walk is recursive and
// defensive.
func NetworksForGame(env TVScheduleEnvelope, gameID string) []string {
	if env.Payload == nil || gameID == "" {
		return nil
	}

	seen := make(map[string]bool)
	var walk func(node any)

	add := func(v any) {
		switch val := v.(type) {
		case string:
			val = strings.TrimSpace(val)
			lower := strings.ToLower(val)
			if val != "" && lower != "null" && lower != "none" {
				seen[val] = true
			}
		case map[string]any:
			for _, key := range []string{"network", "name", "callSign", "callsign", "displayName", "shortName"} {
				if s, ok := val[key].(string); ok && strings.TrimSpace(s) != "" {
					seen[strings.TrimSpace(s)] = true
				}
			}
		}
	}

	walk = func(node any) {
		switch n := node.(type) {
		case map[string]any:
			for _, idKey := range []string{"gameId", "id", "gamePk"} {
				if matchesID(n[idKey], gameID) {
					for _, bk := range []string{"broadcasts", "tvBroadcasts", "networks", "channels"} {
						switch b := n[bk].(type) {
						case []any:
							for _, item := range b {
								add(item)
							}
						case map[string]any:
							add(b)
						}
					}
					for _, dk := range []string{"network", "callSign", "callsign"} {
						add(n[dk])
					}
				}
			}
			for _, v := range n {
				walk(v)
			}
		case []any:
			for _, item := range n {
				walk(item)
			}
		}
	}
	walk(env.Payload)

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func matchesID(v any, wanted string) bool {
	switch id := v.(type) {
	case string:
		return id == wanted
	case float64:
		return strconv.FormatInt(int64(id), 10) == wanted
	default:
		return false
	}
}
