package nhle

// Raw payload shapes for the api-web.nhle.com endpoints. Field sets are
// deliberately loose: the provider varies key names across endpoints and
// seasons, so each variant the normalizer tolerates is declared here.

type ScheduleEnvelope struct {
	Games    []ScheduleGame `json:"games"`
	GameWeek []struct {
		Games []ScheduleGame `json:"games"`
	} `json:"gameWeek"`
}

type ScheduleGame struct {
	ID                int64  `json:"id"`
	GamePK            int64  `json:"gamePk"`
	StartTimeUTC      string `json:"startTimeUTC"`
	StartTime         string `json:"startTime"`
	GameDate          string `json:"gameDate"`
	GameState         string `json:"gameState"`
	GameScheduleState string `json:"gameScheduleState"`

	HomeTeam RawTeam `json:"homeTeam"`
	AwayTeam RawTeam `json:"awayTeam"`

	PeriodDescriptor *RawPeriodDescriptor `json:"periodDescriptor"`
	Clock            *RawClock            `json:"clock"`

	TVBroadcasts []RawBroadcast `json:"tvBroadcasts"`
	Broadcasts   []RawBroadcast `json:"broadcasts"`
}

type RawTeam struct {
	Abbrev     string `json:"abbrev"`
	TeamAbbrev string `json:"teamAbbrev"`
	Score      *int   `json:"score"`
}

func (t RawTeam) Code() string {
	if t.Abbrev != "" {
		return t.Abbrev
	}
	return t.TeamAbbrev
}

type RawPeriodDescriptor struct {
	Number     int    `json:"number"`
	PeriodType string `json:"periodType"`
}

type RawClock struct {
	TimeRemaining  string `json:"timeRemaining"`
	InIntermission bool   `json:"inIntermission"`
}

type RawBroadcast struct {
	Network  string `json:"network"`
	Name     string `json:"name"`
	CallSign string `json:"callSign"`
}

func (b RawBroadcast) DisplayValue() string {
	switch {
	case b.Network != "":
		return b.Network
	case b.Name != "":
		return b.Name
	default:
		return b.CallSign
	}
}

// StandingsEnvelope keeps rows as generic maps: the standings endpoint is the
// loosest of the three, so extraction goes through keyed fallbacks in the
// normalizer rather than a fixed struct.
type StandingsEnvelope struct {
	Standings []map[string]any `json:"standings"`
}

// TVScheduleEnvelope is fully dynamic; the normalizer walks it recursively
// looking for the broadcasts attached to a game id.
type TVScheduleEnvelope struct {
	Payload map[string]any
}
