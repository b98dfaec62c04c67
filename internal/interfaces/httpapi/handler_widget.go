package httpapi

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/valyala/bytebufferpool"

	"github.com/openwidgets/nhl-ticker/internal/domain/game"
	"github.com/openwidgets/nhl-ticker/internal/usecase"
)

//go:embed templates/widget.html.tmpl
var widgetTemplateFS embed.FS

var widgetTemplate = template.Must(template.ParseFS(widgetTemplateFS, "templates/widget.html.tmpl"))

type widgetPage struct {
	Theme         string
	Team          string
	TeamName      string
	Division      string
	ShowUpcoming  bool
	ShowRecent    bool
	ShowStandings bool
	Upcoming      []widgetGameRow
	Recent        []widgetGameRow
	Standings     []widgetStandingsRow
}

type widgetGameRow struct {
	Prefix      string
	Opponent    string
	Date        string
	Time        string
	Networks    string
	Live        bool
	Score       string
	Clock       string
	Result      string
	ResultClass string
}

type widgetStandingsRow struct {
	TeamCode    string
	GamesPlayed int
	Wins        int
	Losses      int
	OTLosses    int
	Points      int
	Own         bool
}

func (h *Handler) RenderFullWidget(w http.ResponseWriter, r *http.Request) {
	h.serveWidget(w, r, "httpapi.Handler.RenderFullWidget", true, true, true)
}

func (h *Handler) RenderUpcomingWidget(w http.ResponseWriter, r *http.Request) {
	h.serveWidget(w, r, "httpapi.Handler.RenderUpcomingWidget", true, false, false)
}

func (h *Handler) RenderRecentWidget(w http.ResponseWriter, r *http.Request) {
	h.serveWidget(w, r, "httpapi.Handler.RenderRecentWidget", false, true, false)
}

func (h *Handler) RenderStandingsWidget(w http.ResponseWriter, r *http.Request) {
	h.serveWidget(w, r, "httpapi.Handler.RenderStandingsWidget", false, false, true)
}

func (h *Handler) serveWidget(w http.ResponseWriter, r *http.Request, spanName string, upcoming, recent, standings bool) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	query := parseViewQuery(r)
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.widgetService.GetView(ctx, query.toViewRequest(upcoming, recent, standings))
	if err != nil {
		h.logger.ErrorContext(ctx, "compose widget failed", "team", query.Team, "error", err)
		writeError(ctx, w, err)
		return
	}

	page := h.buildWidgetPage(view, upcoming, recent, standings)

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := widgetTemplate.ExecuteTemplate(buf, "widget", page); err != nil {
		h.logger.ErrorContext(ctx, "render widget failed", "team", view.Team, "error", err)
		writeInternalError(ctx, w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) buildWidgetPage(view usecase.ComposedView, upcoming, recent, standings bool) widgetPage {
	page := widgetPage{
		Theme:         view.Theme,
		Team:          view.Team,
		TeamName:      view.TeamName,
		Division:      view.Division,
		ShowUpcoming:  upcoming,
		ShowRecent:    recent,
		ShowStandings: standings,
	}
	if page.TeamName == "" {
		page.TeamName = view.Team
	}

	for _, g := range view.Upcoming {
		page.Upcoming = append(page.Upcoming, h.gameRow(view.Team, g))
	}
	for _, g := range view.Recent {
		page.Recent = append(page.Recent, h.gameRow(view.Team, g))
	}
	for _, row := range view.Standings {
		page.Standings = append(page.Standings, widgetStandingsRow{
			TeamCode:    row.TeamCode,
			GamesPlayed: row.GamesPlayed,
			Wins:        row.Wins,
			Losses:      row.Losses,
			OTLosses:    row.OTLosses,
			Points:      row.Points(),
			Own:         row.TeamCode == view.Team,
		})
	}
	return page
}

func (h *Handler) gameRow(teamCode string, g game.Game) widgetGameRow {
	opponent, home := g.Opponent(teamCode)
	row := widgetGameRow{
		Opponent: opponent,
		Prefix:   "@",
		Networks: strings.Join(g.Networks, ", "),
	}
	if home {
		row.Prefix = "vs"
	}

	local := g.StartTime.In(h.location)
	row.Date = local.Format("Mon, Jan 2")
	row.Time = local.Format("3:04 PM")

	switch g.Status {
	case game.StatusLive:
		row.Live = true
		if own, opp, ok := g.TeamScore(teamCode); ok {
			row.Score = scoreLine(own, opp)
		}
		if g.Clock != nil {
			row.Clock = clockLine(g.Clock)
		}
	case game.StatusFinal:
		if own, opp, ok := g.TeamScore(teamCode); ok {
			row.Score = scoreLine(own, opp)
		}
		row.Result = g.Result(teamCode)
		row.ResultClass = strings.ToLower(row.Result)
	}
	return row
}

func scoreLine(own, opp int) string {
	return strconv.Itoa(own) + " - " + strconv.Itoa(opp)
}

func clockLine(c *game.Clock) string {
	if c.Intermission {
		return ordinalPeriod(c.Period, c.PeriodType) + " INT"
	}
	return ordinalPeriod(c.Period, c.PeriodType) + " " + c.TimeRemaining
}

func ordinalPeriod(period int, periodType string) string {
	switch strings.ToUpper(periodType) {
	case "OT":
		return "OT"
	case "SO":
		return "SO"
	}
	switch period {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return strconv.Itoa(period) + "th"
	}
}
