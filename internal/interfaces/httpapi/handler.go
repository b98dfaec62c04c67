package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/openwidgets/nhl-ticker/internal/platform/logging"
	"github.com/openwidgets/nhl-ticker/internal/usecase"
)

// RenderConfig controls widget HTML presentation. DisplayTimeZone is an IANA
// zone name; game times render in that zone because the widget's audience is
// local, not UTC.
type RenderConfig struct {
	DisplayTimeZone string
}

type Handler struct {
	widgetService *usecase.WidgetService
	location      *time.Location
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(widgetService *usecase.WidgetService, renderCfg RenderConfig, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	location, err := time.LoadLocation(renderCfg.DisplayTimeZone)
	if err != nil || renderCfg.DisplayTimeZone == "" {
		location = time.UTC
	}

	return &Handler{
		widgetService: widgetService,
		location:      location,
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// viewQuery is the raw query surface shared by the api and widget routes.
// Defaulting of bad-but-bounded values happens in the usecase layer; the
// validator only rejects input that is not a plausible query at all.
type viewQuery struct {
	Team      string `validate:"omitempty,printascii,max=8"`
	Theme     string `validate:"omitempty,printascii,max=16"`
	Division  string `validate:"omitempty,printascii,max=32"`
	Upcoming  string `validate:"omitempty,printascii,max=8"`
	Recent    string `validate:"omitempty,printascii,max=8"`
	Standings string `validate:"omitempty,printascii,max=8"`
}

func parseViewQuery(r *http.Request) viewQuery {
	q := r.URL.Query()
	return viewQuery{
		Team:      q.Get("team"),
		Theme:     q.Get("theme"),
		Division:  q.Get("division"),
		Upcoming:  q.Get("upcoming"),
		Recent:    q.Get("recent"),
		Standings: q.Get("standings"),
	}
}

// boolishFalse reports whether a query value explicitly opts a dataset out.
// Anything else, including garbage, leaves the route's default in place.
func boolishFalse(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no", "off":
		return true
	}
	return false
}

func (q viewQuery) toViewRequest(includeUpcoming, includeRecent, includeStandings bool) usecase.ViewRequest {
	return usecase.ViewRequest{
		Team:             q.Team,
		Theme:            q.Theme,
		Division:         q.Division,
		UpcomingCount:    q.Upcoming,
		RecentCount:      q.Recent,
		IncludeUpcoming:  includeUpcoming,
		IncludeRecent:    includeRecent,
		IncludeStandings: includeStandings && !boolishFalse(q.Standings),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetFullView(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, "httpapi.Handler.GetFullView", true, true, true)
}

func (h *Handler) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, "httpapi.Handler.GetUpcoming", true, false, false)
}

func (h *Handler) GetRecent(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, "httpapi.Handler.GetRecent", false, true, false)
}

func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, "httpapi.Handler.GetStandings", false, false, true)
}

func (h *Handler) serveView(w http.ResponseWriter, r *http.Request, spanName string, upcoming, recent, standings bool) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	query := parseViewQuery(r)
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.widgetService.GetView(ctx, query.toViewRequest(upcoming, recent, standings))
	if err != nil {
		h.logger.ErrorContext(ctx, "compose view failed", "team", query.Team, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, view)
}
