package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerAPIRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/hockey", handler.GetFullView)
	mux.HandleFunc("GET /api/hockey/upcoming", handler.GetUpcoming)
	mux.HandleFunc("GET /api/hockey/recent", handler.GetRecent)
	mux.HandleFunc("GET /api/hockey/standings", handler.GetStandings)
}

func registerWidgetRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /widget/hockey", handler.RenderFullWidget)
	mux.HandleFunc("GET /widget/hockey/upcoming", handler.RenderUpcomingWidget)
	mux.HandleFunc("GET /widget/hockey/recent", handler.RenderRecentWidget)
	mux.HandleFunc("GET /widget/hockey/standings", handler.RenderStandingsWidget)
}

// The widget shipped with team-specific paths before it grew a team
// parameter. Old embeds still hit those, so they redirect with the query
// intact.
func registerLegacyRoutes(mux *http.ServeMux) {
	redirects := map[string]string{
		"GET /api":                   "/api/hockey",
		"GET /api/{$}":               "/api/hockey",
		"GET /widget":                "/widget/hockey",
		"GET /widget/{$}":            "/widget/hockey",
		"GET /api/wild":              "/api/hockey",
		"GET /api/wild/upcoming":     "/api/hockey/upcoming",
		"GET /api/wild/recent":       "/api/hockey/recent",
		"GET /api/wild/standings":    "/api/hockey/standings",
		"GET /widget/wild":           "/widget/hockey",
		"GET /widget/wild/upcoming":  "/widget/hockey/upcoming",
		"GET /widget/wild/recent":    "/widget/hockey/recent",
		"GET /widget/wild/standings": "/widget/hockey/standings",
	}
	for pattern, target := range redirects {
		target := target
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			dest := target
			if r.URL.RawQuery != "" {
				dest += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, dest, http.StatusMovedPermanently)
		})
	}
}
