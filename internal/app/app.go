package app

import (
	"fmt"
	"net/http"

	"github.com/openwidgets/nhl-ticker/external/nhle"
	"github.com/openwidgets/nhl-ticker/internal/config"
	"github.com/openwidgets/nhl-ticker/internal/interfaces/httpapi"
	"github.com/openwidgets/nhl-ticker/internal/platform/cache"
	"github.com/openwidgets/nhl-ticker/internal/platform/logging"
	"github.com/openwidgets/nhl-ticker/internal/platform/resilience"
	"github.com/openwidgets/nhl-ticker/internal/usecase"
)

// App wires the upstream client, cache, services, and HTTP surface together.
type App struct {
	Server *http.Server
	Warmup *usecase.WarmupService
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	client := nhle.NewClient(nhle.ClientConfig{
		BaseURL: cfg.NHLAPIBaseURL,
		Timeout: cfg.UpstreamTimeout,
		Logger:  logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.CircuitEnabled,
			FailureThreshold: cfg.CircuitFailureCount,
			OpenTimeout:      cfg.CircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.CircuitHalfOpenMaxReq,
		},
	})

	store := cache.NewStore()

	networks := usecase.DefaultNetworkConfig()
	if len(cfg.PreferredNetworks) > 0 {
		networks.PreferredNames = cfg.PreferredNetworks
	}
	for name, display := range cfg.NetworkNameMap {
		networks.NameMap[name] = display
	}

	gamesSvc := usecase.NewGamesService(client, store, usecase.GamesConfig{
		RecentTTL:      cfg.RecentTTL,
		UpcomingTTL:    cfg.UpcomingTTL,
		TVTTL:          cfg.TVTTL,
		TVFetchWorkers: cfg.TVFetchWorkers,
		Networks:       networks,
	}, logger)

	standingsSvc := usecase.NewStandingsService(client, store, usecase.StandingsConfig{
		StandingsTTL:     cfg.StandingsTTL,
		RegistryTTL:      cfg.RegistryTTL,
		RegistryRetryTTL: cfg.RegistryRetryTTL,
		DefaultTeam:      cfg.TeamCode,
	}, logger)

	widgetSvc := usecase.NewWidgetService(gamesSvc, standingsSvc, usecase.WidgetConfig{
		DefaultTeam:     cfg.TeamCode,
		DefaultDivision: cfg.DefaultDivision,
		DefaultUpcoming: cfg.DefaultUpcomingCount,
		DefaultRecent:   cfg.DefaultRecentCount,
		MaxUpcoming:     cfg.MaxUpcomingCount,
		MaxRecent:       cfg.MaxRecentCount,
	}, logger)

	warmupSvc := usecase.NewWarmupService(gamesSvc, standingsSvc, usecase.WarmupConfig{
		Enabled:    cfg.WarmupEnabled,
		Interval:   cfg.WarmupInterval,
		MaxWorkers: cfg.WarmupMaxWorkers,
		Team:       cfg.TeamCode,
		Division:   cfg.DefaultDivision,
	}, logger)

	handler := httpapi.NewHandler(widgetSvc, httpapi.RenderConfig{
		DisplayTimeZone: cfg.DisplayTimeZone,
	}, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{Server: server, Warmup: warmupSvc}, nil
}
