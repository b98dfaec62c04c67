package nhle

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/openwidgets/nhl-ticker/internal/platform/logging"
	"github.com/openwidgets/nhl-ticker/internal/platform/resilience"
)

const (
	defaultBaseURL = "https://api-web.nhle.com"
	defaultTimeout = 10 * time.Second
	userAgent      = "nhl-ticker/1.0"
	maxBodyBytes   = 6 << 20
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client issues GET requests against the NHL api-web endpoints. One outbound
// call per invocation, bounded by the configured timeout; the retry-vs-stale
// decision belongs to the caller.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = timeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

// ClubScheduleNow fetches the current-season schedule for a team code.
func (c *Client) ClubScheduleNow(ctx context.Context, teamCode string) (ScheduleEnvelope, error) {
	teamCode = strings.ToUpper(strings.TrimSpace(teamCode))
	if teamCode == "" {
		return ScheduleEnvelope{}, fmt.Errorf("nhle: team code is required")
	}

	var envelope ScheduleEnvelope
	if err := c.getJSON(ctx, "/v1/club-schedule-season/"+teamCode+"/now", &envelope); err != nil {
		return ScheduleEnvelope{}, fmt.Errorf("fetch club schedule team=%s: %w", teamCode, err)
	}
	return envelope, nil
}

// StandingsNow fetches the league-wide standings relative to now.
func (c *Client) StandingsNow(ctx context.Context) (StandingsEnvelope, error) {
	var envelope StandingsEnvelope
	if err := c.getJSON(ctx, "/v1/standings/now", &envelope); err != nil {
		return StandingsEnvelope{}, fmt.Errorf("fetch standings: %w", err)
	}
	return envelope, nil
}

// TVScheduleByDate fetches the TV broadcast payload for a YYYY-MM-DD date.
func (c *Client) TVScheduleByDate(ctx context.Context, date string) (TVScheduleEnvelope, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return TVScheduleEnvelope{}, fmt.Errorf("nhle: date is required")
	}

	var payload map[string]any
	if err := c.getJSON(ctx, "/v1/network/tv-schedule/"+date, &payload); err != nil {
		return TVScheduleEnvelope{}, fmt.Errorf("fetch tv schedule date=%s: %w", date, err)
	}
	return TVScheduleEnvelope{Payload: payload}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "nhle circuit breaker rejected request", "path", path, "state", c.breaker.State())
			return fmt.Errorf("%w: circuit open", ErrUnreachable)
		}
	}

	raw, err := c.execute(ctx, c.baseURL+path)
	if c.circuitEnabled {
		if err != nil && isCircuitFailure(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		c.logger.WarnContext(ctx, "nhle request failed", "path", path, "error", err)
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformed, path, err)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return raw, nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	switch {
	case crerr.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case crerr.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
}

// isCircuitFailure keeps client-side mistakes (4xx) from tripping the
// breaker; only transport failures and server-side statuses count.
func isCircuitFailure(err error) bool {
	if crerr.Is(err, ErrTimeout) || crerr.Is(err, ErrUnreachable) {
		return true
	}
	if code, ok := StatusCode(err); ok {
		return code == http.StatusTooManyRequests || code >= 500
	}
	return false
}
