package futfantasy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fantasyscouter/engine/internal/domain/match"
	"github.com/fantasyscouter/engine/internal/domain/performance"
	"github.com/fantasyscouter/engine/internal/domain/player"
	"github.com/fantasyscouter/engine/internal/domain/team"
	"github.com/fantasyscouter/engine/internal/metrics"
	"github.com/fantasyscouter/engine/internal/platform/logging"
	"github.com/fantasyscouter/engine/internal/platform/resilience"
)

const (
	defaultBaseURL  = "https://feed.futfantasy.example/v1"
	maxResponseSize = 6 << 20
)

var apiTokenParamRegex = regexp.MustCompile(`api_token=[^&\s"']+`)
var errFeedTransient = crerr.New("futfantasy transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the scraper feed's JSON endpoints. The feed publishes
// already-shaped records; no HTML is parsed here.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type teamsEnvelope struct {
	Teams []teamItem `json:"teams"`
}

type teamItem struct {
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	ID        int64  `json:"id"`
	Crest     string `json:"crest"`
	SquadSize int    `json:"squad_size"`
	URL       string `json:"url"`
}

func (c *Client) FetchTeams(ctx context.Context) ([]team.Team, error) {
	var envelope teamsEnvelope
	if err := c.doJSON(ctx, "/teams", &envelope); err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}

	out := make([]team.Team, 0, len(envelope.Teams))
	for _, item := range envelope.Teams {
		out = append(out, team.Team{
			Slug:       item.Slug,
			Name:       item.Name,
			ExternalID: item.ID,
			CrestPath:  item.Crest,
			SquadSize:  item.SquadSize,
			URL:        item.URL,
		})
	}
	return out, nil
}

type scheduleEnvelope struct {
	Jornadas []scheduleJornada `json:"jornadas"`
}

type scheduleJornada struct {
	Jornada int             `json:"jornada"`
	Matches []scheduleMatch `json:"matches"`
}

type scheduleMatch struct {
	Home  string `json:"home"`
	Away  string `json:"away"`
	Score string `json:"score"`
	Date  string `json:"date"`
	ID    string `json:"id"`
	URL   string `json:"url"`
}

func (c *Client) FetchMatches(ctx context.Context) ([]match.Match, error) {
	var envelope scheduleEnvelope
	if err := c.doJSON(ctx, "/schedule", &envelope); err != nil {
		return nil, fmt.Errorf("fetch schedule: %w", err)
	}

	out := make([]match.Match, 0, 64)
	for _, jornada := range envelope.Jornadas {
		for _, item := range jornada.Matches {
			m := match.Match{
				Jornada:    jornada.Jornada,
				HomeTeam:   item.Home,
				AwayTeam:   item.Away,
				Date:       parseFeedDate(item.Date),
				ExternalID: item.ID,
				URL:        item.URL,
			}
			score, err := match.ParseScore(item.Score)
			if err != nil {
				// Score pages sometimes render garbage mid-match. A nil
				// score keeps any stored result untouched downstream.
				c.logger.WarnContext(ctx, "dropping malformed feed score",
					"match", m.Key().String(),
					"raw", item.Score,
				)
			} else {
				m.Score = score
			}
			out = append(out, m)
		}
	}
	return out, nil
}

type squadsEnvelope struct {
	Players []squadPlayer `json:"players"`
}

type squadPlayer struct {
	Slug     string `json:"slug"`
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Team     string `json:"team"`
	Position string `json:"position"`
	Role     string `json:"role"`
	Photo    string `json:"photo"`
}

type marketEnvelope struct {
	Players []marketPlayer `json:"players"`
}

type marketPlayer struct {
	Slug        string  `json:"slug"`
	MarketValue int64   `json:"market_value"`
	PMR         float64 `json:"pmr"`
	ProbStarter float64 `json:"prob_starter"`
}

// FetchPlayers overlays the fast market feed on the slow squad feed. The
// squad feed carries bio fields only for players whose profile page was
// revisited, so bio fields may come back empty for known players.
func (c *Client) FetchPlayers(ctx context.Context) ([]player.Player, error) {
	var squads squadsEnvelope
	if err := c.doJSON(ctx, "/squads", &squads); err != nil {
		return nil, fmt.Errorf("fetch squads: %w", err)
	}

	var market marketEnvelope
	if err := c.doJSON(ctx, "/market", &market); err != nil {
		return nil, fmt.Errorf("fetch market: %w", err)
	}
	marketBySlug := make(map[string]marketPlayer, len(market.Players))
	for _, item := range market.Players {
		marketBySlug[item.Slug] = item
	}

	out := make([]player.Player, 0, len(squads.Players))
	for _, item := range squads.Players {
		p := player.Player{
			Slug:       item.Slug,
			ExternalID: item.ID,
			Name:       item.Name,
			TeamSlug:   item.Team,
			Position:   item.Position,
			Role:       item.Role,
			PhotoPath:  item.Photo,
		}
		if m, ok := marketBySlug[item.Slug]; ok {
			p.MarketValue = m.MarketValue
			p.PMR = m.PMR
			p.ProbStarter = m.ProbStarter
		}
		out = append(out, p)
	}
	return out, nil
}

type statsEnvelope struct {
	Performances []statsPerformance `json:"performances"`
}

type statsPerformance struct {
	Player    string             `json:"player"`
	Jornada   int                `json:"jornada"`
	Home      string             `json:"home"`
	Away      string             `json:"away"`
	Points    int                `json:"points"`
	Stats     map[string]float64 `json:"stats"`
	Breakdown map[string]float64 `json:"breakdown"`
	Starter   bool               `json:"starter"`
	Status    string             `json:"status"`
}

func (c *Client) FetchPerformances(ctx context.Context) ([]performance.Performance, error) {
	var envelope statsEnvelope
	if err := c.doJSON(ctx, "/stats", &envelope); err != nil {
		return nil, fmt.Errorf("fetch stats: %w", err)
	}

	out := make([]performance.Performance, 0, len(envelope.Performances))
	for _, item := range envelope.Performances {
		status := performance.Status(item.Status)
		if status == "" {
			status = performance.StatusProvisional
		}
		out = append(out, performance.Performance{
			PlayerSlug: item.Player,
			Match: match.Key{
				Jornada:  item.Jornada,
				HomeTeam: item.Home,
				AwayTeam: item.Away,
			},
			Points:    item.Points,
			Stats:     item.Stats,
			Breakdown: item.Breakdown,
			Starter:   item.Starter,
			Status:    status,
		})
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "feed circuit breaker rejected request",
				"state", string(c.breaker.State()),
			)
			return fmt.Errorf("feed temporarily unavailable: %w", err)
		}
	}

	values := url.Values{}
	if c.token != "" {
		values.Set("api_token", c.token)
	}
	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	started := time.Now()
	raw, err := c.executeRequest(ctx, fullURL)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errFeedTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordProviderCall(path, status, time.Since(started).Seconds())
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errFeedTransient, sanitizeSensitiveText(err.Error(), c.token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errFeedTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: feed status=%d body=%s", errFeedTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "feed request failed",
		"url", redactAPIURL(fullURL),
		"error", lastErr,
	)
	return nil, lastErr
}

func parseFeedDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func redactAPIURL(rawURL string) string {
	return apiTokenParamRegex.ReplaceAllString(rawURL, "api_token=***")
}

func sanitizeSensitiveText(text, token string) string {
	if token == "" {
		return text
	}
	return strings.ReplaceAll(text, token, "***")
}

func abbreviateBody(body []byte) string {
	const limit = 256
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) <= limit {
		return trimmed
	}
	return trimmed[:limit] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
