package fpl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/fplscout/transfer-advisor/internal/domain/catalog"
	"github.com/fplscout/transfer-advisor/internal/domain/squad"
	"github.com/fplscout/transfer-advisor/internal/platform/logging"
	"github.com/fplscout/transfer-advisor/internal/platform/resilience"
	"github.com/fplscout/transfer-advisor/internal/usecase"
)

const (
	defaultBaseURL  = "https://fantasy.premierleague.com/api"
	defaultSiteURL  = "https://fantasy.premierleague.com"
	defaultPhotoURL = "https://resources.premierleague.com/premierleague/photos/players/110x140"
)

var errFPLTransient = crerr.New("fpl transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	SiteURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the Fantasy Premier League public API. It implements
// usecase.CatalogFetcher, usecase.SquadFetcher and usecase.TransferExecutor.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	siteURL        string
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
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	siteURL := strings.TrimRight(strings.TrimSpace(cfg.SiteURL), "/")
	if siteURL == "" {
		siteURL = defaultSiteURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		siteURL:        siteURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type bootstrapElement struct {
	ID                       int64  `json:"id"`
	Code                     int64  `json:"code"`
	FirstName                string `json:"first_name"`
	SecondName               string `json:"second_name"`
	WebName                  string `json:"web_name"`
	Team                     int64  `json:"team"`
	ElementType              int    `json:"element_type"`
	NowCost                  int    `json:"now_cost"`
	Form                     string `json:"form"`
	PointsPerGame            string `json:"points_per_game"`
	EPNext                   string `json:"ep_next"`
	Status                   string `json:"status"`
	ChanceOfPlayingNextRound *int   `json:"chance_of_playing_next_round"`
}

type bootstrapTeam struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

type bootstrapEnvelope struct {
	Elements []bootstrapElement `json:"elements"`
	Teams    []bootstrapTeam    `json:"teams"`
}

type entryEnvelope struct {
	CurrentEvent int `json:"current_event"`
}

type picksEnvelope struct {
	Picks []struct {
		Element       int64 `json:"element"`
		IsCaptain     bool  `json:"is_captain"`
		IsViceCaptain bool  `json:"is_vice_captain"`
	} `json:"picks"`
	EntryHistory struct {
		Bank int `json:"bank"`
	} `json:"entry_history"`
}

// FetchCatalog pulls bootstrap-static and extracts the player and team
// catalogs with the defaulting rules the snapshot model expects.
func (c *Client) FetchCatalog(ctx context.Context) (catalog.Bundle, error) {
	var envelope bootstrapEnvelope
	if err := c.getJSON(ctx, "/bootstrap-static/", &envelope); err != nil {
		return catalog.Bundle{}, fmt.Errorf("fetch bootstrap: %w", err)
	}

	players := make([]catalog.Player, 0, len(envelope.Elements))
	for _, e := range envelope.Elements {
		if e.ID <= 0 {
			continue
		}
		name := displayName(e)
		players = append(players, catalog.Player{
			ID:                 e.ID,
			DisplayName:        name,
			TeamID:             e.Team,
			Position:           catalog.PositionFromCode(e.ElementType),
			Cost:               maxInt(e.NowCost, 0),
			Form:               parseSignal(e.Form),
			PointsPerGame:      parseSignal(e.PointsPerGame),
			ExpectedPointsNext: parseSignal(e.EPNext),
			Availability:       catalog.AvailabilityFromStatus(e.Status),
			ChanceOfPlaying:    e.ChanceOfPlayingNextRound,
			PhotoURL:           fmt.Sprintf("%s/p%d.png", defaultPhotoURL, e.Code),
			ProfileURL:         fmt.Sprintf("%s/player/%d-%s", c.siteURL, e.ID, slugify(name)),
		})
	}

	teams := make([]catalog.Team, 0, len(envelope.Teams))
	for _, t := range envelope.Teams {
		if t.ID <= 0 {
			continue
		}
		teams = append(teams, catalog.Team{
			ID:    t.ID,
			Name:  t.Name,
			Short: t.ShortName,
		})
	}

	c.logger.InfoContext(ctx, "catalog fetched",
		"players", len(players),
		"teams", len(teams),
	)
	return catalog.Bundle{Players: players, Teams: teams}, nil
}

// FetchSquad resolves the entry's current gameweek, then pulls its picks
// and remaining bank for that gameweek.
func (c *Client) FetchSquad(ctx context.Context, entryID int64) (usecase.SquadPayload, error) {
	if entryID <= 0 {
		return usecase.SquadPayload{}, fmt.Errorf("entry id must be greater than zero")
	}

	var entry entryEnvelope
	if err := c.getJSON(ctx, fmt.Sprintf("/entry/%d/", entryID), &entry); err != nil {
		return usecase.SquadPayload{}, fmt.Errorf("fetch entry %d: %w", entryID, err)
	}
	if entry.CurrentEvent <= 0 {
		return usecase.SquadPayload{}, fmt.Errorf("entry %d has no active event", entryID)
	}

	var picks picksEnvelope
	path := fmt.Sprintf("/entry/%d/event/%d/picks/", entryID, entry.CurrentEvent)
	if err := c.getJSON(ctx, path, &picks); err != nil {
		return usecase.SquadPayload{}, fmt.Errorf("fetch picks entry=%d event=%d: %w", entryID, entry.CurrentEvent, err)
	}

	out := usecase.SquadPayload{
		Picks: make([]squad.Pick, 0, len(picks.Picks)),
		Bank:  picks.EntryHistory.Bank,
	}
	for _, p := range picks.Picks {
		if p.Element <= 0 {
			continue
		}
		out.Picks = append(out.Picks, squad.Pick{
			PlayerID:      p.Element,
			IsCaptain:     p.IsCaptain,
			IsViceCaptain: p.IsViceCaptain,
		})
	}
	return out, nil
}

type transferRequest struct {
	ElementIn     int64 `json:"element_in"`
	ElementOut    int64 `json:"element_out"`
	PurchasePrice int   `json:"purchase_price"`
	SellingPrice  int   `json:"selling_price"`
	Entry         int64 `json:"entry"`
	Event         *int  `json:"event"`
}

// ExecuteTransfer relays the order to the provider's transfers endpoint
// with the caller's session cookie. The provider's verdict is final; a
// non-200 response is returned verbatim as an error.
func (c *Client) ExecuteTransfer(ctx context.Context, order usecase.TransferOrder) error {
	payload := transferRequest{
		ElementIn:  order.InPlayerID,
		ElementOut: order.OutPlayerID,
		Entry:      order.EntryID,
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(payload); err != nil {
		return fmt.Errorf("encode transfer payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transfers/", strings.NewReader(buf.String()))
	if err != nil {
		return fmt.Errorf("build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.AddCookie(&http.Cookie{Name: "session", Value: order.SessionCookie})

	body, err := c.send(ctx, req)
	if err != nil {
		return fmt.Errorf("execute transfer: %w", err)
	}

	c.logger.InfoContext(ctx, "transfer relayed",
		"entry_id", order.EntryID,
		"response_bytes", len(body),
	)
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	body, err := c.send(ctx, req)
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// send executes the request behind the circuit breaker, retrying transient
// failures up to maxRetries times.
func (c *Client) send(ctx context.Context, req *http.Request) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
			c.logger.WarnContext(ctx, "retrying upstream request",
				"path", req.URL.Path,
				"attempt", attempt,
				"error", lastErr,
			)
		}

		body, err := c.execute(ctx, req)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !crerr.Is(err, errFPLTransient) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) execute(ctx context.Context, req *http.Request) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			return nil, fmt.Errorf("upstream circuit open: %w", err)
		}
	}

	attempt := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		attempt.Body = body
	}

	resp, err := c.httpClient.Do(attempt)
	if err != nil {
		c.recordFailure()
		return nil, crerr.Mark(fmt.Errorf("request %s: %w", req.URL.Path, err), errFPLTransient)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFailure()
		return nil, crerr.Mark(fmt.Errorf("read response %s: %w", req.URL.Path, err), errFPLTransient)
	}

	if isRetryableStatus(resp.StatusCode) {
		c.recordFailure()
		return nil, crerr.Mark(
			fmt.Errorf("upstream status %d for %s", resp.StatusCode, req.URL.Path),
			errFPLTransient,
		)
	}
	if resp.StatusCode != http.StatusOK {
		// A definitive provider verdict, not an outage; the upstream
		// answered, so the breaker records a success.
		if c.circuitEnabled {
			c.breaker.RecordSuccess()
		}
		return nil, fmt.Errorf("%s: %w", req.URL.Path, &usecase.UpstreamRejectionError{
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), 256),
		})
	}

	if c.circuitEnabled {
		c.breaker.RecordSuccess()
	}
	return body, nil
}

// Rate limiting is transient like a 5xx; everything else below 500 is a
// verdict the caller must see unchanged.
func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) recordFailure() {
	if c.circuitEnabled {
		c.breaker.RecordFailure()
	}
}

func displayName(e bootstrapElement) string {
	if name := strings.TrimSpace(e.WebName); name != "" {
		return name
	}
	name := strings.TrimSpace(strings.TrimSpace(e.FirstName) + " " + strings.TrimSpace(e.SecondName))
	if name != "" {
		return name
	}
	return fmt.Sprintf("Player #%d", e.ID)
}

// parseSignal parses the provider's stringly-typed performance numbers.
// Absent or malformed values default to 0.0 and negatives are floored so
// ranking arithmetic never sees a missing or negative operand.
func parseSignal(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
