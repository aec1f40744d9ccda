package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pefman/omega-duel/internal/game"
	"github.com/pefman/omega-duel/internal/models"
)

const shipCacheTTL = 5 * time.Minute

// Config holds API configuration
type Config struct {
	BaseURL string
	// HTTPClient defaults to a client with an 8 second timeout.
	HTTPClient *http.Client
}

// Client talks to the fight API. It is safe for concurrent use.
type Client struct {
	config Config
	now    func() time.Time

	// Simple cache for the ship roster; it only changes when the owner edits
	// the catalog.
	shipMu    sync.RWMutex
	ships     []game.NamedShip
	shipsTime time.Time
}

func NewClient(baseURL string) *Client {
	return NewClientWithConfig(Config{BaseURL: baseURL})
}

func NewClientWithConfig(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 8 * time.Second}
	}
	return &Client{config: cfg, now: time.Now}
}

// Error is a non-2xx answer from the API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %d", e.Status)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	base := strings.TrimRight(c.config.BaseURL, "/")
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb models.ErrorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&eb)
		return &Error{Status: resp.StatusCode, Message: eb.Message}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Ships returns the catalog roster, cached for five minutes.
func (c *Client) Ships(ctx context.Context) ([]game.NamedShip, error) {
	c.shipMu.RLock()
	if c.ships != nil && c.now().Sub(c.shipsTime) < shipCacheTTL {
		out := append([]game.NamedShip(nil), c.ships...)
		c.shipMu.RUnlock()
		return out, nil
	}
	c.shipMu.RUnlock()

	var ships []game.NamedShip
	if err := c.do(ctx, http.MethodGet, "/api/ships", nil, &ships); err != nil {
		return nil, err
	}
	if ships == nil {
		ships = []game.NamedShip{}
	}

	c.shipMu.Lock()
	c.ships = ships
	c.shipsTime = c.now()
	c.shipMu.Unlock()
	return append([]game.NamedShip(nil), ships...), nil
}

// Replay resolves a fight with move logs.
func (c *Client) Replay(ctx context.Context, req models.FightRequest) (game.Replay, error) {
	var out game.Replay
	err := c.do(ctx, http.MethodPost, "/api/fight", req, &out)
	return out, err
}

// Match fetches a stored ranked fight with its regenerated moves.
func (c *Client) Match(ctx context.Context, id string) (models.Match, error) {
	var out models.Match
	err := c.do(ctx, http.MethodGet, "/api/match/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context) ([]game.LeaderboardEntry, error) {
	var out []game.LeaderboardEntry
	err := c.do(ctx, http.MethodGet, "/api/ranked/leaderboard", nil, &out)
	return out, err
}
