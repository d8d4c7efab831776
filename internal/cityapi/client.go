// Package cityapi talks to the city simulation server over HTTP.
package cityapi

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/udisondev/fastcity/internal/config"
	"github.com/udisondev/fastcity/internal/geo"
	"github.com/udisondev/fastcity/internal/model"
)

var (
	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrUnknownTeam is returned when the configured team is not registered.
	ErrUnknownTeam = errors.New("team not registered")
)

//go:embed world.schema.json
var worldSchemaJSON string

// Client implements the fleet World against the city server.
type Client struct {
	cfg    config.API
	http   *http.Client
	schema *jsonschema.Schema // nil unless cfg.ValidateWorld
}

// New creates a client. A nil httpClient gets one with cfg.RequestTimeout.
func New(cfg config.API, httpClient *http.Client) (*Client, error) {
	if _, err := url.Parse(cfg.ServerURL); err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	c := &Client{cfg: cfg, http: httpClient}
	if cfg.ValidateWorld {
		schema, err := jsonschema.CompileString("world.schema.json", worldSchemaJSON)
		if err != nil {
			return nil, fmt.Errorf("compiling world schema: %w", err)
		}
		c.schema = schema
	}
	return c, nil
}

func (c *Client) apiURL(elem ...string) (string, error) {
	return url.JoinPath(c.cfg.ServerURL, append([]string{c.cfg.TeamName, "api", "v1"}, elem...)...)
}

func (c *Client) adminURL(elem ...string) (string, error) {
	parts := append([]string{c.cfg.TeamKey, "admin"}, elem...)
	if c.cfg.TeamKey == "" {
		parts = parts[1:]
	}
	return url.JoinPath(c.cfg.ServerURL, parts...)
}

// do sends a request and returns the decoded body of a 2xx response.
func (c *Client) do(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, target, err)
	}
	req.Header.Set("Accept-Encoding", "zstd, gzip")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", c.cfg.Token)
	}

	slog.Debug("sending request", "method", method, "url", target, "bytes", len(body))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading body: %w", method, target, err)
	}

	slog.Debug("server responded", "url", target, "status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: %w %d: %s", method, target, ErrUnexpectedStatus, resp.StatusCode, truncate(data, 200))
	}
	return data, nil
}

// readBody undoes the Content-Encoding of resp.
func readBody(resp *http.Response) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return io.ReadAll(resp.Body)

	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)

	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)

	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// GetWorld fetches the world snapshot.
func (c *Client) GetWorld(ctx context.Context) (*model.WorldSnapshot, error) {
	target, err := c.apiURL("world")
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	if c.schema != nil {
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding world: %w", err)
		}
		if err := c.schema.Validate(doc); err != nil {
			return nil, fmt.Errorf("validating world: %w", err)
		}
	}

	return model.DecodeWorld(data)
}

type moveRequest struct {
	Type   string     `json:"Type"`
	Action moveAction `json:"Action"`
}

type moveAction struct {
	Message       string        `json:"message"`
	CarID         model.CarID   `json:"CarId"`
	MoveDirection geo.Direction `json:"MoveDirection"`
}

// MoveCar submits one step of car id.
func (c *Client) MoveCar(ctx context.Context, id model.CarID, d geo.Direction) error {
	target, err := c.apiURL("actions")
	if err != nil {
		return err
	}
	body, err := json.Marshal(moveRequest{
		Type: "move",
		Action: moveAction{
			Message:       fmt.Sprintf("Moving car ID %d to the %s", id, d),
			CarID:         id,
			MoveDirection: d,
		},
	})
	if err != nil {
		return fmt.Errorf("encoding move: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, target, body)
	return err
}

// StartGame starts a round.
func (c *Client) StartGame(ctx context.Context) error {
	target, err := c.adminURL("start")
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, http.MethodPut, target, nil); err != nil {
		return err
	}
	slog.Info("started game")
	return nil
}

// StopGame stops the running round.
func (c *Client) StopGame(ctx context.Context) error {
	target, err := c.adminURL("stop")
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, http.MethodPut, target, nil); err != nil {
		return err
	}
	slog.Info("stopped game")
	return nil
}

// TeamCarIDs returns the cars of the configured team.
// The newest team registered under the name owns them.
// No round running yields no cars.
func (c *Client) TeamCarIDs(ctx context.Context) ([]model.CarID, error) {
	w, err := c.GetWorld(ctx)
	if err != nil {
		return nil, err
	}
	if !w.Active() {
		return nil, nil
	}
	team, ok := w.TeamByName(c.cfg.TeamName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTeam, c.cfg.TeamName)
	}
	return w.TeamCars(team), nil
}

type teamScore struct {
	Current int `json:"current"`
}

// Score returns the current score of the configured team.
func (c *Client) Score(ctx context.Context) (int, error) {
	target, err := c.apiURL("scores")
	if err != nil {
		return 0, err
	}
	data, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}

	var scores map[string]teamScore
	if err := json.Unmarshal(data, &scores); err != nil {
		return 0, fmt.Errorf("decoding scores: %w", err)
	}
	s, ok := scores[c.cfg.TeamName]
	if !ok {
		return 0, fmt.Errorf("%w: %q has no score", ErrUnknownTeam, c.cfg.TeamName)
	}
	return s.Current, nil
}
