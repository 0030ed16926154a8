// Package planner is the client for the remote path-planning and
// recognition service. It turns an obstacle payload into an ordered command
// list plus the matching waypoint path, and requests the end-of-mission
// image stitch.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/TenLetterx/RPi-MDP10/errors"
	"github.com/TenLetterx/RPi-MDP10/metric"
	"github.com/TenLetterx/RPi-MDP10/pkg/retry"
	"github.com/TenLetterx/RPi-MDP10/protocol"
)

// Plan is a decoded planning response: motor commands in execution order and
// the waypoint reached after each movement.
type Plan struct {
	Commands []protocol.Command
	Path     []protocol.Waypoint
}

// planRequest is the wire form of a planning request.
type planRequest struct {
	protocol.PlanPayload
	Retrying bool `json:"retrying"`
}

// planResponse is the wire form of a planning response.
type planResponse struct {
	Data struct {
		Commands []string            `json:"commands"`
		Path     []protocol.Waypoint `json:"path"`
	} `json:"data"`
}

// ClientDeps holds construction dependencies for the planner client.
type ClientDeps struct {
	BaseURL         string
	Timeout         time.Duration
	HTTPClient      *http.Client
	Retry           retry.Config
	MetricsRegistry *metric.Registry
	Logger          *slog.Logger
}

// Client calls the planning service over HTTP. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	retry   retry.Config
	logger  *slog.Logger
	metrics *Metrics
}

// NewClient creates a planner client.
func NewClient(deps ClientDeps) *Client {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		timeout := deps.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	cfg := deps.Retry
	if cfg.MaxAttempts == 0 {
		cfg = retry.Quick()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "planner")
	}
	return &Client{
		baseURL: deps.BaseURL,
		http:    httpClient,
		retry:   cfg,
		logger:  logger,
		metrics: newMetrics(deps.MetricsRegistry),
	}
}

// RequestPlan posts the accumulated obstacles and robot pose, returning the
// decoded plan. An HTTP or status failure is an UpstreamError; a response
// with no commands is ErrEmptyPlan and the mission state must not change.
func (c *Client) RequestPlan(ctx context.Context, payload *protocol.PlanPayload, retrying bool) (*Plan, error) {
	body, err := json.Marshal(planRequest{PlanPayload: *payload, Retrying: retrying})
	if err != nil {
		return nil, errors.WrapUpstream(err, "planner", "RequestPlan", "encode request")
	}

	c.logger.Info("requesting plan",
		"obstacles", len(payload.Obstacles),
		"robot_x", payload.RobotX,
		"robot_y", payload.RobotY,
		"retrying", retrying)
	if c.metrics != nil {
		c.metrics.planRequests.Inc()
	}

	var decoded planResponse
	err = retry.Do(ctx, c.retry, func() error {
		raw, err := c.post(ctx, "/path", body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return retry.NonRetryable(
				errors.WrapUpstream(err, "planner", "RequestPlan", "decode response"))
		}
		return nil
	})
	if err != nil {
		if c.metrics != nil {
			c.metrics.planFailures.Inc()
		}
		return nil, errors.WrapUpstream(
			fmt.Errorf("%w: %w", errors.ErrPlanRequestFailed, err),
			"planner", "RequestPlan", "call service")
	}

	if len(decoded.Data.Commands) == 0 {
		return nil, errors.WrapUpstream(errors.ErrEmptyPlan, "planner", "RequestPlan", "validate response")
	}

	plan := &Plan{Path: decoded.Data.Path}
	for _, token := range decoded.Data.Commands {
		cmd, err := protocol.ParseCommand(token)
		if err != nil {
			return nil, errors.WrapUpstream(
				fmt.Errorf("command %q: %w", token, err),
				"planner", "RequestPlan", "decode commands")
		}
		plan.Commands = append(plan.Commands, cmd)
	}

	c.logger.Info("plan received", "commands", len(plan.Commands), "waypoints", len(plan.Path))
	return plan, nil
}

// RequestStitch asks the service to stitch the captured images together.
func (c *Client) RequestStitch(ctx context.Context) error {
	err := retry.Do(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stitch", nil)
		if err != nil {
			return retry.NonRetryable(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d: %w", resp.StatusCode, errors.ErrUpstreamStatus)
		}
		return nil
	})
	if err != nil {
		if c.metrics != nil {
			c.metrics.stitchFailures.Inc()
		}
		return errors.WrapUpstream(
			fmt.Errorf("%w: %w", errors.ErrStitchFailed, err),
			"planner", "RequestStitch", "call service")
	}
	c.logger.Info("images stitched")
	return nil
}

// Healthy probes the service before mission workers start. A failure is
// advisory; callers log it and continue.
func (c *Client) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return errors.WrapUpstream(err, "planner", "Healthy", "build request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WrapUpstream(err, "planner", "Healthy", "probe service")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return errors.WrapUpstream(
			fmt.Errorf("status %d: %w", resp.StatusCode, errors.ErrUpstreamStatus),
			"planner", "Healthy", "probe service")
	}
	return nil
}

// post issues one POST and returns the response body on 200.
func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, retry.NonRetryable(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", errors.ErrUpstreamUnreadable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, errors.ErrUpstreamStatus)
	}
	return raw, nil
}
