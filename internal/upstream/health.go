package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Probe checks the upstream health endpoint once, bounded by the client
// timeout. It has no effect on forwarding.
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.JoinPath(HealthPath).String(), nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s health check: %w", c.name, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s health check: unexpected status %d", c.name, resp.StatusCode)
	}

	return nil
}

// SetHealthy records the probe result. The state is kept only to detect
// transitions; returns true if it changed.
func (c *Client) SetHealthy(healthy bool) (changed bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.healthy == healthy {
		return false
	}

	c.healthy = healthy
	return true
}
