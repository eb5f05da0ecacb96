package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// PollInterval is how often to check a session while waiting on the clock
	PollInterval = 100 * time.Millisecond
	// WaitTimeout is the default limit of a wait_for step
	WaitTimeout = 30 * time.Second
)

// CreateSession starts a session of the scenario and returns its id
func CreateSession(ctx context.Context, client *http.Client, baseURL, scenarioID string) (uuid.UUID, error) {
	reqBody, err := json.Marshal(map[string]string{"scenario_id": scenarioID})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/sessions", bytes.NewReader(reqBody))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return uuid.Nil, fmt.Errorf("create session returned %d: %s", resp.StatusCode, string(body))
	}

	var view SessionView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return uuid.Nil, fmt.Errorf("failed to decode created session: %w", err)
	}
	return view.ID, nil
}

// GetSession retrieves the live view of a session
func GetSession(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID) (*SessionView, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/sessions/"+sessionID.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create session request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send session request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("session endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var view SessionView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &view, nil
}

// PostCommand sends a command and returns the HTTP status with the decoded body.
// The body is nil for non-200 responses.
func PostCommand(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID, cmd Command) (int, *CommandResponse, error) {
	reqBody, err := json.Marshal(cmd)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal command: %w", err)
	}

	url := fmt.Sprintf("%s/v1/sessions/%s/commands", baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create command request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send command: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil, nil
	}

	var out CommandResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to decode command response: %w", err)
	}
	return resp.StatusCode, &out, nil
}

// DeleteSession stops a session. A session that is already gone is not an error.
func DeleteSession(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, baseURL+"/v1/sessions/"+sessionID.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create DELETE request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete session returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// PollForSession polls a session until the wait condition holds or the timeout elapses
func PollForSession(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID, wait WaitFor) (*SessionView, error) {
	timeout := WaitTimeout
	if wait.TimeoutSeconds > 0 {
		timeout = time.Duration(wait.TimeoutSeconds) * time.Second
	}
	deadline := time.Now().Add(timeout)

	for {
		view, err := GetSession(ctx, client, baseURL, sessionID)
		if err != nil {
			return nil, err
		}
		if (wait.Status == "" || string(view.Game.Status) == wait.Status) && view.Game.State.Day >= wait.MinDay {
			return view, nil
		}
		if time.Now().After(deadline) {
			return view, fmt.Errorf("timeout waiting for session (status %s, day %d)", view.Game.Status, view.Game.State.Day)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(PollInterval):
		}
	}
}
