package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Houssemalou/lingua-hub/internal/backend"
)

type HTTPClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) backend.Client {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
			// One short-lived connection per call.
			Transport: &http.Transport{DisableKeepAlives: true, Proxy: http.ProxyFromEnvironment},
		},
	}
}

type envelope[T any] struct {
	Data T `json:"data"`
}

func (c *HTTPClient) FetchRoomInfo(ctx context.Context, roomID string) backend.RoomInfo {
	var body envelope[backend.RoomInfo]
	if err := c.getJSON(ctx, c.roomPath(roomID), &body); err != nil {
		slog.Error("failed to fetch room info", "error", err, "room_id", roomID)
		return backend.ErrorRoomInfo(fmt.Sprintf("failed to fetch room: %v", err))
	}
	if body.Data == nil {
		return backend.RoomInfo{}
	}
	return body.Data
}

func (c *HTTPClient) FetchParticipants(ctx context.Context, roomID string) []backend.Participant {
	var body envelope[[]backend.Participant]
	if err := c.getJSON(ctx, c.roomPath(roomID)+"/participants", &body); err != nil {
		slog.Error("failed to fetch room participants", "error", err, "room_id", roomID)
		return backend.ErrorParticipants(fmt.Sprintf("failed to fetch participants: %v", err))
	}
	if body.Data == nil {
		return []backend.Participant{}
	}
	return body.Data
}

func (c *HTTPClient) SaveSummary(ctx context.Context, sessionID string, summary backend.SessionSummary) backend.SaveResult {
	if err := c.postJSON(ctx, "/api/sessions/"+url.PathEscape(sessionID)+"/summary", summary); err != nil {
		slog.Error("failed to save session summary", "error", err, "session_id", sessionID)
		return backend.SaveResult{Success: false, Error: fmt.Sprintf("failed to save summary: %v", err)}
	}
	return backend.SaveResult{Success: true}
}

func (c *HTTPClient) NotifyScreenShare(ctx context.Context, roomID, identity string, isSharing bool) {
	payload := backend.ScreenShareNotification{Identity: identity, IsSharing: isSharing}
	if err := c.postJSON(ctx, c.roomPath(roomID)+"/screen-share", payload); err != nil {
		slog.Error("failed to notify backend about screen share", "error", err, "room_id", roomID, "participant", identity, "is_sharing", isSharing)
		return
	}
	slog.Info("notified backend about screen share", "room_id", roomID, "participant", identity, "is_sharing", isSharing)
}

func (c *HTTPClient) roomPath(roomID string) string {
	return "/api/rooms/" + url.PathEscape(roomID)
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return nil
}
