// Package rest is the JSON/bearer-token client for the chat and notification
// services. It performs no retries of its own: mutation failures are reported
// once and the caller decides what optimistic state to roll back.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ForeFoldAi/eye-care-sub001/pkg/types"
)

// Client talks to the backend REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a REST client. baseURL has no trailing slash.
func NewClient(baseURL, token string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		log:     logger.With().Str("component", "rest").Logger(),
	}
}

// --- chat service -----------------------------------------------------------

// ListRooms pulls the caller's room list.
func (c *Client) ListRooms(ctx context.Context) ([]*types.Room, error) {
	var rooms []*types.Room
	if err := c.do(ctx, http.MethodGet, "/api/chat/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreateDirectRoom creates (or returns the existing) direct room with userID.
func (c *Client) CreateDirectRoom(ctx context.Context, userID string) (*types.Room, error) {
	if !types.IsValidID(userID) {
		return nil, types.ErrInvalidRoomID
	}
	body := map[string]string{"user_id": userID}
	room := &types.Room{}
	if err := c.do(ctx, http.MethodPost, "/api/chat/rooms/direct", body, room); err != nil {
		return nil, err
	}
	return room, nil
}

// ListMessages pulls one page of a room's messages, newest page first.
func (c *Client) ListMessages(ctx context.Context, roomID string, page, limit int) ([]*types.Message, error) {
	if !types.IsValidID(roomID) {
		return nil, types.ErrInvalidRoomID
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	path := fmt.Sprintf("/api/chat/rooms/%s/messages?%s", roomID, q.Encode())

	var msgs []*types.Message
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage posts a message and returns the server-assigned record. The
// response is validated for a resolved sender by the reconciler, not here.
func (c *Client) SendMessage(ctx context.Context, roomID, body, kind string, replyTo *string) (*types.Message, error) {
	out := &types.Message{RoomID: roomID, Body: body, Kind: kind, ReplyTo: replyTo}
	if err := out.ValidateOutgoing(); err != nil {
		return nil, err
	}

	req := map[string]interface{}{"body": body, "kind": out.Kind}
	if replyTo != nil {
		req["reply_to"] = *replyTo
	}
	created := &types.Message{}
	path := fmt.Sprintf("/api/chat/rooms/%s/messages", roomID)
	if err := c.do(ctx, http.MethodPost, path, req, created); err != nil {
		return nil, err
	}
	return created, nil
}

// MarkRoomRead marks every message in the room read for the caller.
func (c *Client) MarkRoomRead(ctx context.Context, roomID string) error {
	if !types.IsValidID(roomID) {
		return types.ErrInvalidRoomID
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/chat/rooms/%s/read", roomID), nil, nil)
}

// UpdatePresence sets the caller's presence status.
func (c *Client) UpdatePresence(ctx context.Context, status string) error {
	if !types.IsValidStatus(status) {
		return types.ErrInvalidStatus
	}
	return c.do(ctx, http.MethodPut, "/api/users/me/presence", map[string]string{"status": status}, nil)
}

// --- notification service ---------------------------------------------------

// ListNotifications pulls the full notification list.
func (c *Client) ListNotifications(ctx context.Context) ([]*types.Notification, error) {
	var list []*types.Notification
	if err := c.do(ctx, http.MethodGet, "/api/notifications", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateNotification creates a notification addressed by the backend.
func (c *Client) CreateNotification(ctx context.Context, n *types.Notification) (*types.Notification, error) {
	created := &types.Notification{}
	if err := c.do(ctx, http.MethodPost, "/api/notifications", n, created); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateNotification updates a notification's mutable fields.
func (c *Client) UpdateNotification(ctx context.Context, n *types.Notification) (*types.Notification, error) {
	updated := &types.Notification{}
	if err := c.do(ctx, http.MethodPut, "/api/notifications/"+n.ID, n, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteNotification deletes a notification.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/notifications/"+id, nil, nil)
}

// MarkNotificationRead marks one notification read for the caller.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/"+id+"/read", nil, nil)
}

// MarkAllNotificationsRead marks every notification read for the caller.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/read-all", nil, nil)
}

// UnreadNotificationCount pulls the caller's unread notification counter.
func (c *Client) UnreadNotificationCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// ListNotificationGroups pulls the category buckets.
func (c *Client) ListNotificationGroups(ctx context.Context) ([]*types.NotificationGroup, error) {
	var groups []*types.NotificationGroup
	if err := c.do(ctx, http.MethodGet, "/api/notifications/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// --- plumbing ---------------------------------------------------------------

// do runs one request. 401 maps to the authentication sentinel; other non-2xx
// statuses become an *APIError carrying the backend's code and message when
// the body is parseable.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return types.ErrAuthenticationFailed
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		var parsed struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096)); readErr == nil {
			if json.Unmarshal(data, &parsed) == nil && parsed.Message != "" {
				apiErr.Code = parsed.Code
				apiErr.Message = parsed.Message
			}
		}
		c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("request failed")
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w: %v", types.ErrMalformedEvent, err)
	}
	return nil
}
