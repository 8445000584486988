package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
)

type roomDetails struct {
	GroupID   any `json:"groupID"`
	CreatedAt any `json:"createdAt"`
	CreatorID any `json:"creatorID"`
	Expires   any `json:"expires"`
	Users     any `json:"users"`
	Vehicles  any `json:"vehicles"`
}

// ActiveRoom returns the current room of groupID, or "" if the group has none.
func (c *Client) ActiveRoom(ctx context.Context, groupID string) (string, error) {
	if groupID == "" {
		return "", nil
	}

	req, err := c.NewRequest(ctx, http.MethodGet, "/rooms/?GroupID="+url.QueryEscape(groupID), nil)
	if err != nil {
		return "", err
	}
	_, body, err := c.do(req)
	if IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return roomID(body)
}

// Room returns the details of roomID. Unknown rooms and incomplete answers yield nil.
func (c *Client) Room(ctx context.Context, roomID string) (*model.Room, error) {
	if roomID == "" {
		return nil, nil
	}

	req, err := c.NewRequest(ctx, http.MethodGet, "/rooms/"+url.PathEscape(roomID), nil)
	if err != nil {
		return nil, err
	}
	_, body, err := c.do(req)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var payload roomDetails
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	return normalizeRoom(roomID, payload), nil
}

// OpenRoom opens a room for an event and returns its id.
func (c *Client) OpenRoom(ctx context.Context, eventID string) (string, error) {
	if eventID == "" {
		return "", fmt.Errorf("event id is required")
	}

	req, err := c.NewRequest(ctx, http.MethodPost, "/rooms/", map[string]string{"EventID": eventID})
	if err != nil {
		return "", err
	}
	_, body, err := c.do(req)
	if err != nil {
		return "", err
	}
	return roomID(body)
}

// CloseRoom closes roomID. It reports false when the room does not exist.
func (c *Client) CloseRoom(ctx context.Context, roomID string) (bool, error) {
	if roomID == "" {
		return false, nil
	}

	req, err := c.NewRequest(ctx, http.MethodDelete, "/rooms/"+url.PathEscape(roomID), nil)
	if err != nil {
		return false, err
	}
	_, _, err = c.do(req)
	if IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func roomID(body []byte) (string, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode room id: %w", err)
	}
	for _, key := range []string{"RoomID", "roomId", "roomID"} {
		if v, ok := payload[key]; ok && v != nil {
			s, _ := v.(string)
			if strings.TrimSpace(s) == "" {
				return "", nil
			}
			return s, nil
		}
	}
	return "", nil
}

func normalizeRoom(id string, p roomDetails) *model.Room {
	group, _ := p.GroupID.(string)
	creator, _ := p.CreatorID.(string)
	if group == "" || creator == "" {
		return nil
	}

	created := model.NormalizeDate(p.CreatedAt)
	expires := model.NormalizeDate(p.Expires)
	if created == "" || expires == "" {
		return nil
	}

	users := []string{}
	if list, ok := p.Users.([]any); ok {
		for _, u := range list {
			if s, ok := u.(string); ok && strings.TrimSpace(s) != "" {
				users = append(users, s)
			}
		}
	}

	vehicles := 0
	if n, ok := p.Vehicles.(float64); ok {
		vehicles = int(n)
	}

	return &model.Room{
		RoomID:    id,
		GroupID:   group,
		CreatorID: creator,
		CreatedAt: created,
		ExpiresAt: expires,
		Users:     users,
		Vehicles:  vehicles,
	}
}
