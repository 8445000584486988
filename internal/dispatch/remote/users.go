package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
)

type shortProfile struct {
	Username       any `json:"Username"`
	DisplayName    any `json:"DisplayName"`
	ProfilePicture any `json:"ProfilePicture"`
}

// ShortProfile fetches /users/{id}/short. Unknown users and profiles without
// any name yield a nil profile.
func (c *Client) ShortProfile(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, nil
	}

	req, err := c.NewRequest(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/short", nil)
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

	var payload shortProfile
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode profile of %s: %w", userID, err)
	}
	return model.NormalizeProfile(userID, str(payload.Username), str(payload.DisplayName), str(payload.ProfilePicture)), nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
