package model

import (
	"strings"
	"time"
)

// Room is the scope a roster and its live stream are subscribed under.
type Room struct {
	RoomID    string   `json:"roomId"`
	GroupID   string   `json:"groupId"`
	CreatorID string   `json:"creatorId"`
	CreatedAt string   `json:"createdAt"`
	ExpiresAt string   `json:"expiresAt"`
	Users     []string `json:"users"`
	Vehicles  int      `json:"vehicles"`
}

// isoLayout matches the millisecond UTC form used for room dates.
const isoLayout = "2006-01-02T15:04:05.000Z"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeDate renders a date string or epoch milliseconds as an ISO-8601 UTC
// timestamp. Unparseable strings are returned unchanged; other values yield "".
func NormalizeDate(v any) string {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return ""
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC().Format(isoLayout)
			}
		}
		return x
	case float64:
		return time.UnixMilli(int64(x)).UTC().Format(isoLayout)
	case int64:
		return time.UnixMilli(x).UTC().Format(isoLayout)
	}
	return ""
}
