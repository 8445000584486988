package model

import "strings"

// Profile is the short public profile of a vehicle owner.
type Profile struct {
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	DisplayName  string `json:"displayName"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// NormalizeProfile builds a Profile, filling the username and display name
// fallbacks. It returns nil when neither name is set.
func NormalizeProfile(userID, username, displayName, image string) *Profile {
	if userID == "" {
		return nil
	}
	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)
	if username == "" && displayName == "" {
		return nil
	}

	if displayName == "" {
		displayName = username
	}
	if username == "" {
		short := []rune(userID)
		if len(short) > 6 {
			short = short[:6]
		}
		username = "user-" + string(short)
	}
	if strings.TrimSpace(image) == "" {
		image = ""
	}
	return &Profile{
		UserID:       userID,
		Username:     username,
		DisplayName:  displayName,
		ProfileImage: image,
	}
}
