package models

import "time"

// RefreshToken is a single-use opaque token exchanged for a new pair.
type RefreshToken struct {
	UserID  string
	Token   string
	Expires time.Time
}
