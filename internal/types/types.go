package types

import (
	"time"
)

type Account struct {
	Id           string    `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// RoomUser is one entry in a room's persisted roster. Entries are appended on
// first join under a name and updated afterwards, never removed.
type RoomUser struct {
	Username string    `json:"username"`
	LastSeen time.Time `json:"last_seen"`
}

// ActiveUser is one live connection in a room.
type ActiveUser struct {
	ConnectionId string `json:"id"`
	Username     string `json:"username"`
}

type Room struct {
	RoomId     string            `json:"room_id"`
	Users      []RoomUser        `json:"users"`
	Code       map[string]string `json:"code,omitempty"`
	CreatedAt  time.Time         `json:"created_at,omitempty"`
	LastActive time.Time         `json:"last_active,omitempty"`
}
