package database

import (
	"context"
	"errors"
)

var (
	ErrDuplicateRoom    = errors.New("room already exists")
	ErrRoomNotFound     = errors.New("room not found")
	ErrDuplicateAccount = errors.New("account already exists")
	ErrAccountNotFound  = errors.New("account not found")
)

type CollabRepository interface {
	Ping(ctx context.Context) error
	// CreateRoom persists a new empty room. It fails with ErrDuplicateRoom
	// if the room id is already taken.
	CreateRoom(ctx context.Context, roomId string) (Room, error)
	// GetRoom returns the room document for roomId. It never creates a
	// missing room.
	GetRoom(ctx context.Context, roomId string) (Room, error)
	// SetCode stores the latest text for one language slot and refreshes
	// the room's lastActive timestamp. Last writer wins.
	SetCode(ctx context.Context, roomId, language, text string) error
	// UpsertUser updates lastSeen for an existing roster entry, or appends
	// a new one. It returns the updated room document.
	UpsertUser(ctx context.Context, roomId, username string) (Room, error)
	// TouchUser updates lastSeen for an existing roster entry.
	TouchUser(ctx context.Context, roomId, username string) error
	CreateAccount(ctx context.Context, params CreateAccountParams) (Account, error)
	GetAccountById(ctx context.Context, id string) (Account, error)
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
}
