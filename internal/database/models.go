package database

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Room struct {
	Id         primitive.ObjectID `bson:"_id,omitempty"`
	RoomId     string             `bson:"roomId"`
	Users      []RoomUser         `bson:"users"`
	Code       map[string]string  `bson:"code"`
	CreatedAt  time.Time          `bson:"createdAt"`
	LastActive time.Time          `bson:"lastActive"`
}

type RoomUser struct {
	Username string    `bson:"username"`
	LastSeen time.Time `bson:"lastSeen"`
}

type Account struct {
	Id           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	EmailAddress string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
}
