package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

type MongoCollabRepository struct {
	client   *mongo.Client
	rooms    *mongo.Collection
	accounts *mongo.Collection
}

func NewMongoCollabRepository(uri, dbName string) (*MongoCollabRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	repo := &MongoCollabRepository{
		client:   client,
		rooms:    db.Collection("rooms"),
		accounts: db.Collection("accounts"),
	}

	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return repo, nil
}

// ensureIndexes enforces roomId and email uniqueness at the store level.
func (r *MongoCollabRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.rooms.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "roomId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = r.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoCollabRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoCollabRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *MongoCollabRepository) CreateRoom(ctx context.Context, roomId string) (Room, error) {
	now := time.Now().UTC()
	room := Room{
		RoomId:     roomId,
		Users:      []RoomUser{},
		Code:       map[string]string{},
		CreatedAt:  now,
		LastActive: now,
	}

	res, err := r.rooms.InsertOne(ctx, room)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Room{}, ErrDuplicateRoom
		}
		return Room{}, err
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		room.Id = id
	}
	return room, nil
}

func (r *MongoCollabRepository) GetRoom(ctx context.Context, roomId string) (Room, error) {
	var room Room
	err := r.rooms.FindOne(ctx, bson.M{"roomId": roomId}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Room{}, ErrRoomNotFound
	}
	return room, err
}

func (r *MongoCollabRepository) SetCode(ctx context.Context, roomId, language, text string) error {
	res, err := r.rooms.UpdateOne(ctx,
		bson.M{"roomId": roomId},
		bson.M{"$set": bson.M{
			"code." + language: text,
			"lastActive":       time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (r *MongoCollabRepository) UpsertUser(ctx context.Context, roomId, username string) (Room, error) {
	now := time.Now().UTC()

	res, err := r.rooms.UpdateOne(ctx,
		bson.M{"roomId": roomId, "users.username": username},
		bson.M{"$set": bson.M{
			"users.$.lastSeen": now,
			"lastActive":       now,
		}},
	)
	if err != nil {
		return Room{}, err
	}

	if res.MatchedCount == 0 {
		// no roster entry under that name yet; the filter guards against a
		// concurrent append of the same name
		_, err = r.rooms.UpdateOne(ctx,
			bson.M{"roomId": roomId, "users.username": bson.M{"$ne": username}},
			bson.M{
				"$push": bson.M{"users": RoomUser{Username: username, LastSeen: now}},
				"$set":  bson.M{"lastActive": now},
			},
		)
		if err != nil {
			return Room{}, err
		}
	}

	return r.GetRoom(ctx, roomId)
}

func (r *MongoCollabRepository) TouchUser(ctx context.Context, roomId, username string) error {
	res, err := r.rooms.UpdateOne(ctx,
		bson.M{"roomId": roomId, "users.username": username},
		bson.M{"$set": bson.M{"users.$.lastSeen": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (r *MongoCollabRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (Account, error) {
	now := time.Now().UTC()
	account := Account{
		Username:     params.Username,
		EmailAddress: params.EmailAddress,
		PasswordHash: params.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := r.accounts.InsertOne(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Account{}, ErrDuplicateAccount
		}
		return Account{}, err
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		account.Id = id
	}
	return account, nil
}

func (r *MongoCollabRepository) GetAccountById(ctx context.Context, id string) (Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Account{}, ErrAccountNotFound
	}

	var account Account
	err = r.accounts.FindOne(ctx, bson.M{"_id": oid}).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Account{}, ErrAccountNotFound
	}
	return account, err
}

func (r *MongoCollabRepository) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	var account Account
	err := r.accounts.FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Account{}, ErrAccountNotFound
	}
	return account, err
}
