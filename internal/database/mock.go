package database

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockCollabRepository struct {
	mock.Mock
}

func (m *MockCollabRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockCollabRepository) CreateRoom(ctx context.Context, roomId string) (Room, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockCollabRepository) GetRoom(ctx context.Context, roomId string) (Room, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockCollabRepository) SetCode(ctx context.Context, roomId, language, text string) error {
	args := m.Called(ctx, roomId, language, text)
	return args.Error(0)
}
func (m *MockCollabRepository) UpsertUser(ctx context.Context, roomId, username string) (Room, error) {
	args := m.Called(ctx, roomId, username)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockCollabRepository) TouchUser(ctx context.Context, roomId, username string) error {
	args := m.Called(ctx, roomId, username)
	return args.Error(0)
}
func (m *MockCollabRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (Account, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockCollabRepository) GetAccountById(ctx context.Context, id string) (Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockCollabRepository) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(Account), args.Error(1)
}
