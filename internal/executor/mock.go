package executor

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, language, sourceCode string) (string, error) {
	args := m.Called(ctx, language, sourceCode)
	return args.String(0), args.Error(1)
}
