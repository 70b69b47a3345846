package mocks

import (
	"context"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/queue"
	"github.com/stretchr/testify/mock"
)

// MockProvider records push and email deliveries. Program results with On.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SendPush(ctx context.Context, p queue.PushPayload) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProvider) SendEmail(ctx context.Context, p queue.EmailPayload) error {
	return m.Called(ctx, p).Error(0)
}
