package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, data any) error {
	return m.Called(ctx, subject, data).Error(0)
}

func (m *MockPublisher) Close() error { return nil }

func TestNewWithoutURLIsNop(t *testing.T) {
	p, err := New("")
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), UserRegistered, UserEvent{UserID: "u1"}))
	assert.NoError(t, p.Close())
}

func TestPublishBestEffortSwallowsErrors(t *testing.T) {
	p := new(MockPublisher)
	p.On("Publish", mock.Anything, UserDeleted, mock.Anything).Return(errors.New("nats down"))

	assert.NotPanics(t, func() {
		PublishBestEffort(context.Background(), p, UserDeleted, UserEvent{UserID: "u1"})
	})
	p.AssertExpectations(t)
}
