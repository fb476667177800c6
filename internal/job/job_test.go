package job

import (
	"Pibno/internal/pkg/logger"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) RefreshSnapshot(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRefresher) CleanupAvatars(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func withTrace(prefix string) any {
	return mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		id := logger.TraceID(ctx)
		return hasDeadline && len(id) > len(prefix) && id[:len(prefix)] == prefix
	})
}

func TestFeedSnapshotJob(t *testing.T) {
	m := new(MockRefresher)
	m.On("RefreshSnapshot", withTrace("job-snapshot-")).Return(12, nil).Once()
	m.On("RefreshSnapshot", mock.Anything).Return(0, errors.New("mongo down")).Once()

	j := NewFeedSnapshotJob(m)
	assert.NotPanics(t, j.Run)
	assert.NotPanics(t, j.Run)
	m.AssertNumberOfCalls(t, "RefreshSnapshot", 2)
}

func TestAvatarCleanupJob(t *testing.T) {
	m := new(MockRefresher)
	m.On("CleanupAvatars", withTrace("job-avatar-")).Return(3, nil).Once()

	NewAvatarCleanupJob(m).Run()
	m.AssertExpectations(t)
}
