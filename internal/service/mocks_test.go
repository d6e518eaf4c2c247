package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"groupsentry/internal/connstate"
	"groupsentry/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockIngestStore struct {
	mock.Mock
}

func (m *mockIngestStore) GetMonitoredGroupByGroupID(ctx context.Context, groupID string) (*models.MonitoredGroup, error) {
	args := m.Called(ctx, groupID)
	if g := args.Get(0); g != nil {
		return g.(*models.MonitoredGroup), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIngestStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) InsertQREvent(ctx context.Context, e *models.QREvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockSessionStore) UpdateInstanceFlags(ctx context.Context, sessionKey string, flags connstate.Flags) (bool, error) {
	args := m.Called(ctx, sessionKey, flags)
	return args.Bool(0), args.Error(1)
}

type mockMatchStore struct {
	mock.Mock
}

func (m *mockMatchStore) ClaimUnprocessedMessages(ctx context.Context, claimID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, claimID, limit)
	if msgs := args.Get(0); msgs != nil {
		return msgs.([]models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMatchStore) GetActiveMonitoredGroups(ctx context.Context, clientID int64, sessionKey string) ([]models.MonitoredGroup, error) {
	args := m.Called(ctx, clientID, sessionKey)
	if groups := args.Get(0); groups != nil {
		return groups.([]models.MonitoredGroup), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMatchStore) GetMonitoredItems(ctx context.Context, monitoredGroupID int64) ([]models.MonitoredItem, error) {
	args := m.Called(ctx, monitoredGroupID)
	if items := args.Get(0); items != nil {
		return items.([]models.MonitoredItem), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMatchStore) InsertAlert(ctx context.Context, a *models.Alert) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockMatchStore) MarkMessageProcessed(ctx context.Context, messageID int64) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *mockMatchStore) ReleaseClaim(ctx context.Context, claimID string) error {
	args := m.Called(ctx, claimID)
	return args.Error(0)
}

// newTestSinks returns audit sinks backed by a temp directory.
func newTestSinks(t *testing.T) (*AuditSinks, string) {
	t.Helper()

	dir := t.TempDir()
	sinks := NewAuditSinks(models.AuditConfig{
		Dir:        dir,
		MaxSizeMB:  10,
		MaxBackups: 1,
		MaxAgeDays: 1,
	})
	t.Cleanup(func() {
		require.NoError(t, sinks.Close())
	})
	return sinks, dir
}

// sinkLines returns the non-empty lines currently in a sink file; a
// missing file counts as zero lines.
func sinkLines(t *testing.T, dir, name string) []string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
