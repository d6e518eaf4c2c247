package service

import (
	"context"
	"testing"

	"groupsentry/internal/metrics"
	"groupsentry/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestMatcher(store MatchStore) *Matcher {
	return NewMatcher(store, 100, metrics.NewRegistry(), testLogger())
}

func claimedMessage() models.Message {
	return models.Message{
		ID:       11,
		Session:  "7-5511999999999",
		ChatID:   "120363041234567890@g.us",
		SenderID: "5511999999999@c.us",
		Content:  "nothing interesting",
	}
}

func activeGroup() models.MonitoredGroup {
	return models.MonitoredGroup{
		ID:         4,
		InstanceID: 2,
		ClientID:   7,
		Session:    "7-5511999999999",
		GroupID:    "120363041234567890",
		Active:     true,
	}
}

func TestMatcher_MembershipRuleProducesAlert(t *testing.T) {
	store := new(mockMatchStore)
	matcher := newTestMatcher(store)

	msg := claimedMessage()
	item := models.MonitoredItem{ID: 9, MonitoredGroupID: 4, ClientID: 7, IsMember: true, Value: "5511999999999"}

	store.On("ClaimUnprocessedMessages", mock.Anything, mock.Anything, 100).
		Return([]models.Message{msg}, nil)
	store.On("GetActiveMonitoredGroups", mock.Anything, int64(7), "7-5511999999999").
		Return([]models.MonitoredGroup{activeGroup()}, nil)
	store.On("GetMonitoredItems", mock.Anything, int64(4)).
		Return([]models.MonitoredItem{item}, nil)
	store.On("InsertAlert", mock.Anything, mock.MatchedBy(func(a *models.Alert) bool {
		return a.ClientID == 7 && a.InstanceID == 2 && a.MonitoredGroupID == 4 &&
			a.MonitoredItemID == 9 && a.MessageID == 11
	})).Return(nil)
	store.On("MarkMessageProcessed", mock.Anything, int64(11)).Return(nil)

	stats, err := matcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Claimed)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Alerts)
	assert.Equal(t, 0, stats.Failed)
	store.AssertExpectations(t)
}

func TestMatcher_ContentRuleMatchesEmbeddedLink(t *testing.T) {
	store := new(mockMatchStore)
	matcher := newTestMatcher(store)

	msg := claimedMessage()
	msg.Content = "check this: https://evil.example/drugs-market"
	item := models.MonitoredItem{ID: 12, MonitoredGroupID: 4, ClientID: 7, IsMember: false, Value: "drugs"}

	store.On("ClaimUnprocessedMessages", mock.Anything, mock.Anything, 100).
		Return([]models.Message{msg}, nil)
	store.On("GetActiveMonitoredGroups", mock.Anything, int64(7), "7-5511999999999").
		Return([]models.MonitoredGroup{activeGroup()}, nil)
	store.On("GetMonitoredItems", mock.Anything, int64(4)).
		Return([]models.MonitoredItem{item}, nil)
	store.On("InsertAlert", mock.Anything, mock.MatchedBy(func(a *models.Alert) bool {
		return a.MonitoredItemID == 12 && a.MessageID == 11
	})).Return(nil)
	store.On("MarkMessageProcessed", mock.Anything, int64(11)).Return(nil)

	stats, err := matcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Alerts)
	store.AssertExpectations(t)
}

func TestMatcher_ContentRuleMatchesLinkPreviewFields(t *testing.T) {
	tests := []struct {
		name string
		set  func(*models.Message)
	}{
		{"url title", func(m *models.Message) { m.URLTitle = "Buy Drugs Online" }},
		{"url description", func(m *models.Message) { m.URLDesc = "cheap drugs shipped fast" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockMatchStore)
			matcher := newTestMatcher(store)

			msg := claimedMessage()
			tt.set(&msg)
			item := models.MonitoredItem{ID: 12, MonitoredGroupID: 4, ClientID: 7, Value: "drugs"}

			store.On("ClaimUnprocessedMessages", mock.Anything, mock.Anything, 100).
				Return([]models.Message{msg}, nil)
			store.On("GetActiveMonitoredGroups", mock.Anything, int64(7), "7-5511999999999").
				Return([]models.MonitoredGroup{activeGroup()}, nil)
			store.On("GetMonitoredItems", mock.Anything, int64(4)).
				Return([]models.MonitoredItem{item}, nil)
			store.On("InsertAlert", mock.Anything, mock.Anything).Return(nil)
			store.On("MarkMessageProcessed", mock.Anything, int64(11)).Return(nil)

			stats, err := matcher.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, stats.Alerts)
		})
	}
}

func TestMatcher_ProcessedWithoutAnyRules(t *testing.T) {
	store := new(mockMatchStore)
	matcher := newTestMatcher(store)

	store.On("ClaimUnprocessedMessages", mock.Anything, mock.Anything, 100).
		Return([]models.Message{claimedMessage()}, nil)
	store.On("GetActiveMonitoredGroups", mock.Anything, int64(7), "7-5511999999999").
		Return(nil, nil)
	store.On("MarkMessageProcessed", mock.Anything, int64(11)).Return(nil)

	stats, err := matcher.Run(context.Background())
	require.NoError(t, err)

	// Zero matching rules still commits the processed transition.
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 0, stats.Alerts)
	store.AssertNotCalled(t, "InsertAlert", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestMatcher_GroupPrefixMustMatch(t *testing.T) {
	store := new(mockMatchStore)
	matcher := newTestMatcher(store)

	group := activeGroup()
	group.GroupID = "999999999999"

	store.On("ClaimUnprocessedMessages", mock.Anything, mock.Anything, 100).
		Return([]models.Message{claimedMessage()}, nil)
	store.On("GetActiveMonitoredGroups", mock.Anything, int64(7), "7-5511999999999").
		Return([]models.MonitoredGroup{group}, nil)
	store.On("MarkMessageProcessed", mock.Anything, int64(11)).Return(nil)

	stats, err := matcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	store.AssertNotCalled(t, "GetMonitoredItems", mock.Anything, mock.Anything)
}

func TestMatcher_MembershipRuleRequiresExactSenderPrefix(t *testing.T) {
	store := new(mockMatchStore)
	matcher := newTestMatcher(store)

	msg := claimedMessage()
	msg.SenderID = "5511987654321@c.us"
	item := models.MonitoredItem{ID: 9, MonitoredGroupID: 4, IsMember: true, Value: "5511999999999"}

	store.On("ClaimUnprocessedMessages", mock.Anything, mock.Anything, 100).
		Return([]models.Message{msg}, nil)
	store.On("GetActiveMonitoredGroups", mock.Anything, int64(7), "7-5511999999999").
		Return([]models.MonitoredGroup{activeGroup()}, nil)
	store.On("GetMonitoredItems", mock.Anything, int64(4)).
		Return([]models.MonitoredItem{item}, nil)
	store.On("MarkMessageProcessed", mock.Anything, int64(11)).Return(nil)

	stats, err := matcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Alerts)
}

func TestMatcher_FailureIsIsolatedPerMessage(t *testing.T) {
	store := new(mockMatchStore)
	matcher := newTestMatcher(store)

	bad := claimedMessage()
	good := claimedMessage()
	good.ID = 12
	good.Session = "8-5511777777777"

	store.On("ClaimUnprocessedMessages", mock.Anything, mock.Anything, 100).
		Return([]models.Message{bad, good}, nil)
	// First message hits a storage failure during rule resolution.
	store.On("GetActiveMonitoredGroups", mock.Anything, int64(7), "7-5511999999999").
		Return(nil, assert.AnError)
	store.On("GetActiveMonitoredGroups", mock.Anything, int64(8), "8-5511777777777").
		Return(nil, nil)
	store.On("MarkMessageProcessed", mock.Anything, int64(12)).Return(nil)
	store.On("ReleaseClaim", mock.Anything, mock.Anything).Return(nil)

	stats, err := matcher.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Claimed)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	// The failed message is not marked processed; its claim is released.
	store.AssertNotCalled(t, "MarkMessageProcessed", mock.Anything, int64(11))
	store.AssertCalled(t, "ReleaseClaim", mock.Anything, mock.Anything)
}

func TestMatcher_UnparsableSessionOwnsNoRules(t *testing.T) {
	store := new(mockMatchStore)
	matcher := newTestMatcher(store)

	msg := claimedMessage()
	msg.Session = "not-a-client-id"

	store.On("ClaimUnprocessedMessages", mock.Anything, mock.Anything, 100).
		Return([]models.Message{msg}, nil)
	store.On("MarkMessageProcessed", mock.Anything, int64(11)).Return(nil)

	stats, err := matcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	store.AssertNotCalled(t, "GetActiveMonitoredGroups", mock.Anything, mock.Anything, mock.Anything)
}

func TestMatcher_EmptyBatch(t *testing.T) {
	store := new(mockMatchStore)
	matcher := newTestMatcher(store)

	store.On("ClaimUnprocessedMessages", mock.Anything, mock.Anything, 100).
		Return(nil, nil)

	stats, err := matcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RunStats{}, stats)
}

func TestMatcher_MultipleItemsMultipleAlerts(t *testing.T) {
	store := new(mockMatchStore)
	matcher := newTestMatcher(store)

	msg := claimedMessage()
	msg.Content = "selling guns and drugs"
	items := []models.MonitoredItem{
		{ID: 1, MonitoredGroupID: 4, Value: "guns"},
		{ID: 2, MonitoredGroupID: 4, Value: "drugs"},
		{ID: 3, MonitoredGroupID: 4, Value: "counterfeit"},
	}

	store.On("ClaimUnprocessedMessages", mock.Anything, mock.Anything, 100).
		Return([]models.Message{msg}, nil)
	store.On("GetActiveMonitoredGroups", mock.Anything, int64(7), "7-5511999999999").
		Return([]models.MonitoredGroup{activeGroup()}, nil)
	store.On("GetMonitoredItems", mock.Anything, int64(4)).
		Return(items, nil)
	store.On("InsertAlert", mock.Anything, mock.Anything).Return(nil)
	store.On("MarkMessageProcessed", mock.Anything, int64(11)).Return(nil)

	stats, err := matcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Alerts)
	assert.Equal(t, 1, stats.Processed)
	store.AssertNumberOfCalls(t, "InsertAlert", 2)
}
