package service

import (
	"context"

	"groupsentry/internal/connstate"
	"groupsentry/internal/models"
)

// IngestStore is the storage surface the message ingestor needs.
type IngestStore interface {
	GetMonitoredGroupByGroupID(ctx context.Context, groupID string) (*models.MonitoredGroup, error)
	InsertMessage(ctx context.Context, m *models.Message) error
}

// SessionStore is the storage surface the session state recorder needs.
type SessionStore interface {
	InsertQREvent(ctx context.Context, e *models.QREvent) error
	UpdateInstanceFlags(ctx context.Context, sessionKey string, flags connstate.Flags) (bool, error)
}

// MatchStore is the storage surface the alert matcher needs.
type MatchStore interface {
	ClaimUnprocessedMessages(ctx context.Context, claimID string, limit int) ([]models.Message, error)
	GetActiveMonitoredGroups(ctx context.Context, clientID int64, sessionKey string) ([]models.MonitoredGroup, error)
	GetMonitoredItems(ctx context.Context, monitoredGroupID int64) ([]models.MonitoredItem, error)
	InsertAlert(ctx context.Context, a *models.Alert) error
	MarkMessageProcessed(ctx context.Context, messageID int64) error
	ReleaseClaim(ctx context.Context, claimID string) error
}
