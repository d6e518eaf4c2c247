package service

import (
	"context"
	"encoding/json"
	"fmt"

	"groupsentry/internal/connstate"
	"groupsentry/internal/models"

	"github.com/sirupsen/logrus"
)

// SessionRecorder persists connection and QR-code lifecycle events from
// the webhook stream onto the owning Instance row.
type SessionRecorder struct {
	store  SessionStore
	logger *logrus.Logger
}

func NewSessionRecorder(store SessionStore, logger *logrus.Logger) *SessionRecorder {
	return &SessionRecorder{store: store, logger: logger}
}

// RecordQRCode handles a QRCODE event: the event row is stored and the
// owning instance drops back to the fully disconnected flag state, since a
// pending QR code invalidates whatever connection state was recorded
// before. All seven payload fields are required.
func (r *SessionRecorder) RecordQRCode(ctx context.Context, raw []byte) error {
	var event models.QRCodeEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("invalid QRCODE payload: %w", err)
	}
	if !event.Complete() {
		return fmt.Errorf("missing required fields in QRCODE payload")
	}

	qr := &models.QREvent{
		Attempts: *event.Attempts,
		Result:   *event.Result,
		Session:  *event.Session,
		State:    *event.State,
		Status:   *event.Status,
		QRCode:   *event.QRCode,
		URLCode:  *event.URLCode,
	}
	if err := r.store.InsertQREvent(ctx, qr); err != nil {
		return fmt.Errorf("failed to store QRCODE event: %w", err)
	}

	updated, err := r.store.UpdateInstanceFlags(ctx, qr.Session, connstate.Disconnected.Flags())
	if err != nil {
		r.logger.WithError(err).WithField("session", qr.Session).
			Warn("Failed to reset instance flags after QR event")
	} else if !updated {
		r.logger.WithField("session", qr.Session).
			Debug("QR event for session without instance row")
	}

	return nil
}

// RecordConnectionStatus handles a STATUS_CONNECT event by mapping the
// gateway lifecycle string through the connection state machine. A missing
// instance row is a no-op: status events may trail the removal of a
// session by the administrative layer.
func (r *SessionRecorder) RecordConnectionStatus(ctx context.Context, raw []byte) error {
	var event models.ConnectionStatusEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("invalid STATUS_CONNECT payload: %w", err)
	}

	state, err := connstate.FromGatewayState(event.State)
	if err != nil {
		return fmt.Errorf("invalid state in STATUS_CONNECT payload: %w", err)
	}

	updated, err := r.store.UpdateInstanceFlags(ctx, event.Session, state.Flags())
	if err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}
	if !updated {
		r.logger.WithFields(logrus.Fields{
			"session": event.Session,
			"state":   state.String(),
		}).Debug("Status event for session without instance row")
	}

	return nil
}
