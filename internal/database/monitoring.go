package database

import (
	"context"
	"database/sql"
	"fmt"

	"groupsentry/internal/connstate"
	"groupsentry/internal/models"
)

// UpdateInstanceFlags writes the connection flag triple for the instance
// owning sessionKey. A missing instance row is not an error: gateway
// status events can arrive for sessions the administrative layer has
// already removed, and dropping those updates is the intended behavior.
// The returned bool reports whether a row was updated.
func (d *Database) UpdateInstanceFlags(ctx context.Context, sessionKey string, flags connstate.Flags) (bool, error) {
	result, err := d.db.ExecContext(ctx, updateInstanceFlagsQuery,
		flags.PhoneConnected, flags.WaitingQRCode, flags.QRReadError, sessionKey)
	if err != nil {
		return false, fmt.Errorf("failed to update instance flags: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// GetInstance returns the instance for sessionKey, or nil when absent.
func (d *Database) GetInstance(ctx context.Context, sessionKey string) (*models.Instance, error) {
	var inst models.Instance
	err := d.db.QueryRowContext(ctx, selectInstanceQuery, sessionKey).Scan(
		&inst.ID, &inst.ClientID, &inst.SessionKey, &inst.PhoneConnected,
		&inst.WaitingQRCode, &inst.QRReadError, &inst.VerifiedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return &inst, nil
}

// InsertQREvent stores one QR-code webhook delivery.
func (d *Database) InsertQREvent(ctx context.Context, e *models.QREvent) error {
	result, err := d.db.ExecContext(ctx, insertQREventQuery,
		e.Attempts, e.Result, e.Session, e.State, e.Status, e.QRCode, e.URLCode)
	if err != nil {
		return fmt.Errorf("failed to insert qr event: %w", err)
	}

	e.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get qr event id: %w", err)
	}

	return nil
}

// GetLatestQREvent returns the most recent stored QR event for a session,
// or nil when none exists. Read by the administrative layer to render the
// pairing QR code.
func (d *Database) GetLatestQREvent(ctx context.Context, sessionKey string) (*models.QREvent, error) {
	var e models.QREvent
	err := d.db.QueryRowContext(ctx, selectLatestQREventQuery, sessionKey).Scan(
		&e.ID, &e.Attempts, &e.Result, &e.Session, &e.State, &e.Status,
		&e.QRCode, &e.URLCode, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest qr event: %w", err)
	}
	return &e, nil
}

// GetMonitoredGroupByGroupID returns the active monitored group with the
// given external chat-group id, or nil when the group is not monitored.
func (d *Database) GetMonitoredGroupByGroupID(ctx context.Context, groupID string) (*models.MonitoredGroup, error) {
	var g models.MonitoredGroup
	var investigationID sql.NullInt64
	err := d.db.QueryRowContext(ctx, selectMonitoredGroupByGroupIDQuery, groupID).Scan(
		&g.ID, &g.InstanceID, &g.ClientID, &investigationID, &g.Session,
		&g.GroupID, &g.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monitored group: %w", err)
	}
	g.InvestigationID = investigationID.Int64
	return &g, nil
}

// GetActiveMonitoredGroups returns all active monitored groups for one
// client and session.
func (d *Database) GetActiveMonitoredGroups(ctx context.Context, clientID int64, sessionKey string) ([]models.MonitoredGroup, error) {
	rows, err := d.db.QueryContext(ctx, selectActiveMonitoredGroupsQuery, clientID, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query monitored groups: %w", err)
	}
	defer rows.Close()

	var groups []models.MonitoredGroup
	for rows.Next() {
		var g models.MonitoredGroup
		var investigationID sql.NullInt64
		if err := rows.Scan(&g.ID, &g.InstanceID, &g.ClientID, &investigationID,
			&g.Session, &g.GroupID, &g.Active); err != nil {
			return nil, fmt.Errorf("failed to scan monitored group: %w", err)
		}
		g.InvestigationID = investigationID.Int64
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monitored groups: %w", err)
	}

	return groups, nil
}

// GetMonitoredItems returns the active rules attached to a monitored group.
func (d *Database) GetMonitoredItems(ctx context.Context, monitoredGroupID int64) ([]models.MonitoredItem, error) {
	rows, err := d.db.QueryContext(ctx, selectMonitoredItemsQuery, monitoredGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query monitored items: %w", err)
	}
	defer rows.Close()

	var items []models.MonitoredItem
	for rows.Next() {
		var item models.MonitoredItem
		if err := rows.Scan(&item.ID, &item.MonitoredGroupID, &item.ClientID,
			&item.IsMember, &item.Value, &item.Active); err != nil {
			return nil, fmt.Errorf("failed to scan monitored item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monitored items: %w", err)
	}

	return items, nil
}

// InsertAlert stores one rule match. Alerts are append-only.
func (d *Database) InsertAlert(ctx context.Context, a *models.Alert) error {
	result, err := d.db.ExecContext(ctx, insertAlertQuery,
		a.ClientID, a.InstanceID, a.MonitoredGroupID, a.MonitoredItemID, a.MessageID)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	a.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get alert id: %w", err)
	}

	return nil
}

// GetAlerts returns stored alerts for one client, newest first, for the
// external reporting consumers.
func (d *Database) GetAlerts(ctx context.Context, clientID int64, limit, offset int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.db.QueryContext(ctx, selectAlertsQuery, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.ClientID, &a.InstanceID,
			&a.MonitoredGroupID, &a.MonitoredItemID, &a.MessageID,
			&a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}
