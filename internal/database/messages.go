package database

import (
	"context"
	"fmt"
	"strings"

	"groupsentry/internal/models"
)

// InsertMessage persists one canonical message record. Content, link
// preview text and sender identity are encrypted when field encryption is
// enabled.
func (d *Database) InsertMessage(ctx context.Context, m *models.Message) error {
	content, err := d.encryptor.encrypt(m.Content)
	if err != nil {
		return fmt.Errorf("failed to encrypt content: %w", err)
	}
	urlTitle, err := d.encryptor.encrypt(m.URLTitle)
	if err != nil {
		return fmt.Errorf("failed to encrypt url title: %w", err)
	}
	urlDesc, err := d.encryptor.encrypt(m.URLDesc)
	if err != nil {
		return fmt.Errorf("failed to encrypt url description: %w", err)
	}
	senderID, err := d.encryptor.encrypt(m.SenderID)
	if err != nil {
		return fmt.Errorf("failed to encrypt sender id: %w", err)
	}

	result, err := d.db.ExecContext(ctx, insertMessageQuery,
		m.EventID, m.Type, m.MimeType, m.IsGroupMsg, m.FromMe, m.Session,
		m.Status, m.To, m.From, m.Timestamp, m.Datetime, m.Caption, m.Base64,
		content, urlTitle, urlDesc, m.QuotedMsg, m.QuotedMsgID,
		m.DeprecatedMms3URL, m.DirectPath, m.Filehash, m.EncFilehash,
		m.MediaKey, m.MediaKeyTimestamp, m.ChatID, senderID, m.SenderName,
		m.SenderShortName, m.SenderPushName, m.SenderVerifiedName,
		m.SenderType, m.SenderIsBusiness, m.SenderIsEnterprise, m.SenderIsSmb,
		m.MediaType, m.MediaStage, m.AnimationDuration, m.AnimatedAsNewMsg,
		m.IsViewOnce, m.SwStreamingSupported, m.ListeningToSwSupport,
		m.IsVcardOverMmsDocument,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	m.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get message id: %w", err)
	}

	return nil
}

// ClaimUnprocessedMessages atomically tags up to limit unprocessed,
// unclaimed messages with claimID and returns them. Concurrent matcher
// runs claim disjoint sets, so a message is never evaluated twice.
func (d *Database) ClaimUnprocessedMessages(ctx context.Context, claimID string, limit int) ([]models.Message, error) {
	if _, err := d.db.ExecContext(ctx, claimMessagesQuery, claimID, limit); err != nil {
		return nil, fmt.Errorf("failed to claim messages: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, selectClaimedMessagesQuery, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to select claimed messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		var senderID, content, urlTitle, urlDesc string
		if err := rows.Scan(&m.ID, &m.Session, &m.ChatID, &senderID,
			&content, &urlTitle, &urlDesc); err != nil {
			return nil, fmt.Errorf("failed to scan claimed message: %w", err)
		}

		if m.SenderID, err = d.encryptor.decrypt(senderID); err != nil {
			return nil, fmt.Errorf("failed to decrypt sender id: %w", err)
		}
		if m.Content, err = d.encryptor.decrypt(content); err != nil {
			return nil, fmt.Errorf("failed to decrypt content: %w", err)
		}
		if m.URLTitle, err = d.encryptor.decrypt(urlTitle); err != nil {
			return nil, fmt.Errorf("failed to decrypt url title: %w", err)
		}
		if m.URLDesc, err = d.encryptor.decrypt(urlDesc); err != nil {
			return nil, fmt.Errorf("failed to decrypt url description: %w", err)
		}

		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claimed messages: %w", err)
	}

	return messages, nil
}

// MarkMessageProcessed flips the processed flag and clears the claim. The
// transition is one-way; nothing in the schema or the code path reverts it.
func (d *Database) MarkMessageProcessed(ctx context.Context, messageID int64) error {
	if _, err := d.db.ExecContext(ctx, markMessageProcessedQuery, messageID); err != nil {
		return fmt.Errorf("failed to mark message processed: %w", err)
	}
	return nil
}

// ReleaseClaim clears claimID from any still-unprocessed messages so a
// later run can pick them up. Called when a matcher run fails partway.
func (d *Database) ReleaseClaim(ctx context.Context, claimID string) error {
	if _, err := d.db.ExecContext(ctx, releaseClaimQuery, claimID); err != nil {
		return fmt.Errorf("failed to release claim: %w", err)
	}
	return nil
}

// HistoryFilter narrows GetMessageHistory results. Zero values mean no
// filtering on that dimension.
type HistoryFilter struct {
	GroupID string
	Since   string
	Until   string
	Limit   int
	Offset  int
}

// GetMessageHistory returns stored messages for one session, newest first,
// for the external reporting consumers.
func (d *Database) GetMessageHistory(ctx context.Context, sessionKey string, filter HistoryFilter) ([]models.Message, error) {
	query := strings.TrimRight(selectMessageHistoryBaseQuery, "\n\t ")
	args := []interface{}{sessionKey}

	if filter.GroupID != "" {
		query += " AND (data_chat_id = ? OR data_chat_id LIKE ? || '@%')"
		args = append(args, filter.GroupID, filter.GroupID)
	}
	if filter.Since != "" {
		query += " AND datetime >= ?"
		args = append(args, filter.Since)
	}
	if filter.Until != "" {
		query += " AND datetime <= ?"
		args = append(args, filter.Until)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query message history: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		var senderID, content, urlTitle, urlDesc string
		if err := rows.Scan(&m.ID, &m.EventID, &m.Type, &m.Session, &m.ChatID,
			&senderID, &m.SenderName, &content, &urlTitle, &urlDesc,
			&m.Timestamp, &m.Datetime, &m.Processed, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message history row: %w", err)
		}

		if m.SenderID, err = d.encryptor.decrypt(senderID); err != nil {
			return nil, fmt.Errorf("failed to decrypt sender id: %w", err)
		}
		if m.Content, err = d.encryptor.decrypt(content); err != nil {
			return nil, fmt.Errorf("failed to decrypt content: %w", err)
		}
		if m.URLTitle, err = d.encryptor.decrypt(urlTitle); err != nil {
			return nil, fmt.Errorf("failed to decrypt url title: %w", err)
		}
		if m.URLDesc, err = d.encryptor.decrypt(urlDesc); err != nil {
			return nil, fmt.Errorf("failed to decrypt url description: %w", err)
		}

		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message history: %w", err)
	}

	return messages, nil
}
