package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"groupsentry/internal/metrics"
	"groupsentry/internal/models"

	"github.com/sirupsen/logrus"
)

// allowedContentTypes gates which message types get a structured Message
// row. Everything else still lands in the fallback sink so nothing is
// dropped outright.
var allowedContentTypes = map[string]bool{
	"sticker": true,
	"text":    true,
	"image":   true,
	"link":    true,
}

// Ingestor normalizes inbound message events into canonical Message
// records. Only messages from monitored group chats are persisted.
type Ingestor struct {
	store   IngestStore
	sinks   *AuditSinks
	metrics *metrics.Registry
	logger  *logrus.Logger
}

func NewIngestor(store IngestStore, sinks *AuditSinks, registry *metrics.Registry, logger *logrus.Logger) *Ingestor {
	return &Ingestor{store: store, sinks: sinks, metrics: registry, logger: logger}
}

// Ingest processes one SEND_MESSAGE or RECEIVE_MESSAGE payload. Both
// directions carry the same shape and are treated identically.
func (i *Ingestor) Ingest(ctx context.Context, raw []byte) error {
	var event models.MessageEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("invalid message payload: %w", err)
	}

	// Monitoring targets group chats exclusively; direct messages are
	// rejected before anything touches storage.
	if !event.IsGroupMsg {
		i.metrics.IncrementCounter("ingest_rejected_total", map[string]string{"reason": "not_group"})
		return fmt.Errorf("missing or false 'isGroupMsg' in message payload")
	}

	groupID := prefixBefore(event.Data.ChatID, '@')
	group, err := i.store.GetMonitoredGroupByGroupID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to resolve monitored group: %w", err)
	}
	if group == nil {
		i.metrics.IncrementCounter("ingest_rejected_total", map[string]string{"reason": "unmonitored_group"})
		return fmt.Errorf("group %q is not monitored", groupID)
	}

	// Every matched group message is audited regardless of what happens
	// downstream.
	if err := i.sinks.Messages.Append(raw); err != nil {
		i.logger.WithError(err).Warn("Failed to append message to audit sink")
	}

	if event.Type != "" && !allowedContentTypes[event.Type] {
		if err := i.sinks.FallbackTypes.Append(raw); err != nil {
			return fmt.Errorf("failed to store fallback payload: %w", err)
		}
		i.metrics.IncrementCounter("ingest_fallback_total", map[string]string{"type": event.Type})
		i.logger.WithFields(logrus.Fields{
			"type":    event.Type,
			"session": event.Session,
		}).Debug("Message type outside allow-list, stored in fallback sink")
		return nil
	}

	msg := flattenMessageEvent(&event)
	if err := i.store.InsertMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}

	i.metrics.IncrementCounter("ingest_stored_total", map[string]string{"type": event.Type})
	i.logger.WithFields(logrus.Fields{
		"messageId": msg.ID,
		"session":   msg.Session,
		"group":     groupID,
		"type":      msg.Type,
	}).Info("Message ingested")

	return nil
}

// flattenMessageEvent maps the nested gateway payload onto the canonical
// Message record.
func flattenMessageEvent(event *models.MessageEvent) *models.Message {
	content := event.Content
	if content == "" {
		content = event.URL
	}

	timestamp := event.Timestamp
	if timestamp == 0 {
		timestamp = event.Data.T
	}

	return &models.Message{
		EventID:     event.ID,
		Type:        event.Type,
		MimeType:    event.MimeType,
		IsGroupMsg:  event.IsGroupMsg,
		FromMe:      event.FromMe,
		Session:     event.Session,
		Status:      event.Status,
		To:          event.To,
		From:        event.From,
		Timestamp:   timestamp,
		Datetime:    normalizeDatetime(event.Datetime),
		Caption:     event.Caption,
		Base64:      event.Base64,
		Content:     content,
		URLTitle:    event.Title,
		URLDesc:     event.Description,
		QuotedMsg:   event.QuotedMsg,
		QuotedMsgID: event.QuotedMsgID,

		DeprecatedMms3URL: event.Data.DeprecatedMms3URL,
		DirectPath:        event.Data.DirectPath,
		Filehash:          event.Data.Filehash,
		EncFilehash:       event.Data.EncFilehash,
		MediaKey:          event.Data.MediaKey,
		MediaKeyTimestamp: event.Data.MediaKeyTimestamp,
		ChatID:            event.Data.ChatID,

		SenderID:           event.Data.Sender.ID,
		SenderName:         event.Data.Sender.Name,
		SenderShortName:    event.Data.Sender.ShortName,
		SenderPushName:     event.Data.Sender.PushName,
		SenderVerifiedName: event.Data.Sender.VerifiedName,
		SenderType:         event.Data.Sender.Type,
		SenderIsBusiness:   event.Data.Sender.IsBusiness,
		SenderIsEnterprise: event.Data.Sender.IsEnterprise,
		SenderIsSmb:        event.Data.Sender.IsSmb,

		MediaType:              event.Data.MediaData.Type,
		MediaStage:             event.Data.MediaData.MediaStage,
		AnimationDuration:      event.Data.MediaData.AnimationDuration,
		AnimatedAsNewMsg:       event.Data.MediaData.AnimatedAsNewMsg,
		IsViewOnce:             event.Data.MediaData.IsViewOnce,
		SwStreamingSupported:   event.Data.MediaData.SwStreamingSupported,
		ListeningToSwSupport:   event.Data.MediaData.ListeningToSwSupport,
		IsVcardOverMmsDocument: event.Data.MediaData.IsVcardOverMmsDocument,
	}
}

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// normalizeDatetime reformats the gateway datetime into the storage layout
// when it parses; unrecognized values survive verbatim rather than being
// discarded.
func normalizeDatetime(value string) string {
	if value == "" {
		return ""
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02 15:04:05")
		}
	}
	return value
}

// prefixBefore returns s truncated at the first occurrence of sep, or s
// unchanged when sep is absent.
func prefixBefore(s string, sep byte) string {
	if idx := strings.IndexByte(s, sep); idx >= 0 {
		return s[:idx]
	}
	return s
}
