package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"groupsentry/internal/metrics"
	"groupsentry/internal/models"
	"groupsentry/internal/textanalyzer"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Matcher is the batch engine that correlates stored messages against the
// monitoring rules and produces alerts. It is invoked by an external
// scheduler; each run claims its own batch, so overlapping invocations
// process disjoint messages.
type Matcher struct {
	store     MatchStore
	batchSize int
	metrics   *metrics.Registry
	logger    *logrus.Logger
}

func NewMatcher(store MatchStore, batchSize int, registry *metrics.Registry, logger *logrus.Logger) *Matcher {
	return &Matcher{store: store, batchSize: batchSize, metrics: registry, logger: logger}
}

// RunStats summarizes one matcher run.
type RunStats struct {
	Claimed   int `json:"claimed"`
	Processed int `json:"processed"`
	Alerts    int `json:"alerts"`
	Failed    int `json:"failed"`
}

// Run executes one matching pass: claim unprocessed messages, evaluate
// every applicable rule per message, insert alerts for each match, then
// commit the processed transition. A failure on one message is logged and
// skipped; its claim is released at the end of the run so a later pass can
// retry it.
func (m *Matcher) Run(ctx context.Context) (RunStats, error) {
	ctx, span := otel.Tracer("groupsentry/matcher").Start(ctx, "matcher.run")
	defer span.End()

	start := time.Now()
	claimID := uuid.NewString()
	runLogger := m.logger.WithField("claimId", claimID)

	messages, err := m.store.ClaimUnprocessedMessages(ctx, claimID, m.batchSize)
	if err != nil {
		return RunStats{}, fmt.Errorf("failed to claim messages: %w", err)
	}

	stats := RunStats{Claimed: len(messages)}
	span.SetAttributes(attribute.Int("matcher.claimed", stats.Claimed))

	if len(messages) == 0 {
		runLogger.Debug("No unprocessed messages")
		return stats, nil
	}

	for idx := range messages {
		msg := &messages[idx]
		msgLogger := runLogger.WithField("messageId", msg.ID)

		alerts, err := m.evaluate(ctx, msg)
		if err != nil {
			msgLogger.WithError(err).Error("Failed to evaluate message, skipping")
			stats.Failed++
			continue
		}

		for i := range alerts {
			if err := m.store.InsertAlert(ctx, &alerts[i]); err != nil {
				msgLogger.WithError(err).WithField("monitoredItemId", alerts[i].MonitoredItemID).
					Error("Failed to insert alert")
				continue
			}
			stats.Alerts++
			msgLogger.WithFields(logrus.Fields{
				"alertId":          alerts[i].ID,
				"clientId":         alerts[i].ClientID,
				"monitoredGroupId": alerts[i].MonitoredGroupID,
				"monitoredItemId":  alerts[i].MonitoredItemID,
			}).Info("Alert created")
		}

		// The processed transition is unconditional once evaluation
		// completed: zero, one or many matches all commit exactly once.
		if err := m.store.MarkMessageProcessed(ctx, msg.ID); err != nil {
			msgLogger.WithError(err).Error("Failed to mark message processed")
			stats.Failed++
			continue
		}
		stats.Processed++
	}

	if stats.Failed > 0 {
		if err := m.store.ReleaseClaim(ctx, claimID); err != nil {
			runLogger.WithError(err).Error("Failed to release claim on skipped messages")
		}
	}

	m.metrics.RecordTimer("matcher_run", time.Since(start))
	m.metrics.IncrementCounter("matcher_runs_total", nil)

	runLogger.WithFields(logrus.Fields{
		"claimed":   stats.Claimed,
		"processed": stats.Processed,
		"alerts":    stats.Alerts,
		"failed":    stats.Failed,
	}).Info("Matcher run completed")

	return stats, nil
}

// evaluate resolves the monitoring rules applicable to one message and
// returns the alerts to create. Storage failures abort only this message.
func (m *Matcher) evaluate(ctx context.Context, msg *models.Message) ([]models.Alert, error) {
	// Session keys are "{clientId}-{phoneNumber}". A session that does not
	// follow the format owns no monitoring rules; the message still
	// completes its processed transition.
	clientID, err := strconv.ParseInt(prefixBefore(msg.Session, '-'), 10, 64)
	if err != nil {
		m.logger.WithField("session", msg.Session).
			Warn("Unparsable client id in session key, message has no applicable rules")
		return nil, nil
	}

	groups, err := m.store.GetActiveMonitoredGroups(ctx, clientID, msg.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monitored groups: %w", err)
	}

	chatPrefix := prefixBefore(msg.ChatID, '@')

	var alerts []models.Alert
	for _, group := range groups {
		if group.GroupID != chatPrefix {
			continue
		}

		items, err := m.store.GetMonitoredItems(ctx, group.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch monitored items: %w", err)
		}

		for _, item := range items {
			if !m.itemMatches(&item, msg) {
				continue
			}
			alerts = append(alerts, models.Alert{
				ClientID:         clientID,
				InstanceID:       group.InstanceID,
				MonitoredGroupID: group.ID,
				MonitoredItemID:  item.ID,
				MessageID:        msg.ID,
			})
		}
	}

	return alerts, nil
}

// itemMatches applies one rule to one message. Membership rules compare
// the sender identity prefix; content rules check substring and embedded
// link containment over the content and both link-preview fields.
func (m *Matcher) itemMatches(item *models.MonitoredItem, msg *models.Message) bool {
	if item.IsMember {
		return prefixBefore(msg.SenderID, '@') == item.Value
	}

	return textanalyzer.ContainsSubstring(msg.Content, item.Value) ||
		textanalyzer.ContainsInLinks(msg.Content, item.Value) ||
		textanalyzer.ContainsSubstring(msg.URLTitle, item.Value) ||
		textanalyzer.ContainsInLinks(msg.URLTitle, item.Value) ||
		textanalyzer.ContainsSubstring(msg.URLDesc, item.Value) ||
		textanalyzer.ContainsInLinks(msg.URLDesc, item.Value)
}
