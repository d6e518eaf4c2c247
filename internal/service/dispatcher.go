// Package service holds the webhook pipeline: the dispatcher that routes
// inbound gateway events, the message ingestor, the session state
// recorder, and the batch alert matcher.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"groupsentry/internal/metrics"
	"groupsentry/internal/models"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Dispatcher routes one inbound webhook payload to the handler selected by
// its "wook" discriminator.
type Dispatcher struct {
	recorder *SessionRecorder
	ingestor *Ingestor
	sinks    *AuditSinks
	metrics  *metrics.Registry
	logger   *logrus.Logger
}

func NewDispatcher(recorder *SessionRecorder, ingestor *Ingestor, sinks *AuditSinks, registry *metrics.Registry, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		recorder: recorder,
		ingestor: ingestor,
		sinks:    sinks,
		metrics:  registry,
		logger:   logger,
	}
}

// Dispatch handles one event. A nil return means the event was accepted;
// any error maps to a client-facing rejection. Unparsable bodies and
// missing discriminators are rejected without side effects; unknown
// discriminator values are dumped to the unknown-event sink exactly once
// and still rejected.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) error {
	ctx, span := otel.Tracer("groupsentry/webhook").Start(ctx, "webhook.dispatch")
	defer span.End()

	start := time.Now()

	var envelope models.WebhookEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		d.metrics.IncrementCounter("webhook_rejected_total", map[string]string{"reason": "bad_json"})
		return fmt.Errorf("error decoding JSON data: %w", err)
	}
	if envelope.Wook == nil {
		d.metrics.IncrementCounter("webhook_rejected_total", map[string]string{"reason": "missing_wook"})
		return fmt.Errorf("missing 'wook' key in JSON data")
	}

	wook := *envelope.Wook
	span.SetAttributes(attribute.String("webhook.wook", wook))
	d.metrics.IncrementCounter("webhook_events_total", map[string]string{"wook": wook})

	var err error
	switch wook {
	case models.EventQRCode:
		err = d.recorder.RecordQRCode(ctx, raw)
	case models.EventStatusConnect:
		err = d.recorder.RecordConnectionStatus(ctx, raw)
	case models.EventSendMessage, models.EventReceiveMessage:
		err = d.ingestor.Ingest(ctx, raw)
	default:
		if sinkErr := d.sinks.UnknownEvents.Append(raw); sinkErr != nil {
			d.logger.WithError(sinkErr).Error("Failed to dump unknown webhook event")
		}
		d.logger.WithField("wook", wook).Warn("Unknown webhook event type")
		err = fmt.Errorf("invalid webhook type %q", wook)
	}

	d.metrics.RecordTimer("webhook_dispatch", time.Since(start))
	return err
}
