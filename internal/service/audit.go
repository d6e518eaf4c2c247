package service

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sync"

	"groupsentry/internal/models"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink is a bounded, rotated append-only dump for raw webhook payloads.
// Each Append writes one compact JSON line. Rotation keeps the
// never-drop-data policy from turning into an unbounded disk leak.
type Sink struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
}

func newSink(path string, cfg models.AuditConfig) *Sink {
	return &Sink{
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		},
	}
}

// Append writes the raw payload as one newline-terminated JSON line.
func (s *Sink) Append(raw []byte) error {
	line := append(bytes.TrimSpace(bytes.Clone(raw)), '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.logger.Write(line); err != nil {
		return fmt.Errorf("failed to append to audit sink: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger.Close()
}

// AuditSinks groups the three payload dumps the webhook pipeline writes:
// unrecognized discriminators, every matched group message, and message
// types outside the persistence allow-list.
type AuditSinks struct {
	UnknownEvents *Sink
	Messages      *Sink
	FallbackTypes *Sink
}

func NewAuditSinks(cfg models.AuditConfig) *AuditSinks {
	return &AuditSinks{
		UnknownEvents: newSink(filepath.Join(cfg.Dir, "webhook_unknown.jsonl"), cfg),
		Messages:      newSink(filepath.Join(cfg.Dir, "message_audit.jsonl"), cfg),
		FallbackTypes: newSink(filepath.Join(cfg.Dir, "message_fallback.jsonl"), cfg),
	}
}

func (s *AuditSinks) Close() error {
	var firstErr error
	for _, sink := range []*Sink{s.UnknownEvents, s.Messages, s.FallbackTypes} {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
