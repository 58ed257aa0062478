package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	contracts "mailproof/contracts/mq"
	"mailproof/internal/model"
	"mailproof/pkg/metrics"
)

// ErrNoPassword means the stored mailbox secret is missing or does not
// decrypt with the configured master key; the scan is aborted before any
// connection attempt.
var ErrNoPassword = errors.New("verify: no valid mailbox password available")

// Scanner fetches the recent inbox contents.
type Scanner interface {
	FetchRecent(ctx context.Context, username, password string, windowDays int) ([]model.MailboxMessage, error)
}

// Decrypter recovers the mailbox password from its stored blob.
type Decrypter interface {
	Decrypt(stored string) (string, error)
}

// SettingsSource loads the durable settings once per invocation.
type SettingsSource interface {
	Load(ctx context.Context) (*model.Settings, error)
}

// HistoryStore persists completed runs for the history view.
type HistoryStore interface {
	InsertRun(ctx context.Context, run *model.CheckRun) error
}

// EventPublisher publishes check events; pkg/mq.Publisher satisfies it.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// Service runs the parent-site verification path: scan the shared inbox,
// then check every expected child's token against it.
type Service struct {
	scanner    Scanner
	codec      Decrypter
	settings   SettingsSource
	history    HistoryStore   // optional
	publisher  EventPublisher // optional
	windowDays int
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(
	scanner Scanner,
	codec Decrypter,
	settings SettingsSource,
	history HistoryStore,
	publisher EventPublisher,
	windowDays int,
	logger *zap.Logger,
) *Service {
	return &Service{
		scanner:    scanner,
		codec:      codec,
		settings:   settings,
		history:    history,
		publisher:  publisher,
		windowDays: windowDays,
		logger:     logger,
		now:        time.Now,
	}
}

// Run performs one verification pass and returns the report. Configuration
// gaps (no expected sites, no notify address) degrade to an empty report;
// a missing password or unreachable mailbox is a real failure.
func (s *Service) Run(ctx context.Context) (*model.CheckRun, error) {
	st, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	now := s.now()
	sites := st.ExpectedSites()
	if !hasNonBlank(sites) || st.NotifyAddress == "" {
		s.logger.Info("Nothing to verify, returning empty report",
			zap.Int("expected_sites", len(sites)),
			zap.Bool("has_address", st.NotifyAddress != ""),
		)
		return &model.CheckRun{RanAt: now}, nil
	}

	if st.MailboxSecret == "" {
		return nil, ErrNoPassword
	}
	password, err := s.codec.Decrypt(st.MailboxSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPassword, err)
	}

	msgs, err := s.scanner.FetchRecent(ctx, st.NotifyAddress, password, s.windowDays)
	if err != nil {
		s.publish("check.failed", contracts.CheckFailedPayload{
			Error:    err.Error(),
			FailedAt: now,
		})
		return nil, err
	}

	results := Verify(sites, msgs, now)

	found := 0
	for _, r := range results {
		if r.Found {
			found++
			metrics.IncrementTokenCheck("found")
		} else {
			metrics.IncrementTokenCheck("missing")
		}
	}

	run := &model.CheckRun{
		RanAt:        now,
		MessageCount: len(msgs),
		Results:      results,
	}

	if s.history != nil {
		if err := s.history.InsertRun(ctx, run); err != nil {
			s.logger.Warn("Failed to persist check run", zap.Error(err))
		}
	}

	s.logger.Info("Token check completed",
		zap.Int("sites", len(results)),
		zap.Int("found", found),
		zap.Int("messages", len(msgs)),
	)
	s.publish("check.completed", contracts.CheckCompletedPayload{
		Sites:       len(results),
		Found:       found,
		Missing:     len(results) - found,
		Scanned:     len(msgs),
		CompletedAt: now,
	})

	return run, nil
}

func hasNonBlank(entries []string) bool {
	for _, e := range entries {
		if strings.TrimSpace(e) != "" {
			return true
		}
	}
	return false
}

func (s *Service) publish(routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
