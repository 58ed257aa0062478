package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	contracts "mailproof/contracts/mq"
	"mailproof/internal/model"
	"mailproof/internal/token"
	"mailproof/pkg/metrics"
)

// ErrNoRecipient is returned when no notify address has been configured.
var ErrNoRecipient = errors.New("dispatch: no notify address configured")

// Sender delivers one test email. A single attempt, no retries.
type Sender interface {
	Send(to, subject, body string) error
}

// SettingsSource loads the durable settings once per invocation.
type SettingsSource interface {
	Load(ctx context.Context) (*model.Settings, error)
}

// EventPublisher publishes dispatch events; pkg/mq.Publisher satisfies it.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// LogStore persists send attempts for the history view.
type LogStore interface {
	Insert(ctx context.Context, rec *model.DispatchRecord) error
}

// Service runs the child-site dispatch paths: the gated scheduled send and
// the unconditional manual send.
type Service struct {
	gate      *Gate
	sender    Sender
	settings  SettingsSource
	log       LogStore       // optional
	publisher EventPublisher // optional
	siteName  string
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	gate *Gate,
	sender Sender,
	settings SettingsSource,
	log LogStore,
	publisher EventPublisher,
	siteName string,
	logger *zap.Logger,
) *Service {
	return &Service{
		gate:      gate,
		sender:    sender,
		settings:  settings,
		log:       log,
		publisher: publisher,
		siteName:  siteName,
		logger:    logger,
		now:       time.Now,
	}
}

// RunScheduled handles one scheduler tick. Firing more than once on the same
// day is expected and harmless: every tick after the first is a no-op.
func (s *Service) RunScheduled(ctx context.Context) error {
	st, err := s.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if st.SiteRole != model.RoleChild {
		return nil
	}

	now := s.now()
	targetDay := st.TargetDayOrDefault()
	if !s.gate.ShouldSend(ctx, now, targetDay) {
		if !strings.EqualFold(now.Weekday().String(), targetDay) {
			metrics.IncrementDispatchSkipped("wrong_day")
		} else {
			metrics.IncrementDispatchSkipped("already_sent")
		}
		return nil
	}

	sent, _, err := s.send(ctx, st, "scheduled")
	if err != nil {
		return err
	}
	if !sent {
		// transport declined; surfaced via log/metrics, retried next tick
		return nil
	}

	if err := s.gate.RecordSent(ctx, now); err != nil {
		s.logger.Warn("Failed to write dispatch marker", zap.Error(err))
	}
	return nil
}

// SendNow is the manual path. It never consults the gate and never writes a
// marker, so a manual send does not use up the day's scheduled slot.
func (s *Service) SendNow(ctx context.Context) (bool, string, error) {
	st, err := s.settings.Load(ctx)
	if err != nil {
		return false, "", fmt.Errorf("load settings: %w", err)
	}

	return s.send(ctx, st, "manual")
}

// RunLoop drives RunScheduled off a ticker until ctx is cancelled. The gate
// makes a short interval harmless, mirroring a daily cron with slack.
func (s *Service) RunLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunScheduled(ctx); err != nil {
				s.logger.Error("Scheduled dispatch failed", zap.Error(err))
			}
		}
	}
}

func (s *Service) send(ctx context.Context, st *model.Settings, trigger string) (bool, string, error) {
	if st.NotifyAddress == "" {
		return false, "", ErrNoRecipient
	}

	now := s.now()
	tok := token.Token(s.siteName, now)
	subject := "SMTP Test Email - Token: " + tok
	body := fmt.Sprintf("This is a scheduled test email from %s.\n\nToken: %s",
		strings.ToLower(s.siteName), tok)

	err := s.sender.Send(st.NotifyAddress, subject, body)

	rec := &model.DispatchRecord{
		Site:    strings.ToLower(s.siteName),
		Token:   tok,
		To:      st.NotifyAddress,
		Trigger: trigger,
		Sent:    err == nil,
		SentAt:  now,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if s.log != nil {
		if logErr := s.log.Insert(ctx, rec); logErr != nil {
			s.logger.Warn("Failed to persist dispatch record", zap.Error(logErr))
		}
	}

	if err != nil {
		s.logger.Error("Test email send failed",
			zap.String("to", st.NotifyAddress),
			zap.String("token", tok),
			zap.String("trigger", trigger),
			zap.Error(err),
		)
		metrics.IncrementTestEmailSent(trigger, "failed")
		s.publish("dispatch.failed", contracts.DispatchFailedPayload{
			Site:    rec.Site,
			Token:   tok,
			To:      st.NotifyAddress,
			Trigger: trigger,
			Error:   err.Error(),
		})
		return false, tok, nil
	}

	s.logger.Info("Test email sent",
		zap.String("to", st.NotifyAddress),
		zap.String("token", tok),
		zap.String("trigger", trigger),
	)
	metrics.IncrementTestEmailSent(trigger, "success")
	s.publish("dispatch.sent", contracts.DispatchSentPayload{
		Site:    rec.Site,
		Token:   tok,
		To:      st.NotifyAddress,
		Trigger: trigger,
		SentAt:  now,
	})
	return true, tok, nil
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
