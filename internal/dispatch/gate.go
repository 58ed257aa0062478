package dispatch

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

const markerKeyPrefix = "dispatch-sent-"

// markerTTL lets a marker self-clear the day after it was written, on top
// of the day-of-week check.
const markerTTL = 24 * time.Hour

// MarkerStore persists the expiring per-day "already sent" flags.
type MarkerStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string, ttl time.Duration) error
}

// MarkerKey returns the dedupe key for the calendar date of t.
func MarkerKey(t time.Time) string {
	return markerKeyPrefix + t.Format("2006-01-02")
}

// Gate decides whether a scheduled tick is allowed to send. Manual sends
// never consult it. The marker is best-effort dedupe, not a lock: two
// genuinely concurrent ticks can still race.
type Gate struct {
	store  MarkerStore
	logger *zap.Logger
}

func NewGate(store MarkerStore, logger *zap.Logger) *Gate {
	return &Gate{store: store, logger: logger}
}

// ShouldSend reports whether a scheduled send may fire now: the weekday has
// to match the configured target day and no send may have been recorded for
// today yet. When the marker store is unreachable the tick is allowed
// through, matching how the rest of the system treats Redis outages.
func (g *Gate) ShouldSend(ctx context.Context, now time.Time, targetDay string) bool {
	if !strings.EqualFold(now.Weekday().String(), targetDay) {
		return false
	}

	key := MarkerKey(now)
	sent, err := g.store.Exists(ctx, key)
	if err != nil {
		g.logger.Warn("Marker store check failed, allowing send",
			zap.String("marker_key", key),
			zap.Error(err),
		)
		return true
	}

	if sent {
		g.logger.Info("Test email already sent today, skipping",
			zap.String("marker_key", key),
		)
		return false
	}
	return true
}

// RecordSent writes today's marker. Callers invoke it only after the mail
// transport reported acceptance.
func (g *Gate) RecordSent(ctx context.Context, now time.Time) error {
	return g.store.Set(ctx, MarkerKey(now), markerTTL)
}
