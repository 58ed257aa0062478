package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailproof/internal/model"
)

type fakeSender struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to, subject, body string
}

func (f *fakeSender) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

type fakeSettings struct {
	st  *model.Settings
	err error
}

func (f *fakeSettings) Load(context.Context) (*model.Settings, error) {
	return f.st, f.err
}

type fakeLog struct {
	records []*model.DispatchRecord
}

func (f *fakeLog) Insert(_ context.Context, rec *model.DispatchRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func childSettings() *model.Settings {
	return &model.Settings{
		SiteRole:      model.RoleChild,
		NotifyAddress: "inbox@example.com",
		TargetDay:     "Friday",
	}
}

// log is the interface type so that callers passing nil get a nil
// interface, not a typed-nil *fakeLog the service would try to call.
func newTestService(sender *fakeSender, settings *fakeSettings, log LogStore, at time.Time) (*Service, *memoryMarkerStore) {
	store := newMemoryMarkerStore()
	gate := NewGate(store, zap.NewNop())
	svc := NewService(gate, sender, settings, log, nil, "acme", zap.NewNop())
	svc.now = func() time.Time { return at }
	return svc, store
}

func TestRunScheduled_SendsOncePerDay(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	log := &fakeLog{}
	svc, _ := newTestService(sender, &fakeSettings{st: childSettings()}, log, friday(0, 3))

	require.NoError(t, svc.RunScheduled(ctx))
	require.Len(t, sender.sent, 1)

	mail := sender.sent[0]
	assert.Equal(t, "inbox@example.com", mail.to)
	assert.Equal(t, "SMTP Test Email - Token: acme-june-7", mail.subject)
	assert.Contains(t, mail.body, "acme-june-7")
	assert.Contains(t, mail.body, "test email from acme")

	require.Len(t, log.records, 1)
	assert.True(t, log.records[0].Sent)
	assert.Equal(t, "scheduled", log.records[0].Trigger)

	// same-day second tick: gate blocks, nothing sent
	svc.now = func() time.Time { return friday(1, 3) }
	require.NoError(t, svc.RunScheduled(ctx))
	assert.Len(t, sender.sent, 1)
}

func TestRunScheduled_WrongDayIsNoop(t *testing.T) {
	tuesday := time.Date(2024, time.June, 4, 0, 3, 0, 0, time.UTC)
	sender := &fakeSender{}
	svc, _ := newTestService(sender, &fakeSettings{st: childSettings()}, nil, tuesday)

	require.NoError(t, svc.RunScheduled(context.Background()))
	assert.Empty(t, sender.sent)
}

func TestRunScheduled_ParentRoleDoesNotSend(t *testing.T) {
	st := childSettings()
	st.SiteRole = model.RoleParent
	sender := &fakeSender{}
	svc, _ := newTestService(sender, &fakeSettings{st: st}, nil, friday(0, 3))

	require.NoError(t, svc.RunScheduled(context.Background()))
	assert.Empty(t, sender.sent)
}

func TestRunScheduled_TransportFailureLeavesNoMarker(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{err: errors.New("smtp: 554 rejected")}
	log := &fakeLog{}
	svc, store := newTestService(sender, &fakeSettings{st: childSettings()}, log, friday(0, 3))

	require.NoError(t, svc.RunScheduled(ctx))

	exists, err := store.Exists(ctx, MarkerKey(friday(0, 3)))
	require.NoError(t, err)
	assert.False(t, exists, "failed send must not consume the day")

	require.Len(t, log.records, 1)
	assert.False(t, log.records[0].Sent)
	assert.Contains(t, log.records[0].Error, "554")
}

func TestSendNow_BypassesGate(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	svc, store := newTestService(sender, &fakeSettings{st: childSettings()}, nil, friday(0, 3))

	// pretend the scheduled send already happened today
	require.NoError(t, store.Set(ctx, MarkerKey(friday(0, 3)), time.Hour))

	sent, tok, err := svc.SendNow(ctx)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, "acme-june-7", tok)
	assert.Len(t, sender.sent, 1)

	// and the manual send leaves the marker alone either way
	exists, err := store.Exists(ctx, MarkerKey(friday(0, 3)))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSendNow_OnWrongDayStillSends(t *testing.T) {
	tuesday := time.Date(2024, time.June, 4, 15, 0, 0, 0, time.UTC)
	sender := &fakeSender{}
	svc, _ := newTestService(sender, &fakeSettings{st: childSettings()}, nil, tuesday)

	sent, tok, err := svc.SendNow(context.Background())
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, "acme-june-4", tok)
}

func TestRunScheduled_NoLogStoreConfigured(t *testing.T) {
	// history persistence is optional; a successful send must work without it
	sender := &fakeSender{}
	svc, _ := newTestService(sender, &fakeSettings{st: childSettings()}, nil, friday(0, 3))

	require.NoError(t, svc.RunScheduled(context.Background()))
	assert.Len(t, sender.sent, 1)
}

func TestSendNow_NoRecipient(t *testing.T) {
	st := childSettings()
	st.NotifyAddress = ""
	svc, _ := newTestService(&fakeSender{}, &fakeSettings{st: st}, nil, friday(0, 3))

	_, _, err := svc.SendNow(context.Background())
	assert.ErrorIs(t, err, ErrNoRecipient)
}
