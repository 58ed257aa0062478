package verify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailproof/internal/model"
)

var june3 = time.Date(2024, time.June, 3, 12, 0, 0, 0, time.UTC)

func msg(subject, body string) model.MailboxMessage {
	return model.MailboxMessage{Subject: subject, Body: body}
}

func TestVerify_Matching(t *testing.T) {
	messages := []model.MailboxMessage{
		msg("SMTP Test Email - Token: alpha-june-3", "This is a scheduled test email from alpha.\n\nToken: alpha-june-3"),
		msg("unrelated", "nothing to see here"),
	}

	results := Verify([]string{"alpha", "beta"}, messages, june3)

	require.Len(t, results, 2)
	assert.Equal(t, model.TokenCheck{Site: "alpha", Token: "alpha-june-3", Found: true}, results[0])
	assert.Equal(t, model.TokenCheck{Site: "beta", Token: "beta-june-3", Found: false}, results[1])
}

func TestVerify_CaseInsensitiveMatch(t *testing.T) {
	messages := []model.MailboxMessage{
		msg("FWD: Token: ALPHA-JUNE-3", ""),
	}

	results := Verify([]string{"alpha"}, messages, june3)
	require.Len(t, results, 1)
	assert.True(t, results[0].Found)
}

func TestVerify_TokenInBodyOnly(t *testing.T) {
	messages := []model.MailboxMessage{
		msg("weekly delivery test", "Token: alpha-june-3"),
	}

	results := Verify([]string{"alpha"}, messages, june3)
	require.Len(t, results, 1)
	assert.True(t, results[0].Found)
}

func TestVerify_TrimsAndDropsBlankEntries(t *testing.T) {
	sites := []string{"  alpha  ", "", "   ", "beta", "\t"}
	messages := []model.MailboxMessage{
		msg("Token: alpha-june-3", ""),
	}

	results := Verify(sites, messages, june3)

	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].Site)
	assert.True(t, results[0].Found)
	assert.Equal(t, "beta", results[1].Site)
	assert.False(t, results[1].Found)
}

func TestVerify_DuplicatesKeptInOrder(t *testing.T) {
	results := Verify([]string{"beta", "alpha", "beta"}, nil, june3)

	require.Len(t, results, 3)
	assert.Equal(t, "beta", results[0].Site)
	assert.Equal(t, "alpha", results[1].Site)
	assert.Equal(t, "beta", results[2].Site)
}

func TestVerify_EmptyMailbox(t *testing.T) {
	results := Verify([]string{"alpha", "beta"}, nil, june3)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Found)
	}
}

func TestVerify_WrongDateToken(t *testing.T) {
	// yesterday's token must not satisfy today's check
	messages := []model.MailboxMessage{
		msg("Token: alpha-june-2", ""),
	}

	results := Verify([]string{"alpha"}, messages, june3)
	require.Len(t, results, 1)
	assert.False(t, results[0].Found)
}
