package verify

import (
	"strings"
	"time"

	"mailproof/internal/model"
	"mailproof/internal/token"
)

// Verify checks each expected site's token for onDate against the scanned
// corpus. Entries are trimmed and blanks dropped; everything else passes
// through, so duplicates in produce duplicates out and the input order is
// the report order. A token counts as found when it appears as a
// case-insensitive substring of any message's text, first hit wins.
func Verify(expectedSites []string, messages []model.MailboxMessage, onDate time.Time) []model.TokenCheck {
	var results []model.TokenCheck

	for _, raw := range expectedSites {
		site := strings.TrimSpace(raw)
		if site == "" {
			continue
		}

		expected := token.Token(site, onDate)
		found := false
		for i := range messages {
			if strings.Contains(strings.ToLower(messages[i].Text()), expected) {
				found = true
				break
			}
		}

		results = append(results, model.TokenCheck{
			Site:  site,
			Token: expected,
			Found: found,
		})
	}

	return results
}
