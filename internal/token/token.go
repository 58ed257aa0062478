package token

import (
	"fmt"
	"strings"
	"time"
)

// Token returns the per-site, per-day verification token: the lowercased
// site slug joined with the lowercase month name and day of month, e.g.
// site "acme" on June 3 -> "acme-june-3". The sender embeds it in the test
// email and the parent searches the inbox for the same value, so both sides
// must call this with the same calendar date.
//
// slug is expected to already be URL-safe; only case is normalized here.
func Token(slug string, onDate time.Time) string {
	return fmt.Sprintf("%s-%s-%d",
		strings.ToLower(slug),
		strings.ToLower(onDate.Month().String()),
		onDate.Day(),
	)
}
