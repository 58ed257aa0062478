package model

import "strings"

type SiteRole string

const (
	RoleChild  SiteRole = "child"
	RoleParent SiteRole = "parent"
)

// DefaultTargetDay is used when no target day has been configured.
const DefaultTargetDay = "Friday"

// Settings is the durable configuration of one deployment, loaded once per
// invocation from the settings store. MailboxSecret is kept encrypted here;
// it is only decrypted at the point of use.
type Settings struct {
	SiteRole       SiteRole
	NotifyAddress  string
	TargetDay      string
	MailboxSecret  string
	ExpectedTokens string
}

// TargetDayOrDefault returns the configured day-of-week name, falling back
// to Friday like the original deployments did.
func (s *Settings) TargetDayOrDefault() string {
	if s.TargetDay == "" {
		return DefaultTargetDay
	}
	return s.TargetDay
}

// ExpectedSites splits the raw newline-delimited site list. Entries are
// returned as-is; trimming and blank filtering happen in the verifier.
func (s *Settings) ExpectedSites() []string {
	if s.ExpectedTokens == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(s.ExpectedTokens, "\r\n", "\n"), "\n")
}
