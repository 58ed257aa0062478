package model

import "time"

// TokenCheck is one row of a verification report.
type TokenCheck struct {
	Site  string `json:"site"`
	Token string `json:"token"`
	Found bool   `json:"found"`
}

// CheckRun is a persisted verification run.
type CheckRun struct {
	ID           int
	RanAt        time.Time
	MessageCount int
	Results      []TokenCheck
}

// DispatchRecord is one persisted send attempt.
type DispatchRecord struct {
	ID      int
	Site    string
	Token   string
	To      string
	Trigger string
	Sent    bool
	Error   string
	SentAt  time.Time
}
