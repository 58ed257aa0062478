package mq

import "time"

// CheckCompletedPayload 收件箱核对完成事件的 payload
type CheckCompletedPayload struct {
	Sites       int       `json:"sites"`
	Found       int       `json:"found"`
	Missing     int       `json:"missing"`
	Scanned     int       `json:"scanned"` // messages inspected
	CompletedAt time.Time `json:"completed_at"`
}

type CheckFailedPayload struct {
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}
