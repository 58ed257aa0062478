package mq

import "time"

// DispatchSentPayload 测试邮件发送成功事件的 payload
type DispatchSentPayload struct {
	Site    string    `json:"site"`
	Token   string    `json:"token"`
	To      string    `json:"to"`
	Trigger string    `json:"trigger"` // scheduled / manual
	SentAt  time.Time `json:"sent_at"`
}

type DispatchFailedPayload struct {
	Site    string `json:"site"`
	Token   string `json:"token"`
	To      string `json:"to"`
	Trigger string `json:"trigger"`
	Error   string `json:"error"`
}
