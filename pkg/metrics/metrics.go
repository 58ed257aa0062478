package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 测试邮件发送计数
	TestEmailSentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_email_sent_count",
			Help: "Total number of test emails sent",
		},
		[]string{"trigger", "status"}, // trigger: scheduled, manual; status: success, failed
	)

	// 跳过的调度计数
	DispatchSkippedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_skipped_count",
			Help: "Total number of scheduled dispatch ticks skipped",
		},
		[]string{"reason"}, // reason: wrong_day, already_sent
	)

	// Token 核对计数
	TokenCheckCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_check_count",
			Help: "Total number of per-site token checks",
		},
		[]string{"result"}, // result: found, missing
	)

	// 邮箱扫描延迟（秒）
	MailboxScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailbox_scan_duration_seconds",
			Help:    "IMAP mailbox scan duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~100s
		},
		[]string{"status"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

// IncrementTestEmailSent 增加测试邮件发送计数
func IncrementTestEmailSent(trigger, status string) {
	TestEmailSentCount.WithLabelValues(trigger, status).Inc()
}

// IncrementDispatchSkipped 增加跳过调度计数
func IncrementDispatchSkipped(reason string) {
	DispatchSkippedCount.WithLabelValues(reason).Inc()
}

// IncrementTokenCheck 增加 token 核对计数
func IncrementTokenCheck(result string) {
	TokenCheckCount.WithLabelValues(result).Inc()
}

// RecordMailboxScanDuration 记录邮箱扫描延迟
func RecordMailboxScanDuration(status string, duration time.Duration) {
	MailboxScanDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
