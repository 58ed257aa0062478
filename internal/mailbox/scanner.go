package mailbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"mailproof/config"
	"mailproof/internal/model"
	"mailproof/pkg/metrics"
)

// Scanner reads recent messages from the shared verification inbox. Host,
// port and folder are deployment constants; credentials arrive per scan
// because the password lives encrypted in the settings store.
type Scanner struct {
	host   string
	port   int
	folder string
	logger *zap.Logger
	now    func() time.Time
}

func NewScanner(cfg config.IMAPConfig, logger *zap.Logger) *Scanner {
	return &Scanner{
		host:   cfg.Host,
		port:   cfg.Port,
		folder: cfg.Folder,
		logger: logger,
		now:    time.Now,
	}
}

// FetchRecent returns the messages whose internal date falls inside the
// trailing window, most recent first (descending UID). Connection, auth and
// search failures come back as error values carrying the remote text; an
// empty mailbox is a success with zero messages.
func (s *Scanner) FetchRecent(ctx context.Context, username, password string, windowDays int) ([]model.MailboxMessage, error) {
	start := time.Now()
	msgs, err := s.fetch(ctx, username, password, windowDays)
	if err != nil {
		metrics.RecordMailboxScanDuration("failed", time.Since(start))
		return nil, err
	}
	metrics.RecordMailboxScanDuration("success", time.Since(start))

	s.logger.Info("Mailbox scan completed",
		zap.Int("messages", len(msgs)),
		zap.Int("window_days", windowDays),
	)
	return msgs, nil
}

func (s *Scanner) fetch(ctx context.Context, username, password string, windowDays int) ([]model.MailboxMessage, error) {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))

	client, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("imap connection failed for %s: %w", addr, err)
	}
	defer client.Close()

	if err := client.Login(username, password).Wait(); err != nil {
		return nil, fmt.Errorf("imap login failed for %s: %w", username, err)
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(s.folder, nil).Wait(); err != nil {
		return nil, fmt.Errorf("selecting %s: %w", s.folder, err)
	}

	criteria := &imap.SearchCriteria{
		Since: s.now().AddDate(0, 0, -windowDays),
	}
	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), fetchOpts)

	var msgs []model.MailboxMessage
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		m := model.MailboxMessage{UID: uint32(buf.UID)}
		if buf.Envelope != nil {
			m.Subject = buf.Envelope.Subject
		}
		if raw := buf.FindBodySection(bodySection); raw != nil {
			m.Body = extractText(raw)
		}
		msgs = append(msgs, m)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}

	// most-recent-first; UID order is a proxy for recency, good enough for
	// a membership scan
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].UID > msgs[j].UID })

	return msgs, nil
}

// extractText pulls the first text part out of a raw RFC 2822 message. When
// the body is not parseable MIME it is searched as-is.
func extractText(raw []byte) string {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw)
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		if h, ok := part.Header.(*mail.InlineHeader); ok {
			contentType, _, _ := h.ContentType()
			if !strings.HasPrefix(contentType, "text/") {
				continue
			}
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			return string(body)
		}
	}
	return ""
}
