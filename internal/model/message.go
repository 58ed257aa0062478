package model

// MailboxMessage is a read-only projection of one remote message, alive for
// a single verification scan.
type MailboxMessage struct {
	UID     uint32
	Subject string
	Body    string
}

// Text returns the searchable projection of the message.
func (m *MailboxMessage) Text() string {
	return m.Subject + " " + m.Body
}
