// Package notification builds outgoing messages and delivers them: e-mail via
// an HTTP mail API, and web push to the property managers' browsers.
package notification

import "strings"

// Kind tags a message with the workflow that produced it.
type Kind string

const (
	KindRentReminder     Kind = "rent_reminder"
	KindOverdueNotice    Kind = "overdue_notice"
	KindOverdueSummary   Kind = "overdue_summary"
	KindInvoice          Kind = "invoice"
	KindBookingReceived  Kind = "booking_received"
	KindBookingConfirmed Kind = "booking_confirmed"
	KindBookingCancelled Kind = "booking_cancelled"
	KindNewBookingAlert  Kind = "new_booking_alert"
)

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// Message is one e-mail ready for a Sender.
type Message struct {
	Kind        Kind
	Ref         string // room or booking id the message is about
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Recipient is a printable form of the To list.
func (m Message) Recipient() string {
	return strings.Join(m.To, ", ")
}

// Failure records one message that could not be delivered.
type Failure struct {
	Kind      Kind   `json:"kind"`
	Ref       string `json:"ref,omitempty"`
	Recipient string `json:"recipient"`
	Error     string `json:"error"`
}

// BatchResult summarises a batch send. A failed message never stops the
// remaining ones from being attempted.
type BatchResult struct {
	Sent     int       `json:"sent"`
	Failures []Failure `json:"failures"`
}

// Merge folds other into r.
func (r *BatchResult) Merge(other BatchResult) {
	r.Sent += other.Sent
	r.Failures = append(r.Failures, other.Failures...)
}
