// Package email renders and delivers the transactional emails: the signup
// welcome and the password reset message. Delivery goes through the Sender
// interface so tests can capture messages in memory.
package email

import "context"

// Message is a rendered email ready for delivery.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
