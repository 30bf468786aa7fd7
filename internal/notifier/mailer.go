/**
 * @description
 * SMTP delivery for transaction alerts. The mailer renders the alert body
 * from the dispatcher payload and sends it through gomail.
 */

package notifier

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"

	"github.com/fibiannsk/trustyfin/internal/domain"
)

// Sender delivers one transaction alert.
type Sender interface {
	Send(payload domain.TransactionNotification) error
}

// Mailer sends transaction alerts over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer creates a mailer for the given SMTP endpoint.
func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send renders and delivers a transaction alert email.
func (m *Mailer) Send(payload domain.TransactionNotification) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", payload.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Transaction Alert: %s of %s %s", payload.TransactionType, payload.Currency, payload.Amount))
	msg.SetBody("text/html", renderAlertBody(payload))

	return m.dialer.DialAndSend(msg)
}

// renderAlertBody builds the HTML alert. Narration and reference come from
// the transfer sender and land in the recipient's inbox, so every payload
// field is escaped before interpolation.
func renderAlertBody(p domain.TransactionNotification) string {
	esc := html.EscapeString
	return fmt.Sprintf(`
		<h2>Transaction Alert</h2>
		<p>Dear %s,</p>
		<p>A %s of %s %s occurred on your account %s.</p>
		<p>Narration: %s</p>
		<p>Reference: %s</p>
		<p>Date: %s</p>
		<p>Available balance: %s %s</p>
	`,
		esc(p.CustomerName),
		esc(p.TransactionType),
		esc(p.Currency), esc(p.Amount),
		esc(p.MaskedAccountNumber),
		esc(p.Narration),
		esc(p.Reference),
		esc(p.DateTime),
		esc(p.Currency), esc(p.AvailableBalance),
	)
}
