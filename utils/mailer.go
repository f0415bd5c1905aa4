package utils

import (
	"fmt"
	"strconv"

	gomail "gopkg.in/gomail.v2"
)

// ReceiptSender sends the membership receipt after a verified payment.
// Sending is fire-and-forget with no retry; a relay failure surfaces to
// the caller even though the payment is already recorded.
type ReceiptSender interface {
	SendReceipt(email, planType string, amount float64, paymentRef string) error
}

// Mailer sends receipts over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer builds a Mailer from SMTP settings. host/port default to
// Gmail when empty, matching the account the EMAIL_USER credentials
// belong to.
func NewMailer(host, port, user, pass string) *Mailer {
	if host == "" {
		host = "smtp.gmail.com"
	}
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 {
		p = 587
	}
	return &Mailer{
		dialer: gomail.NewDialer(host, p, user, pass),
		from:   user,
	}
}

func (m *Mailer) SendReceipt(email, planType string, amount float64, paymentRef string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Welcome to Bend The Bar Gym!")
	msg.SetBody("text/html", fmt.Sprintf(`
        <h1>Payment Successful!</h1>
        <p>Thank you for joining Bend The Bar Gym.</p>
        <p>Plan: %s</p>
        <p>Amount: ₹%.0f</p>
        <p>Payment ID: %s</p>
    `, planType, amount, paymentRef))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send receipt to %s: %w", email, err)
	}
	return nil
}
