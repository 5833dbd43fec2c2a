// internal/pkg/notify/dispatcher.go
package notify

import (
	"bytes"
	"fmt"
	"net/smtp"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/returns"
)

// Dispatcher sends customer notifications over SMTP. Delivery is best
// effort: a failed send is logged and never propagates to the caller.
type Dispatcher struct {
	config *config.Config
	log    *logrus.Logger
}

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(cfg *config.Config, log *logrus.Logger) *Dispatcher {
	if log == nil {
		log = logrus.New()
	}
	return &Dispatcher{
		config: cfg,
		log:    log,
	}
}

// OrderPlaced sends the order confirmation email
func (d *Dispatcher) OrderPlaced(o *order.Order) {
	subject := fmt.Sprintf("Order confirmed: %s", o.OrderNumber)
	body := d.orderConfirmationBody(o)
	d.send(o.Email, subject, body)
}

// OrderStatusChanged notifies the customer of a fulfillment update
func (d *Dispatcher) OrderStatusChanged(o *order.Order) {
	subject := fmt.Sprintf("Order %s is now %s", o.OrderNumber, o.Status)
	body := fmt.Sprintf("<p>Hi,</p><p>Your order <strong>%s</strong> is now <strong>%s</strong>.</p>",
		o.OrderNumber, o.Status)
	d.send(o.Email, subject, body)
}

// ReturnUpdated notifies the customer of a return request decision
func (d *Dispatcher) ReturnUpdated(to string, r *returns.ReturnRequest) {
	subject := fmt.Sprintf("Return request %s is now %s", r.ReturnNumber, r.Status)
	body := fmt.Sprintf("<p>Hi,</p><p>Your return request <strong>%s</strong> is now <strong>%s</strong>.</p>",
		r.ReturnNumber, r.Status)
	d.send(to, subject, body)
}

func (d *Dispatcher) orderConfirmationBody(o *order.Order) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<p>Hi,</p><p>Thanks for your order <strong>%s</strong>.</p>", o.OrderNumber)
	buf.WriteString("<ul>")
	for _, item := range o.Items {
		fmt.Fprintf(&buf, "<li>%s x%d</li>", item.Name, item.Quantity)
	}
	buf.WriteString("</ul>")
	fmt.Fprintf(&buf, "<p>Total paid: %.2f</p>", float64(o.TotalAmount)/100)
	if o.PointsRedeemed > 0 {
		fmt.Fprintf(&buf, "<p>Loyalty points redeemed: %d</p>", o.PointsRedeemed)
	}
	return buf.String()
}

func (d *Dispatcher) send(to, subject, htmlBody string) {
	emailCfg := d.config.External.Email
	if !emailCfg.Enabled {
		d.log.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Debug("email dispatch disabled, skipping")
		return
	}
	if emailCfg.SMTPHost == "" {
		d.log.Warn("email enabled but SMTP host not configured")
		return
	}

	from := emailCfg.FromEmail
	if emailCfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", emailCfg.FromName, emailCfg.FromEmail)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	var auth smtp.Auth
	if emailCfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", emailCfg.SMTPUser, emailCfg.SMTPPass, emailCfg.SMTPHost)
	}

	serverAddr := fmt.Sprintf("%s:%d", emailCfg.SMTPHost, emailCfg.SMTPPort)
	if err := smtp.SendMail(serverAddr, auth, emailCfg.FromEmail, []string{to}, msg.Bytes()); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Warn("failed to send notification email")
		return
	}

	d.log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("notification email sent")
}
