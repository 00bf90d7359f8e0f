package notify

import (
	"bytes"
	"context"
	"errors"
	"log"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/observability/metrics"
)

// Message wording. Kept stable; downstream consumers parse it.
const (
	DefaultDeliveryTemplate       = `Milk delivery recorded: {{.Quantity}}L delivered. Thank you!`
	DefaultPendingPaymentTemplate = `You have a pending payment of Rs. {{.Amount}}. Please pay at your earliest convenience.`
	DefaultSellerReminderTemplate = `Daily reminder: Add milk delivery for {{.BuyerName}}.`
)

// MobileReader resolves a user id to a mobile number.
type MobileReader interface {
	MobileFor(ctx context.Context, id string) (string, error)
}

// Notifier renders and sends buyer and seller notifications. Failures are
// logged and swallowed; no caller ever fails because a message did not go out.
type Notifier struct {
	directory MobileReader
	channel   Channel
	delivery  *template.Template
	pending   *template.Template
	reminder  *template.Template
	logger    *log.Logger
}

// NewNotifier constructs a notifier from config.
func NewNotifier(directory MobileReader, channel Channel, cfg Config, logger *log.Logger) (*Notifier, error) {
	if directory == nil {
		return nil, errors.New("notifier: nil mobile reader")
	}
	if channel == nil {
		return nil, errors.New("notifier: nil channel")
	}
	if logger == nil {
		logger = log.Default()
	}

	delivery, err := parseTemplate("delivery", cfg.DeliveryTemplate, DefaultDeliveryTemplate)
	if err != nil {
		return nil, err
	}
	pending, err := parseTemplate("pending-payment", cfg.PendingPaymentTemplate, DefaultPendingPaymentTemplate)
	if err != nil {
		return nil, err
	}
	reminder, err := parseTemplate("seller-reminder", cfg.SellerReminderTemplate, DefaultSellerReminderTemplate)
	if err != nil {
		return nil, err
	}
	return &Notifier{
		directory: directory,
		channel:   channel,
		delivery:  delivery,
		pending:   pending,
		reminder:  reminder,
		logger:    logger,
	}, nil
}

func parseTemplate(name, source, fallback string) (*template.Template, error) {
	if source == "" {
		source = fallback
	}
	return template.New(name).Parse(source)
}

// NotifyDelivery tells the buyer a delivery was recorded. The seller id is
// part of the emit contract even though the message addresses the buyer.
func (n *Notifier) NotifyDelivery(ctx context.Context, sellerID, buyerID string, quantity decimal.Decimal) {
	_ = sellerID
	n.send(ctx, "delivery", buyerID, n.delivery, map[string]string{
		"Quantity": quantity.String(),
	})
}

// NotifyPendingPayment reminds the buyer of an outstanding balance.
func (n *Notifier) NotifyPendingPayment(ctx context.Context, buyerID string, amount decimal.Decimal) {
	n.send(ctx, "pending_payment", buyerID, n.pending, map[string]string{
		"Amount": amount.StringFixed(2),
	})
}

// NotifySellerDailyReminder nudges the seller to record the day's delivery
// for a buyer.
func (n *Notifier) NotifySellerDailyReminder(ctx context.Context, sellerID, buyerName string) {
	n.send(ctx, "seller_reminder", sellerID, n.reminder, map[string]string{
		"BuyerName": buyerName,
	})
}

func (n *Notifier) send(ctx context.Context, kind, recipientID string, tpl *template.Template, data map[string]string) {
	if n == nil || n.channel == nil {
		return
	}

	mobile, err := n.directory.MobileFor(ctx, recipientID)
	if err != nil || mobile == "" {
		metrics.ObserveNotifySend(kind, metrics.ResultError)
		n.logger.Printf("notify %s: no mobile for user %s: %v", kind, recipientID, err)
		return
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		metrics.ObserveNotifySend(kind, metrics.ResultError)
		n.logger.Printf("notify %s: render: %v", kind, err)
		return
	}

	if err := n.channel.Send(ctx, mobile, buf.String()); err != nil {
		metrics.ObserveNotifySend(kind, metrics.ResultError)
		n.logger.Printf("notify %s: send to user %s: %v", kind, recipientID, err)
		return
	}
	metrics.ObserveNotifySend(kind, metrics.ResultSuccess)
}
