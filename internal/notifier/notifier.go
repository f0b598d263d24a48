package notifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	config "github.com/Keoroanthony/go-storefront/configs"
	"github.com/Keoroanthony/go-storefront/internal/models"
)

// Notifier tells customers about their orders over whichever channels are configured.
// The zero value sends nothing.
type Notifier struct {
	sms   *SMSSender
	email *EmailSender
}

func New(sms *SMSSender, email *EmailSender) *Notifier {
	return &Notifier{sms: sms, email: email}
}

// FromConfig enables SMS when Africa's Talking credentials exist and email
// when an SES sender address is set.
func FromConfig(ctx context.Context, cfg *config.Config) (*Notifier, error) {
	n := &Notifier{}
	if cfg.AfricaTalking.Enabled() {
		n.sms = NewSMSSender(cfg.AfricaTalking)
	}
	if cfg.Email.SenderEmail != "" {
		awsCfg, err := cfg.AWS.SDKConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
		}
		n.email = NewEmailSender(awsCfg, cfg.Email.SenderEmail)
	}
	return n, nil
}

var defaultNotifier = &Notifier{}

func SetDefault(n *Notifier) {
	if n == nil {
		n = &Notifier{}
	}
	defaultNotifier = n
}

func Default() *Notifier {
	return defaultNotifier
}

func (n *Notifier) OrderPlaced(ctx context.Context, user models.User, order models.Order) {
	total := order.TotalAmount.StringFixed(2)

	n.sendSMS(ctx, user, order.ID, fmt.Sprintf(
		"Your order #%d has been successfully placed! Total: KES %s. Thank you for shopping with us!", order.ID, total))

	n.sendEmail(ctx, order.ID, Email{
		To:      user.Email,
		Subject: fmt.Sprintf("Order #%d Confirmation - Thank You for Your Purchase!", order.ID),
		HTML: fmt.Sprintf(`
        <html>
        <body>
            <p>Dear %s,</p>
            <p>Thank you for your order! Your order #%d has been successfully placed.</p>
            <p><strong>Order Details:</strong></p>
            <ul>
                <li>Order ID: %d</li>
                <li>Items: %d</li>
                <li>Total Amount: KES %s</li>
            </ul>
            <p>We'll send you another email when your payment is received.</p>
        </body>
        </html>`, displayName(user), order.ID, order.ID, len(order.Items), total),
		Text: fmt.Sprintf(
			"Dear %s,\n\nThank you for your order! Your order #%d has been successfully placed.\n\n"+
				"Order ID: %d\nItems: %d\nTotal Amount: KES %s\n",
			displayName(user), order.ID, order.ID, len(order.Items), total),
	})
}

func (n *Notifier) PaymentReceived(ctx context.Context, user models.User, order models.Order, payment models.Payment) {
	amount := payment.Amount.StringFixed(2)

	n.sendSMS(ctx, user, order.ID, fmt.Sprintf(
		"Payment of KES %s received for order #%d. We are now processing it.", amount, order.ID))

	n.sendEmail(ctx, order.ID, Email{
		To:      user.Email,
		Subject: fmt.Sprintf("Payment received for order #%d", order.ID),
		HTML: fmt.Sprintf(`
        <html>
        <body>
            <p>Dear %s,</p>
            <p>We have received your payment of KES %s for order #%d.</p>
            <p>Reference: %s</p>
        </body>
        </html>`, displayName(user), amount, order.ID, transactionRef(payment)),
		Text: fmt.Sprintf("Dear %s,\n\nWe have received your payment of KES %s for order #%d.\nReference: %s\n",
			displayName(user), amount, order.ID, transactionRef(payment)),
	})
}

func (n *Notifier) sendSMS(ctx context.Context, user models.User, orderID uint, message string) {
	if n == nil || n.sms == nil || user.Phone == nil || *user.Phone == "" {
		return
	}
	if err := n.sms.Send(ctx, *user.Phone, message); err != nil {
		zap.L().Error("failed to send SMS", zap.Uint("order_id", orderID), zap.String("to", *user.Phone), zap.Error(err))
	}
}

func (n *Notifier) sendEmail(ctx context.Context, orderID uint, msg Email) {
	if n == nil || n.email == nil {
		return
	}
	if err := n.email.Send(ctx, msg); err != nil {
		zap.L().Error("failed to send email", zap.Uint("order_id", orderID), zap.String("to", msg.To), zap.Error(err))
	}
}

func displayName(user models.User) string {
	if user.Name != "" {
		return user.Name
	}
	return user.Username
}

func transactionRef(p models.Payment) string {
	if p.TransactionID == nil {
		return "-"
	}
	return *p.TransactionID
}
