package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Keoroanthony/go-storefront/internal/apperrors"
	"github.com/Keoroanthony/go-storefront/internal/events"
	"github.com/Keoroanthony/go-storefront/internal/models"
	"github.com/Keoroanthony/go-storefront/internal/notifier"
	"github.com/Keoroanthony/go-storefront/internal/utils"
)

// SimulatedTransactionID is the placeholder reference recorded for a simulated payment.
func SimulatedTransactionID(orderID uint) string {
	return fmt.Sprintf("SIM-%08d", orderID)
}

type PaymentService struct {
	db       *gorm.DB
	events   events.Publisher
	notifier *notifier.Notifier
}

func NewPaymentService(db *gorm.DB, pub events.Publisher, n *notifier.Notifier) *PaymentService {
	if pub == nil {
		pub = events.Nop()
	}
	return &PaymentService{db: db, events: pub, notifier: n}
}

// Pay records a completed placeholder payment for an order awaiting payment
// and moves the order to Processing. Orders in any other status get
// ErrPaymentNotDue and nothing is written.
func (s *PaymentService) Pay(ctx context.Context, user *models.User, orderID uint) (*models.Payment, *models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		return nil, nil, notFoundAs(err, apperrors.ErrOrderNotFound)
	}
	if order.UserID != user.ID {
		return nil, nil, apperrors.ErrNotYourOrder
	}
	if order.Status != models.StatusPendingPayment {
		return nil, &order, apperrors.ErrPaymentNotDue
	}

	txnID := SimulatedTransactionID(order.ID)
	payment := models.Payment{
		OrderID:       order.ID,
		Amount:        order.TotalAmount,
		Method:        models.MethodCreditCard,
		TransactionID: &txnID,
		Status:        models.PaymentCompleted,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		return transition(tx, &order, models.StatusProcessing)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &order, apperrors.ErrPaymentNotDue.Wrap(err)
		}
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			return nil, &order, apperrors.ErrPaymentNotDue
		}
		return nil, nil, err
	}

	events.Emit(ctx, s.events, events.ForOrder(events.PaymentCompleted, &order))
	go s.notifier.PaymentReceived(context.Background(), *user, order, payment)

	return &payment, &order, nil
}

// ListPayments returns payments for the caller's orders; admins see all.
func (s *PaymentService) ListPayments(ctx context.Context, user *models.User, page utils.Page) ([]models.Payment, int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.Payment{})
	if !user.IsAdmin() {
		tx = tx.Where("order_id IN (?)", s.db.Model(&models.Order{}).Select("id").Where("user_id = ?", user.ID))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []models.Payment
	err := tx.Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, user *models.User, id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		return nil, notFoundAs(err, apperrors.ErrPaymentNotFound)
	}
	if user.IsAdmin() {
		return &payment, nil
	}

	var order models.Order
	if err := s.db.WithContext(ctx).Select("id", "user_id").First(&order, payment.OrderID).Error; err != nil {
		return nil, notFoundAs(err, apperrors.ErrPaymentNotFound)
	}
	if order.UserID != user.ID {
		return nil, apperrors.ErrNotYourPayment
	}
	return &payment, nil
}
