package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Keoroanthony/go-storefront/internal/apperrors"
	"github.com/Keoroanthony/go-storefront/internal/events"
	"github.com/Keoroanthony/go-storefront/internal/models"
	"github.com/Keoroanthony/go-storefront/internal/notifier"
	"github.com/Keoroanthony/go-storefront/internal/utils"
)

type OrderLineInput struct {
	ProductID uint `json:"product_id" form:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" form:"quantity"`
}

type CreateOrderInput struct {
	AddressID uint             `json:"address_id" form:"address_id" binding:"required"`
	Items     []OrderLineInput `json:"items" binding:"required,dive"`
}

type StatusUpdateInput struct {
	Status models.OrderStatus `json:"status" binding:"required,orderstatus"`
}

type OrderService struct {
	db       *gorm.DB
	events   events.Publisher
	notifier *notifier.Notifier
}

func NewOrderService(db *gorm.DB, pub events.Publisher, n *notifier.Notifier) *OrderService {
	if pub == nil {
		pub = events.Nop()
	}
	return &OrderService{db: db, events: pub, notifier: n}
}

// CreateOrder validates every line against the caller's address and the
// current catalog, then writes the order and its items in one transaction.
// Nothing is persisted unless every line is valid.
func (s *OrderService) CreateOrder(ctx context.Context, user *models.User, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, apperrors.ErrEmptyOrder
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var address models.Address
		if err := tx.Where("id = ? AND user_id = ?", in.AddressID, user.ID).First(&address).Error; err != nil {
			return notFoundAs(err, apperrors.ErrAddressNotFound.WithField("address_id",
				"Address does not exist or does not belong to you."))
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(in.Items))
		for _, line := range in.Items {
			var product models.Product
			if err := tx.First(&product, line.ProductID).Error; err != nil {
				return notFoundAs(err, apperrors.ErrProductNotFound.WithField("product_id",
					fmt.Sprintf("Product with id %d does not exist.", line.ProductID)))
			}
			if line.Quantity <= 0 {
				return apperrors.ErrInvalidQuantity.WithField("quantity",
					fmt.Sprintf("Quantity for product %d must be a positive number.", line.ProductID))
			}

			item := models.OrderItem{
				ProductID:        product.ID,
				Quantity:         line.Quantity,
				PriceAtOrderTime: product.Price,
			}
			total = total.Add(item.Subtotal())
			items = append(items, item)
		}

		order = models.Order{
			UserID:      user.ID,
			AddressID:   &address.ID,
			Status:      models.StatusPending,
			TotalAmount: total,
		}
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		return tx.CreateInBatches(&items, len(items)).Error
	})
	if err != nil {
		return nil, err
	}

	created, err := s.load(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.events, events.ForOrder(events.OrderCreated, created))
	go s.notifier.OrderPlaced(context.Background(), *user, *created)

	return created, nil
}

func (s *OrderService) load(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Items.Product").
		Preload("Address").
		Preload("Payment").
		First(&order, id).Error
	if err != nil {
		return nil, notFoundAs(err, apperrors.ErrOrderNotFound)
	}
	return &order, nil
}

// authorize loads the order and checks the caller may act on it. Admins
// pass only when allowAdmin is set.
func (s *OrderService) authorize(ctx context.Context, user *models.User, id uint, allowAdmin bool) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID && !(allowAdmin && user.IsAdmin()) {
		return nil, apperrors.ErrNotYourOrder
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, user *models.User, id uint) (*models.Order, error) {
	return s.authorize(ctx, user, id, true)
}

// ListOrders returns the caller's orders newest first; admins see every order.
func (s *OrderService) ListOrders(ctx context.Context, user *models.User, page utils.Page) ([]models.Order, int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.Order{})
	if !user.IsAdmin() {
		tx = tx.Where("user_id = ?", user.ID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := tx.Preload("Items").Preload("Items.Product").
		Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// transition moves the order from its observed status to next. The update
// is conditional on the observed status so a concurrent change wins.
func transition(tx *gorm.DB, order *models.Order, next models.OrderStatus) error {
	if !order.Status.CanTransitionTo(next) {
		return apperrors.ErrInvalidTransition.WithField("status",
			fmt.Sprintf("cannot move order from %q to %q", order.Status, next))
	}

	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Update("status", next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrInvalidTransition
	}
	order.Status = next
	return nil
}

// CancelOrder is allowed only before payment has been taken.
func (s *OrderService) CancelOrder(ctx context.Context, user *models.User, id uint) (*models.Order, error) {
	order, err := s.authorize(ctx, user, id, true)
	if err != nil {
		return nil, err
	}
	if !order.Status.Cancellable() {
		return nil, apperrors.ErrInvalidTransition.WithField("status",
			fmt.Sprintf("orders in status %q cannot be cancelled", order.Status))
	}

	if err := transition(s.db.WithContext(ctx), order, models.StatusCancelled); err != nil {
		return nil, err
	}

	events.Emit(ctx, s.events, events.ForOrder(events.OrderCancelled, order))
	return order, nil
}

// Checkout marks a freshly placed order as awaiting payment.
func (s *OrderService) Checkout(ctx context.Context, user *models.User, id uint) (*models.Order, error) {
	order, err := s.authorize(ctx, user, id, false)
	if err != nil {
		return nil, err
	}
	if err := transition(s.db.WithContext(ctx), order, models.StatusPendingPayment); err != nil {
		return nil, err
	}

	events.Emit(ctx, s.events, events.ForOrder(events.OrderStatusChanged, order))
	return order, nil
}

// UpdateStatus is the admin path through the status table. Processing is
// reachable only through a payment.
func (s *OrderService) UpdateStatus(ctx context.Context, actor *models.User, id uint, next models.OrderStatus) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrAdminOnly
	}
	if !next.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}
	if next == models.StatusProcessing {
		return nil, apperrors.ErrInvalidTransition.WithField("status", "orders move to Processing when paid")
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := transition(s.db.WithContext(ctx), order, next); err != nil {
		return nil, err
	}

	evt := events.OrderStatusChanged
	if next == models.StatusCancelled {
		evt = events.OrderCancelled
	}
	events.Emit(ctx, s.events, events.ForOrder(evt, order))
	return order, nil
}

// DeleteOrder removes the order with its items and payment.
func (s *OrderService) DeleteOrder(ctx context.Context, user *models.User, id uint) error {
	order, err := s.authorize(ctx, user, id, true)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, order.ID).Error
	})
}
