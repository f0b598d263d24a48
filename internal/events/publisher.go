// Package events publishes order lifecycle notifications to a broker.
// Events are informational; the database stays the source of truth.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	config "github.com/Keoroanthony/go-storefront/configs"
	"github.com/Keoroanthony/go-storefront/internal/models"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderCancelled     Type = "order.cancelled"
	OrderStatusChanged Type = "order.status_changed"
	PaymentCompleted   Type = "payment.completed"
)

type Event struct {
	Type       Type      `json:"type"`
	OrderID    uint      `json:"order_id"`
	UserID     uint      `json:"user_id"`
	Status     string    `json:"status"`
	Amount     string    `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Key partitions events by order so a consumer sees one order's events in order.
func (e Event) Key() string {
	return strconv.FormatUint(uint64(e.OrderID), 10)
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// ForOrder builds an event snapshot of order.
func ForOrder(t Type, order *models.Order) Event {
	return Event{
		Type:       t,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     string(order.Status),
		Amount:     order.TotalAmount.StringFixed(2),
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, evt Event) error { return nil }
func (nopPublisher) Close() error                                 { return nil }

// Nop drops every event.
func Nop() Publisher {
	return nopPublisher{}
}

var defaultPublisher Publisher = nopPublisher{}

func SetDefault(p Publisher) {
	if p == nil {
		p = nopPublisher{}
	}
	defaultPublisher = p
}

func Default() Publisher {
	return defaultPublisher
}

// Emit publishes evt and logs instead of failing; callers have already committed.
func Emit(ctx context.Context, p Publisher, evt Event) {
	if err := p.Publish(ctx, evt); err != nil {
		zap.L().Error("failed to publish event",
			zap.String("type", string(evt.Type)),
			zap.Uint("order_id", evt.OrderID),
			zap.Error(err),
		)
	}
}

// New builds the publisher selected by cfg.Backend.
func New(ctx context.Context, cfg config.EventsConfig, awsCfg config.AWSConfig) (Publisher, error) {
	switch cfg.Backend {
	case "", "none":
		return Nop(), nil
	case "sns":
		sdkCfg, err := awsCfg.SDKConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return NewSNSPublisher(sdkCfg, cfg.SNSTopicARN)
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}
