package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/Keoroanthony/go-storefront/configs"
	"github.com/Keoroanthony/go-storefront/internal/models"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sns.PublishOutput{}, f.err
}

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func sampleOrder() *models.Order {
	return &models.Order{ID: 7, UserID: 3, Status: models.StatusPending, TotalAmount: decimal.RequireFromString("20")}
}

func TestForOrder(t *testing.T) {
	evt := ForOrder(OrderCreated, sampleOrder())

	assert.Equal(t, OrderCreated, evt.Type)
	assert.Equal(t, uint(7), evt.OrderID)
	assert.Equal(t, "20.00", evt.Amount)
	assert.Equal(t, "Pending", evt.Status)
	assert.Equal(t, "7", evt.Key())
}

func TestSNSPublisher(t *testing.T) {
	client := &fakeSNS{}
	p, err := newSNSPublisher(client, "arn:aws:sns:us-east-1:123:orders")
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), ForOrder(PaymentCompleted, sampleOrder())))
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:123:orders", aws.ToString(in.TopicArn))
	assert.Equal(t, "payment.completed", aws.ToString(in.MessageAttributes["event_type"].StringValue))

	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.Message)), &decoded))
	assert.Equal(t, uint(7), decoded.OrderID)

	client.err = errors.New("throttled")
	assert.Error(t, p.Publish(context.Background(), ForOrder(OrderCreated, sampleOrder())))

	_, err = newSNSPublisher(client, "")
	assert.Error(t, err)
}

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.Publish(context.Background(), ForOrder(OrderCancelled, sampleOrder())))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "7", string(w.msgs[0].Key))
	assert.Equal(t, "order.cancelled", string(w.msgs[0].Headers[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	_, err := NewKafkaPublisher(nil, "orders")
	assert.Error(t, err)
}

func TestNewSelectsBackend(t *testing.T) {
	p, err := New(context.Background(), config.EventsConfig{Backend: "none"}, config.AWSConfig{})
	require.NoError(t, err)
	assert.NoError(t, p.Publish(context.Background(), Event{}))

	p, err = New(context.Background(), config.EventsConfig{Backend: "kafka", KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "orders"}, config.AWSConfig{})
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	assert.NoError(t, p.Close())

	_, err = New(context.Background(), config.EventsConfig{Backend: "carrier-pigeon"}, config.AWSConfig{})
	assert.Error(t, err)
}
