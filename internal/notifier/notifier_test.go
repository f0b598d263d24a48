package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/Keoroanthony/go-storefront/configs"
	"github.com/Keoroanthony/go-storefront/internal/models"
)

type fakeSES struct {
	mu     sync.Mutex
	inputs []*ses.SendEmailInput
}

func (f *fakeSES) SendEmail(ctx context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	return &ses.SendEmailOutput{}, nil
}

func newSMSServer(t *testing.T, status int, got *url.Values, apiKey *string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		*got = r.PostForm
		*apiKey = r.Header.Get("apikey")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"SMSMessageData":{"Message":"Sent to 1/1","Recipients":[]}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSMSSenderPostsForm(t *testing.T) {
	var form url.Values
	var apiKey string
	srv := newSMSServer(t, http.StatusCreated, &form, &apiKey)

	sender := NewSMSSender(config.AfricaTalkingConfig{Username: "sandbox", APIKey: "key-1", SMSURL: srv.URL, SenderID: "SHOP"})
	require.NoError(t, sender.Send(context.Background(), "+254700000001", "hello"))

	assert.Equal(t, "sandbox", form.Get("username"))
	assert.Equal(t, "+254700000001", form.Get("to"))
	assert.Equal(t, "hello", form.Get("message"))
	assert.Equal(t, "SHOP", form.Get("from"))
	assert.Equal(t, "key-1", apiKey)
}

func TestSMSSenderReportsFailureStatus(t *testing.T) {
	var form url.Values
	var apiKey string
	srv := newSMSServer(t, http.StatusUnauthorized, &form, &apiKey)

	sender := NewSMSSender(config.AfricaTalkingConfig{SMSURL: srv.URL})
	assert.Error(t, sender.Send(context.Background(), "+254700000001", "hello"))
	assert.Error(t, sender.Send(context.Background(), "", "hello"))
}

func TestEmailSender(t *testing.T) {
	client := &fakeSES{}
	sender := &EmailSender{client: client, sender: "shop@example.com"}

	require.NoError(t, sender.Send(context.Background(), Email{To: "alice@example.com", Subject: "Hi", HTML: "<p>hi</p>", Text: "hi"}))
	require.Len(t, client.inputs, 1)
	assert.Equal(t, "shop@example.com", aws.ToString(client.inputs[0].Source))
	assert.Equal(t, []string{"alice@example.com"}, client.inputs[0].Destination.ToAddresses)

	assert.Error(t, sender.Send(context.Background(), Email{Subject: "no recipient"}))
	assert.Error(t, (&EmailSender{client: client}).Send(context.Background(), Email{To: "alice@example.com"}))
}

func TestOrderPlacedUsesConfiguredChannels(t *testing.T) {
	var form url.Values
	var apiKey string
	srv := newSMSServer(t, http.StatusCreated, &form, &apiKey)
	mail := &fakeSES{}

	n := New(
		NewSMSSender(config.AfricaTalkingConfig{Username: "sandbox", APIKey: "k", SMSURL: srv.URL}),
		&EmailSender{client: mail, sender: "shop@example.com"},
	)

	phone := "+254700000001"
	user := models.User{Username: "alice", Email: "alice@example.com", Phone: &phone}
	order := models.Order{ID: 9, TotalAmount: decimal.RequireFromString("20"), Items: make([]models.OrderItem, 1)}

	n.OrderPlaced(context.Background(), user, order)

	assert.Contains(t, form.Get("message"), "Total: KES 20.00")
	require.Len(t, mail.inputs, 1)
	assert.Contains(t, aws.ToString(mail.inputs[0].Message.Subject.Data), "Order #9")
}

func TestZeroNotifierSendsNothing(t *testing.T) {
	n := Default()
	assert.NotPanics(t, func() {
		n.OrderPlaced(context.Background(), models.User{}, models.Order{})
		n.PaymentReceived(context.Background(), models.User{}, models.Order{}, models.Payment{})
	})
}
