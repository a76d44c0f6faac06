package payment

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"contractflow/internal/contract"
	"contractflow/internal/providers"
	"contractflow/internal/providers/contracttest"
	"contractflow/internal/providers/providertest"
)

type BillSuite struct {
	suite.Suite
	srv    *providertest.Server
	client *Client
}

func TestBillSuite(t *testing.T) {
	suite.Run(t, new(BillSuite))
}

func (s *BillSuite) SetupTest() {
	s.srv = providertest.NewStripe(s.T())
	s.client = New(Config{BaseURL: s.srv.URL, SecretKey: "sk_test_123"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func request(variant contract.Variant) contract.Request {
	return contract.Request{
		Variant:       variant,
		ClientCompany: "Acme Corp",
		ClientFirst:   "John",
		ClientLast:    "Doe",
		ClientTitle:   "CEO",
		ClientEmail:   "john@acme.com",
		Amount:        500000,
		EffectiveDate: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
	}
}

func (s *BillSuite) TestOneTimeInvoice() {
	inv, err := s.client.Bill(context.Background(), request(contract.VariantSprint1))
	s.Require().NoError(err)

	s.Equal(&Invoice{
		CustomerID: providertest.CustomerID,
		InvoiceID:  providertest.InvoiceID,
		InvoiceURL: providertest.InvoiceURL(providertest.InvoiceID),
		Mode:       ModeOneTime,
	}, inv)
	s.Equal([]string{
		providertest.StripeFindCustomer,
		providertest.StripeCreateCustomer,
		providertest.StripeCreateInvoice,
		providertest.StripeInvoiceItem,
		providertest.StripeFinalize,
	}, s.srv.Routes())

	invoice, _ := s.srv.Last(providertest.StripeCreateInvoice)
	s.Equal("Bearer sk_test_123", invoice.Header.Get("Authorization"))
	s.Equal("send_invoice", invoice.Form.Get("collection_method"))
	s.Equal("30", invoice.Form.Get("days_until_due"))
	s.Equal("customer_balance", invoice.Form.Get("payment_settings[payment_method_types][0]"))

	item, _ := s.srv.Last(providertest.StripeInvoiceItem)
	s.Equal("500000", item.Form.Get("amount"))
	s.Equal("usd", item.Form.Get("currency"))
	s.Equal(providertest.InvoiceID, item.Form.Get("invoice"))
}

func (s *BillSuite) TestRecurringSubscription() {
	inv, err := s.client.Bill(context.Background(), request(contract.VariantPhase2))
	s.Require().NoError(err)

	s.Equal(ModeRecurring, inv.Mode)
	s.Equal(providertest.SubscriptionID, inv.SubscriptionID)
	s.Equal(providertest.SubInvoiceID, inv.InvoiceID)
	s.Equal(providertest.InvoiceURL(providertest.SubInvoiceID), inv.InvoiceURL)

	price, _ := s.srv.Last(providertest.StripePrice)
	s.Equal("month", price.Form.Get("recurring[interval]"))
	s.Equal("500000", price.Form.Get("unit_amount"))

	sub, _ := s.srv.Last(providertest.StripeSubscription)
	s.Equal("price_123", sub.Form.Get("items[0][price]"))
	s.Equal("send_invoice", sub.Form.Get("collection_method"))
	s.True(s.srv.Called(providertest.StripeFinalize), "draft first invoice must be finalized")
}

func (s *BillSuite) TestRecurringSkipsFinalizeForOpenInvoice() {
	s.srv.Respond(providertest.StripeGetInvoice, http.StatusOK,
		`{"id":"in_sub_1","status":"open","hosted_invoice_url":"https://invoice.stripe.test/i/open"}`)

	inv, err := s.client.Bill(context.Background(), request(contract.VariantPhase2))
	s.Require().NoError(err)
	s.Equal("https://invoice.stripe.test/i/open", inv.InvoiceURL)
	s.False(s.srv.Called(providertest.StripeFinalize))
}

func (s *BillSuite) TestExistingCustomerIsReused() {
	s.srv.Respond(providertest.StripeFindCustomer, http.StatusOK, `{"data":[{"id":"cus_existing"}]}`)

	inv, err := s.client.Bill(context.Background(), request(contract.VariantSprint1))
	s.Require().NoError(err)
	s.Equal("cus_existing", inv.CustomerID)
	s.False(s.srv.Called(providertest.StripeCreateCustomer))
}

func (s *BillSuite) TestFailureKeepsPartialIdentifiers() {
	s.srv.Respond(providertest.StripeInvoiceItem, http.StatusBadRequest,
		`{"error":{"type":"invalid_request_error","code":"amount_too_large","message":"Amount too large"}}`)

	inv, err := s.client.Bill(context.Background(), request(contract.VariantSprint1))
	s.Require().Error(err)
	s.Contains(err.Error(), "Amount too large")
	s.Equal(providertest.CustomerID, inv.CustomerID)
	s.Equal(providertest.InvoiceID, inv.InvoiceID)
	s.Empty(inv.InvoiceURL)
	s.False(s.srv.Called(providertest.StripeFinalize))
}

func TestErrorContract(t *testing.T) {
	srv := providertest.NewStripe(t)
	srv.Fail(providertest.StripeFindCustomer, http.StatusUnauthorized)
	c := New(Config{BaseURL: srv.URL, SecretKey: "bad"}, nil)

	rl := providertest.NewStripe(t)
	rl.Fail(providertest.StripeFindCustomer, http.StatusTooManyRequests)
	limited := New(Config{BaseURL: rl.URL, SecretKey: "sk"}, nil)

	contractSuite := &contracttest.ErrorContractSuite{
		ProviderID: ProviderID,
		Tests: []contracttest.ErrorContractTest{
			{
				Name: "invalid key",
				Call: func(ctx context.Context) error {
					_, err := c.Bill(ctx, request(contract.VariantSprint1))
					return err
				},
				ExpectedError: providers.ErrorAuthentication,
			},
			{
				Name: "rate limited",
				Call: func(ctx context.Context) error {
					_, err := limited.EnsureCustomer(ctx, "a@b.co", "A", "B")
					return err
				},
				ExpectedError: providers.ErrorRateLimited,
				ExpectedRetry: true,
			},
		},
	}
	contractSuite.Run(t)
}

func TestDescribeMasksSecret(t *testing.T) {
	d := New(Config{BaseURL: "https://api.stripe.com", SecretKey: "sk_live_abcdef"}, nil).Describe()
	assert.True(t, d.Configured)
	assert.Equal(t, "sk_l****", d.Credentials["secret_key"])
	require.Equal(t, providers.KindPayment, d.Kind)
}
