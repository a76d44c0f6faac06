// Package payment bills contracts through the Stripe REST API: a one-time invoice for
// sprint engagements and a monthly subscription for retainers.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"contractflow/internal/contract"
	"contractflow/internal/providers"
)

const ProviderID = "stripe"

const defaultDaysUntilDue = 30

// Mode is how the contract is billed.
type Mode string

const (
	ModeOneTime   Mode = "one_time"
	ModeRecurring Mode = "recurring"
)

// Invoice is the outcome of billing one contract.
type Invoice struct {
	CustomerID     string
	InvoiceID      string
	InvoiceURL     string
	SubscriptionID string
	Mode           Mode
}

type Config struct {
	BaseURL      string
	SecretKey    string
	DaysUntilDue int
}

// Client is a form-encoded Stripe client.
type Client struct {
	cfg    Config
	caller *providers.Caller
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.DaysUntilDue <= 0 {
		cfg.DaysUntilDue = defaultDaysUntilDue
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg: cfg,
		caller: &providers.Caller{
			ProviderID: ProviderID,
			BaseURL:    cfg.BaseURL,
			HTTP:       &http.Client{},
			Authorize: func(h http.Header) {
				h.Set("Authorization", "Bearer "+cfg.SecretKey)
			},
			DecodeError: decodeError,
		},
		logger: logger,
	}
}

// Describe implements providers.Provider.
func (c *Client) Describe() providers.Descriptor {
	return providers.Descriptor{
		ID:          ProviderID,
		Kind:        providers.KindPayment,
		BaseURL:     c.cfg.BaseURL,
		Configured:  c.cfg.SecretKey != "",
		Credentials: map[string]string{"secret_key": providers.Mask(c.cfg.SecretKey)},
	}
}

type object struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	HostedInvoiceURL string `json:"hosted_invoice_url"`
	LatestInvoice    string `json:"latest_invoice"`
}

type list struct {
	Data []object `json:"data"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil || e.Error.Message == "" {
		return ""
	}
	if e.Error.Code != "" {
		return fmt.Sprintf("%s (%s/%s)", e.Error.Message, e.Error.Type, e.Error.Code)
	}
	return e.Error.Message
}

func (c *Client) post(ctx context.Context, op, path string, form url.Values) (*object, error) {
	var out object
	err := c.caller.JSON(ctx, providers.Request{
		Operation:   op,
		Method:      http.MethodPost,
		Path:        path,
		Body:        providers.FormBody(form),
		ContentType: "application/x-www-form-urlencoded",
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, c.caller.Fail(op, providers.ErrorBadData, "no id in response")
	}
	return &out, nil
}

// EnsureCustomer returns the customer with email, creating it when none exists.
func (c *Client) EnsureCustomer(ctx context.Context, email, name, company string) (string, error) {
	var found list
	err := c.caller.JSON(ctx, providers.Request{
		Operation: "find_customer",
		Method:    http.MethodGet,
		Path:      "/v1/customers",
		Query:     url.Values{"email": {email}, "limit": {"1"}},
	}, &found)
	if err != nil {
		return "", err
	}
	if len(found.Data) > 0 && found.Data[0].ID != "" {
		return found.Data[0].ID, nil
	}

	created, err := c.post(ctx, "create_customer", "/v1/customers", url.Values{
		"email":             {email},
		"name":              {name},
		"description":       {company},
		"metadata[company]": {company},
	})
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// Bill creates the invoice or subscription for req. On failure the returned Invoice
// still carries whatever identifiers were created before the failing call.
func (c *Client) Bill(ctx context.Context, req contract.Request) (*Invoice, error) {
	inv := &Invoice{Mode: ModeOneTime}
	if req.Variant.Recurring() {
		inv.Mode = ModeRecurring
	}

	customerID, err := c.EnsureCustomer(ctx, req.ClientEmail, req.ClientName(), req.ClientCompany)
	if err != nil {
		return inv, err
	}
	inv.CustomerID = customerID

	if inv.Mode == ModeRecurring {
		err = c.subscribe(ctx, req, inv)
	} else {
		err = c.invoiceOnce(ctx, req, inv)
	}
	if err != nil {
		return inv, err
	}
	c.logger.InfoContext(ctx, "contract billed",
		"customer_id", inv.CustomerID,
		"invoice_id", inv.InvoiceID,
		"subscription_id", inv.SubscriptionID,
		"mode", inv.Mode,
	)
	return inv, nil
}

func (c *Client) sendInvoiceSettings(form url.Values) {
	form.Set("collection_method", "send_invoice")
	form.Set("days_until_due", strconv.Itoa(c.cfg.DaysUntilDue))
	form.Set("payment_settings[payment_method_types][0]", "customer_balance")
	form.Set("payment_settings[payment_method_options][customer_balance][funding_type]", "bank_transfer")
	form.Set("payment_settings[payment_method_options][customer_balance][bank_transfer][type]", "us_bank_transfer")
}

func description(req contract.Request) string {
	return fmt.Sprintf("%s - %s", req.ClientCompany, req.Variant.DisplayName())
}

func (c *Client) invoiceOnce(ctx context.Context, req contract.Request, inv *Invoice) error {
	form := url.Values{
		"customer":    {inv.CustomerID},
		"description": {description(req)},
	}
	c.sendInvoiceSettings(form)
	created, err := c.post(ctx, "create_invoice", "/v1/invoices", form)
	if err != nil {
		return err
	}
	inv.InvoiceID = created.ID

	_, err = c.post(ctx, "create_invoice_item", "/v1/invoiceitems", url.Values{
		"customer":    {inv.CustomerID},
		"invoice":     {inv.InvoiceID},
		"amount":      {strconv.FormatInt(req.Amount.Cents(), 10)},
		"currency":    {"usd"},
		"description": {description(req) + ": " + req.ScopeText()},
	})
	if err != nil {
		return err
	}

	finalized, err := c.finalize(ctx, inv.InvoiceID)
	if err != nil {
		return err
	}
	inv.InvoiceURL = finalized.HostedInvoiceURL
	return nil
}

func (c *Client) subscribe(ctx context.Context, req contract.Request, inv *Invoice) error {
	price, err := c.post(ctx, "create_price", "/v1/prices", url.Values{
		"unit_amount":         {strconv.FormatInt(req.Amount.Cents(), 10)},
		"currency":            {"usd"},
		"recurring[interval]": {"month"},
		"product_data[name]":  {description(req)},
	})
	if err != nil {
		return err
	}

	form := url.Values{
		"customer":          {inv.CustomerID},
		"items[0][price]":   {price.ID},
		"description":       {description(req)},
		"metadata[company]": {req.ClientCompany},
	}
	c.sendInvoiceSettings(form)
	sub, err := c.post(ctx, "create_subscription", "/v1/subscriptions", form)
	if err != nil {
		return err
	}
	inv.SubscriptionID = sub.ID
	if sub.LatestInvoice == "" {
		return c.caller.Fail("create_subscription", providers.ErrorBadData, "subscription has no latest_invoice")
	}
	inv.InvoiceID = sub.LatestInvoice

	var first object
	err = c.caller.JSON(ctx, providers.Request{
		Operation: "get_invoice",
		Method:    http.MethodGet,
		Path:      "/v1/invoices/" + url.PathEscape(inv.InvoiceID),
	}, &first)
	if err != nil {
		return err
	}
	if first.Status == "draft" || first.HostedInvoiceURL == "" {
		finalized, err := c.finalize(ctx, inv.InvoiceID)
		if err != nil {
			return err
		}
		first = *finalized
	}
	inv.InvoiceURL = first.HostedInvoiceURL
	return nil
}

func (c *Client) finalize(ctx context.Context, invoiceID string) (*object, error) {
	return c.post(ctx, "finalize_invoice", "/v1/invoices/"+url.PathEscape(invoiceID)+"/finalize", url.Values{})
}
