package providertest

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Route names shared by tests.
const (
	SignNowToken          = "POST /oauth2/token"
	SignNowUpload         = "POST /document"
	SignNowDocument       = "GET /document/{id}"
	SignNowFields         = "PUT /document/{id}"
	SignNowEmbeddedInvite = "POST /v2/documents/{id}/embedded-invites"
	SignNowEmbeddedLink   = "POST /v2/documents/{id}/embedded-invites/{invite}/link"
	SignNowInvite         = "POST /document/{id}/invite"

	StripeFindCustomer   = "GET /v1/customers"
	StripeCreateCustomer = "POST /v1/customers"
	StripeCreateInvoice  = "POST /v1/invoices"
	StripeInvoiceItem    = "POST /v1/invoiceitems"
	StripeFinalize       = "POST /v1/invoices/{id}/finalize"
	StripeGetInvoice     = "GET /v1/invoices/{id}"
	StripePrice          = "POST /v1/prices"
	StripeSubscription   = "POST /v1/subscriptions"

	ClickUpCreateTask = "POST /api/v2/list/{list}/task"
	ClickUpGetList    = "GET /api/v2/list/{list}"

	SlackViewsOpen   = "POST /views.open"
	SlackPostMessage = "POST /chat.postMessage"
	SlackOpenDM      = "POST /conversations.open"
)

// Canned identifiers returned by the fakes.
const (
	AccessToken    = "tok-123"
	DocumentID     = "doc-123"
	RoleID         = "role-client"
	InviteID       = "inv-1"
	EmbeddedLink   = "https://app.signnow.test/embedded/inv-1"
	CustomerID     = "cus_123"
	InvoiceID      = "in_123"
	SubscriptionID = "sub_123"
	SubInvoiceID   = "in_sub_1"
	TaskID         = "task_123"
	DMChannelID    = "D123"
)

// InvoiceURL is the hosted URL the Stripe fake returns for a finalized invoice.
func InvoiceURL(id string) string {
	return "https://invoice.stripe.test/i/" + id
}

// TaskURL is the URL the ClickUp fake returns for a created task.
func TaskURL(id string) string {
	return "https://app.clickup.test/t/" + id
}

// NewSignNow starts a SignNow fake with a three-page document and one "Client" role.
func NewSignNow(t testing.TB) *Server {
	s := newServer(t)
	s.handle(http.MethodPost, "/oauth2/token", func(*http.Request) any {
		return map[string]any{"access_token": AccessToken, "token_type": "bearer", "expires_in": 3600}
	})
	s.handle(http.MethodPost, "/document", func(*http.Request) any {
		return map[string]any{"id": DocumentID}
	})
	s.handle(http.MethodGet, "/document/{id}", func(r *http.Request) any {
		return map[string]any{
			"id":         chi.URLParam(r, "id"),
			"page_count": "3",
			"roles":      []map[string]string{{"unique_id": RoleID, "name": "Client"}},
		}
	})
	s.handle(http.MethodPut, "/document/{id}", func(r *http.Request) any {
		return map[string]any{"id": chi.URLParam(r, "id")}
	})
	s.handle(http.MethodPost, "/v2/documents/{id}/embedded-invites", func(*http.Request) any {
		return map[string]any{"data": []map[string]string{{"id": InviteID}}}
	})
	s.handle(http.MethodPost, "/v2/documents/{id}/embedded-invites/{invite}/link", func(*http.Request) any {
		return map[string]any{"data": map[string]string{"link": EmbeddedLink}}
	})
	s.handle(http.MethodPost, "/document/{id}/invite", func(*http.Request) any {
		return map[string]any{"status": "success"}
	})
	return s
}

// NewStripe starts a Stripe fake with no pre-existing customers.
func NewStripe(t testing.TB) *Server {
	s := newServer(t)
	s.handle(http.MethodGet, "/v1/customers", func(*http.Request) any {
		return map[string]any{"object": "list", "data": []any{}}
	})
	s.handle(http.MethodPost, "/v1/customers", func(*http.Request) any {
		return map[string]any{"id": CustomerID, "object": "customer"}
	})
	s.handle(http.MethodPost, "/v1/invoices", func(*http.Request) any {
		return map[string]any{"id": InvoiceID, "object": "invoice", "status": "draft"}
	})
	s.handle(http.MethodPost, "/v1/invoiceitems", func(*http.Request) any {
		return map[string]any{"id": "ii_123", "object": "invoiceitem"}
	})
	s.handle(http.MethodPost, "/v1/invoices/{id}/finalize", func(r *http.Request) any {
		id := chi.URLParam(r, "id")
		return map[string]any{"id": id, "object": "invoice", "status": "open", "hosted_invoice_url": InvoiceURL(id)}
	})
	s.handle(http.MethodGet, "/v1/invoices/{id}", func(r *http.Request) any {
		return map[string]any{"id": chi.URLParam(r, "id"), "object": "invoice", "status": "draft"}
	})
	s.handle(http.MethodPost, "/v1/prices", func(*http.Request) any {
		return map[string]any{"id": "price_123", "object": "price"}
	})
	s.handle(http.MethodPost, "/v1/subscriptions", func(*http.Request) any {
		return map[string]any{"id": SubscriptionID, "object": "subscription", "status": "active", "latest_invoice": SubInvoiceID}
	})
	return s
}

// NewClickUp starts a ClickUp fake.
func NewClickUp(t testing.TB) *Server {
	s := newServer(t)
	s.handle(http.MethodPost, "/api/v2/list/{list}/task", func(*http.Request) any {
		return map[string]any{"id": TaskID, "url": TaskURL(TaskID)}
	})
	s.handle(http.MethodGet, "/api/v2/list/{list}", func(r *http.Request) any {
		return map[string]any{"id": chi.URLParam(r, "list"), "name": "Contracts", "task_count": 7}
	})
	return s
}

// NewSlack starts a Slack Web API fake.
func NewSlack(t testing.TB) *Server {
	s := newServer(t)
	s.handle(http.MethodPost, "/views.open", func(*http.Request) any {
		return map[string]any{"ok": true, "view": map[string]string{"id": "V123"}}
	})
	s.handle(http.MethodPost, "/chat.postMessage", func(*http.Request) any {
		return map[string]any{"ok": true, "ts": "1700000000.000100"}
	})
	s.handle(http.MethodPost, "/conversations.open", func(*http.Request) any {
		return map[string]any{"ok": true, "channel": map[string]string{"id": DMChannelID}}
	})
	return s
}
