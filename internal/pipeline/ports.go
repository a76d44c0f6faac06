package pipeline

import (
	"context"

	"contractflow/internal/archive"
	"contractflow/internal/contract"
	"contractflow/internal/providers/chat"
	"contractflow/internal/providers/esign"
	"contractflow/internal/providers/payment"
	"contractflow/internal/providers/tracker"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// Renderer builds the agreement document.
type Renderer interface {
	Render(req contract.Request) ([]byte, error)
}

// ESign is the e-signature provider, called in declaration order.
type ESign interface {
	Authenticate(ctx context.Context) (string, error)
	Upload(ctx context.Context, token, filename string, doc []byte) (string, error)
	Document(ctx context.Context, token, id string) (*esign.Document, error)
	PlaceFields(ctx context.Context, token, id string, pageCount int) error
	SigningLink(ctx context.Context, token, id, signerEmail string) (esign.Link, error)
	SendInvite(ctx context.Context, token, id, signerEmail string) error
	SendEmailInvite() bool
}

// Billing creates the invoice or subscription for a contract.
type Billing interface {
	Bill(ctx context.Context, req contract.Request) (*payment.Invoice, error)
}

// Tracker logs the contract as a task.
type Tracker interface {
	CreateTask(ctx context.Context, task tracker.Task) (*tracker.Created, error)
}

// Archiver keeps a copy of the rendered document.
type Archiver interface {
	Put(ctx context.Context, key string, doc []byte) (*archive.Object, error)
}

// Reporter announces a finished run.
type Reporter interface {
	Report(ctx context.Context, job Job, res *Result) error
}

// Ledger records finished runs.
type Ledger interface {
	Record(ctx context.Context, job Job, res *Result) error
}

// Chat is the subset of the chat client the Slack reporter uses.
type Chat interface {
	PostMessage(ctx context.Context, msg chat.Message) (string, error)
	OpenDM(ctx context.Context, userID string) (string, error)
}
