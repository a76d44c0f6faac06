package pipeline

import (
	"time"

	"github.com/google/uuid"

	"contractflow/internal/contract"
)

// Stage names one step of a run.
type Stage string

const (
	StageRender       Stage = "render"
	StageAuthenticate Stage = "authenticate"
	StageUpload       Stage = "upload"
	StageMetadata     Stage = "fetch_metadata"
	StagePlaceFields  Stage = "place_fields"
	StageSigningLink  Stage = "signing_link"
	StageEmailInvite  Stage = "email_invite"
	StageInvoice      Stage = "invoice"
	StageTask         Stage = "task"
	StageArchive      Stage = "archive"
	StageReport       Stage = "report"
	StageLedger       Stage = "ledger"
)

// Intake sources.
const (
	SourceWebhook = "webhook"
	SourceSlack   = "slack"
	SourceHandoff = "handoff"
	SourceCLI     = "cli"
)

// Origin records where a submission came from and where to report it.
type Origin struct {
	Source    string `json:"source"`
	RequestID string `json:"request_id,omitempty"`
	// ChannelID overrides the default report channel.
	ChannelID string `json:"channel_id,omitempty"`
	// UserID is the Slack user to DM with the result, when enabled.
	UserID string `json:"user_id,omitempty"`
}

// Job is one validated request ready to run. It is what the hand-off carries.
type Job struct {
	ID         string           `json:"id"`
	Request    contract.Request `json:"request"`
	Origin     Origin           `json:"origin"`
	ReceivedAt time.Time        `json:"received_at"`
}

// NewJob assigns a run id.
func NewJob(req contract.Request, origin Origin, receivedAt time.Time) Job {
	return Job{ID: uuid.NewString(), Request: req, Origin: origin, ReceivedAt: receivedAt}
}

// Summary is the request as echoed in results and reports.
type Summary struct {
	Company     string           `json:"company"`
	ClientName  string           `json:"client_name"`
	ClientEmail string           `json:"client_email"`
	Variant     contract.Variant `json:"variant"`
	Amount      string           `json:"amount"`
	AmountCents int64            `json:"amount_cents"`
}

// ESignResult is the e-signature sub-result. Error records a failed email invite;
// failures in the fatal chain are reported on the Result itself.
type ESignResult struct {
	DocumentID      string `json:"document_id"`
	SigningLink     string `json:"signing_link,omitempty"`
	LinkType        string `json:"link_type,omitempty"`
	EmailInviteSent bool   `json:"email_invite_sent"`
	Error           string `json:"error,omitempty"`
}

type PaymentResult struct {
	CustomerID     string `json:"customer_id,omitempty"`
	InvoiceID      string `json:"invoice_id,omitempty"`
	InvoiceURL     string `json:"invoice_url,omitempty"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Error          string `json:"error,omitempty"`
}

type TaskResult struct {
	TaskID  string `json:"task_id,omitempty"`
	TaskURL string `json:"task_url,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ArchiveResult struct {
	ObjectKey string `json:"object_key,omitempty"`
	URL       string `json:"url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result is the aggregate outcome of a run. Sub-results are nil when their stage was
// never reached.
type Result struct {
	RunID      string         `json:"run_id"`
	Success    bool           `json:"success"`
	Stage      Stage          `json:"stage,omitempty"`
	Error      string         `json:"error,omitempty"`
	Request    Summary        `json:"request"`
	ESign      *ESignResult   `json:"signnow,omitempty"`
	Payment    *PaymentResult `json:"stripe,omitempty"`
	Task       *TaskResult    `json:"clickup,omitempty"`
	Archive    *ArchiveResult `json:"archive,omitempty"`
	Source     string         `json:"source"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

func newResult(job Job, started time.Time) *Result {
	req := job.Request
	return &Result{
		RunID: job.ID,
		Request: Summary{
			Company:     req.ClientCompany,
			ClientName:  req.ClientName(),
			ClientEmail: req.ClientEmail,
			Variant:     req.Variant,
			Amount:      req.Amount.USD(),
			AmountCents: req.Amount.Cents(),
		},
		Source:    job.Origin.Source,
		StartedAt: started,
	}
}

// StageErrors lists the best-effort stages that failed, as "stage: error".
func (r *Result) StageErrors() []string {
	var out []string
	if r.ESign != nil && r.ESign.Error != "" {
		out = append(out, string(StageEmailInvite)+": "+r.ESign.Error)
	}
	if r.Payment != nil && r.Payment.Error != "" {
		out = append(out, string(StageInvoice)+": "+r.Payment.Error)
	}
	if r.Task != nil && r.Task.Error != "" {
		out = append(out, string(StageTask)+": "+r.Task.Error)
	}
	if r.Archive != nil && r.Archive.Error != "" {
		out = append(out, string(StageArchive)+": "+r.Archive.Error)
	}
	return out
}
