// Package tracker logs contracts as tasks in a ClickUp list.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"contractflow/internal/contract"
	"contractflow/internal/providers"
)

const ProviderID = "clickup"

type Config struct {
	BaseURL string
	Token   string
	ListID  string
}

// Task is the tracker item created for one contract.
type Task struct {
	Name                string   `json:"name"`
	MarkdownDescription string   `json:"markdown_description"`
	Tags                []string `json:"tags"`
}

// Created identifies a task after creation.
type Created struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// List is the read-only list summary used by diagnostics.
type List struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TaskCount int    `json:"task_count"`
}

// References carries the identifiers produced by earlier pipeline stages.
type References struct {
	DocumentID  string
	SigningLink string
	InvoiceID   string
	InvoiceURL  string
}

// NewContractTask builds the task for req: "<Company> - <VARIANT> - $<amount>".
func NewContractTask(req contract.Request, refs References) Task {
	var b strings.Builder
	fmt.Fprintf(&b, "**Client:** %s (%s, %s)\n", req.ClientName(), req.ClientTitle, req.ClientCompany)
	fmt.Fprintf(&b, "**Email:** %s\n", req.ClientEmail)
	fmt.Fprintf(&b, "**Type:** %s\n", req.Variant.DisplayName())
	fmt.Fprintf(&b, "**Amount:** %s\n", req.Amount.USD())
	fmt.Fprintf(&b, "**Effective date:** %s\n", req.EffectiveDateText())
	fmt.Fprintf(&b, "**Scope:** %s\n\n", req.ScopeText())
	if refs.DocumentID != "" {
		fmt.Fprintf(&b, "**Agreement:** %s", refs.DocumentID)
		if refs.SigningLink != "" {
			fmt.Fprintf(&b, " ([signing link](%s))", refs.SigningLink)
		}
		b.WriteString("\n")
	}
	if refs.InvoiceID != "" {
		fmt.Fprintf(&b, "**Invoice:** %s", refs.InvoiceID)
		if refs.InvoiceURL != "" {
			fmt.Fprintf(&b, " ([view invoice](%s))", refs.InvoiceURL)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("**Invoice:** not created\n")
	}

	return Task{
		Name:                fmt.Sprintf("%s - %s - %s", req.ClientCompany, req.Variant.Tag(), req.Amount.USD()),
		MarkdownDescription: b.String(),
		Tags:                []string{"contract", string(req.Variant)},
	}
}

// Client is a ClickUp API v2 client bound to one list.
type Client struct {
	cfg    Config
	caller *providers.Caller
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
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
				h.Set("Authorization", cfg.Token)
			},
			DecodeError: decodeError,
		},
		logger: logger,
	}
}

// Describe implements providers.Provider.
func (c *Client) Describe() providers.Descriptor {
	return providers.Descriptor{
		ID:         ProviderID,
		Kind:       providers.KindTracker,
		BaseURL:    c.cfg.BaseURL,
		Configured: c.cfg.Token != "" && c.cfg.ListID != "",
		Credentials: map[string]string{
			"token":   providers.Mask(c.cfg.Token),
			"list_id": c.cfg.ListID,
		},
	}
}

func decodeError(body []byte) string {
	var e struct {
		Err   string `json:"err"`
		ECode string `json:"ECODE"`
	}
	if err := json.Unmarshal(body, &e); err != nil || e.Err == "" {
		return ""
	}
	if e.ECode != "" {
		return e.Err + " (" + e.ECode + ")"
	}
	return e.Err
}

func (c *Client) listPath() string {
	return "/api/v2/list/" + url.PathEscape(c.cfg.ListID)
}

// CreateTask adds task to the configured list.
func (c *Client) CreateTask(ctx context.Context, task Task) (*Created, error) {
	body, err := providers.JSONBody(task)
	if err != nil {
		return nil, err
	}
	var created Created
	err = c.caller.JSON(ctx, providers.Request{
		Operation:   "create_task",
		Method:      http.MethodPost,
		Path:        c.listPath() + "/task",
		Body:        body,
		ContentType: "application/json",
	}, &created)
	if err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, c.caller.Fail("create_task", providers.ErrorBadData, "no task id in response")
	}
	c.logger.InfoContext(ctx, "tracker task created", "task_id", created.ID, "list_id", c.cfg.ListID)
	return &created, nil
}

// List fetches the configured list. It never writes.
func (c *Client) List(ctx context.Context) (*List, error) {
	var l List
	err := c.caller.JSON(ctx, providers.Request{
		Operation: "get_list",
		Method:    http.MethodGet,
		Path:      c.listPath(),
	}, &l)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
