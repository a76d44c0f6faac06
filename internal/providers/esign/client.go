// Package esign is a thin client for the SignNow REST API covering the calls the
// contract pipeline makes, in the order it makes them.
package esign

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"contractflow/internal/providers"
)

const ProviderID = "signnow"

const (
	defaultTimeout        = 30 * time.Second
	defaultSignerRole     = "Client"
	defaultLinkExpiration = 45 // days

	// US date validator for the date-signed field.
	dateValidatorID = "13435fa6c2a17f83177fcbb5c4a9376ce85befeb"
)

// Config holds SignNow credentials and behavior toggles.
type Config struct {
	BaseURL    string
	AppURL     string
	BasicToken string
	Username   string
	Password   string
	// SendEmailInvite makes the pipeline also send SignNow's own email invite.
	SendEmailInvite bool
	Timeout         time.Duration
	SignerRole      string
	// LinkExpiration is the embedded link lifetime in days.
	LinkExpiration int
}

// Client talks to SignNow. It is the only provider client with an explicit socket
// timeout, because uploads are the slowest calls in the pipeline.
type Client struct {
	cfg    Config
	caller *providers.Caller
	logger *slog.Logger
}

// New builds a client with defaults applied.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.SignerRole == "" {
		cfg.SignerRole = defaultSignerRole
	}
	if cfg.LinkExpiration <= 0 {
		cfg.LinkExpiration = defaultLinkExpiration
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg: cfg,
		caller: &providers.Caller{
			ProviderID:  ProviderID,
			BaseURL:     cfg.BaseURL,
			HTTP:        &http.Client{Timeout: cfg.Timeout},
			DecodeError: decodeError,
		},
		logger: logger,
	}
}

// SendEmailInvite reports whether the email invite step is enabled.
func (c *Client) SendEmailInvite() bool {
	return c.cfg.SendEmailInvite
}

// Describe implements providers.Provider.
func (c *Client) Describe() providers.Descriptor {
	return providers.Descriptor{
		ID:         ProviderID,
		Kind:       providers.KindESign,
		BaseURL:    c.cfg.BaseURL,
		Configured: c.cfg.BasicToken != "" && c.cfg.Username != "" && c.cfg.Password != "",
		Credentials: map[string]string{
			"basic_token": providers.Mask(c.cfg.BasicToken),
			"username":    c.cfg.Username,
		},
	}
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

// Authenticate exchanges the account credentials for an access token.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {c.cfg.Username},
		"password":   {c.cfg.Password},
		"scope":      {"*"},
	}
	var resp tokenResponse
	err := c.caller.JSON(ctx, providers.Request{
		Operation:   "authenticate",
		Method:      http.MethodPost,
		Path:        "/oauth2/token",
		Body:        providers.FormBody(form),
		ContentType: "application/x-www-form-urlencoded",
		Header:      http.Header{"Authorization": {"Basic " + c.cfg.BasicToken}},
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", c.caller.Fail("authenticate", providers.ErrorAuthentication, "no access_token in response")
	}
	return resp.AccessToken, nil
}

// Upload sends the document as a multipart "file" part and returns its id.
func (c *Client) Upload(ctx context.Context, token, filename string, doc []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(doc); err != nil {
		return "", fmt.Errorf("write multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	var resp uploadResponse
	err = c.caller.JSON(ctx, providers.Request{
		Operation:   "upload",
		Method:      http.MethodPost,
		Path:        "/document",
		Body:        &buf,
		ContentType: mw.FormDataContentType(),
		Header:      bearer(token),
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", c.caller.Fail("upload", providers.ErrorBadData, "no document id in response")
	}
	return resp.ID, nil
}

// Document fetches page count and signer roles.
func (c *Client) Document(ctx context.Context, token, id string) (*Document, error) {
	var doc Document
	err := c.caller.JSON(ctx, providers.Request{
		Operation: "document",
		Method:    http.MethodGet,
		Path:      "/document/" + url.PathEscape(id),
		Header:    bearer(token),
	}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// PlaceFields adds the client signature and date fields at the bottom of the last page.
func (c *Client) PlaceFields(ctx context.Context, token, id string, pageCount int) error {
	page := pageCount - 1
	if page < 0 {
		page = 0
	}
	body, err := providers.JSONBody(fieldsRequest{Fields: []field{
		{
			X: 72, Y: 640, Width: 220, Height: 40,
			PageNumber: page, Role: c.cfg.SignerRole, Required: true,
			Type: "signature", Label: "Client Signature",
		},
		{
			X: 360, Y: 650, Width: 150, Height: 30,
			PageNumber: page, Role: c.cfg.SignerRole, Required: true,
			Type: "text", Label: "Date Signed", Validator: dateValidatorID,
		},
	}})
	if err != nil {
		return err
	}
	_, err = c.caller.Do(ctx, providers.Request{
		Operation:   "place_fields",
		Method:      http.MethodPut,
		Path:        "/document/" + url.PathEscape(id),
		Body:        body,
		ContentType: "application/json",
		Header:      bearer(token),
	})
	return err
}

// ViewerURL is the fallback link to the document in the SignNow web app.
func (c *Client) ViewerURL(id string) string {
	return strings.TrimRight(c.cfg.AppURL, "/") + "/webapp/document/" + url.PathEscape(id)
}

// SigningLink creates an embedded signing link for signerEmail. On any failure it
// returns the viewer URL together with the error that caused the fallback.
func (c *Client) SigningLink(ctx context.Context, token, id, signerEmail string) (Link, error) {
	link, err := c.embeddedLink(ctx, token, id, signerEmail)
	if err != nil {
		c.logger.WarnContext(ctx, "embedded signing link failed, falling back to viewer",
			"document_id", id,
			"error", err,
		)
		return Link{URL: c.ViewerURL(id), Type: LinkViewer}, err
	}
	return Link{URL: link, Type: LinkEmbedded}, nil
}

func (c *Client) embeddedLink(ctx context.Context, token, id, signerEmail string) (string, error) {
	roleID, err := c.signerRoleID(ctx, token, id)
	if err != nil {
		return "", err
	}

	body, err := providers.JSONBody(embeddedInvitesRequest{Invites: []embeddedInvite{
		{Email: signerEmail, RoleID: roleID, Order: 1, AuthMethod: "none"},
	}})
	if err != nil {
		return "", err
	}
	var invites embeddedInvitesResponse
	err = c.caller.JSON(ctx, providers.Request{
		Operation:   "embedded_invite",
		Method:      http.MethodPost,
		Path:        "/v2/documents/" + url.PathEscape(id) + "/embedded-invites",
		Body:        body,
		ContentType: "application/json",
		Header:      bearer(token),
	}, &invites)
	if err != nil {
		return "", err
	}
	if len(invites.Data) == 0 || invites.Data[0].ID == "" {
		return "", c.caller.Fail("embedded_invite", providers.ErrorBadData, "no invite id in response")
	}

	body, err = providers.JSONBody(linkRequest{AuthMethod: "none", LinkExpiration: c.cfg.LinkExpiration})
	if err != nil {
		return "", err
	}
	var link linkResponse
	err = c.caller.JSON(ctx, providers.Request{
		Operation:   "embedded_link",
		Method:      http.MethodPost,
		Path:        "/v2/documents/" + url.PathEscape(id) + "/embedded-invites/" + url.PathEscape(invites.Data[0].ID) + "/link",
		Body:        body,
		ContentType: "application/json",
		Header:      bearer(token),
	}, &link)
	if err != nil {
		return "", err
	}
	if link.Data.Link == "" {
		return "", c.caller.Fail("embedded_link", providers.ErrorBadData, "no link in response")
	}
	return link.Data.Link, nil
}

// signerRoleID resolves the configured signer role, or the first role when no name matches.
func (c *Client) signerRoleID(ctx context.Context, token, id string) (string, error) {
	doc, err := c.Document(ctx, token, id)
	if err != nil {
		return "", err
	}
	if len(doc.Roles) == 0 {
		return "", c.caller.Fail("document", providers.ErrorBadData, "document has no signer roles")
	}
	for _, r := range doc.Roles {
		if strings.EqualFold(r.Name, c.cfg.SignerRole) {
			return r.UniqueID, nil
		}
	}
	return doc.Roles[0].UniqueID, nil
}

// SendInvite asks SignNow to email the signer a signing invitation.
func (c *Client) SendInvite(ctx context.Context, token, id, signerEmail string) error {
	roleID, err := c.signerRoleID(ctx, token, id)
	if err != nil {
		return err
	}
	body, err := providers.JSONBody(inviteRequest{
		To: []inviteRecipient{
			{Email: signerEmail, RoleID: roleID, Role: c.cfg.SignerRole, Order: 1},
		},
		From:    c.cfg.Username,
		Subject: "Please sign your agreement",
		Message: "Your agreement is ready for signature.",
	})
	if err != nil {
		return err
	}
	var resp inviteResponse
	err = c.caller.JSON(ctx, providers.Request{
		Operation:   "invite",
		Method:      http.MethodPost,
		Path:        "/document/" + url.PathEscape(id) + "/invite",
		Body:        body,
		ContentType: "application/json",
		Header:      bearer(token),
	}, &resp)
	if err != nil {
		return err
	}
	if resp.Status != "" && resp.Status != "success" {
		return c.caller.Fail("invite", providers.ErrorRejected, "invite status "+resp.Status)
	}
	return nil
}
