package esign

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// LinkType tells whether the signer got an embedded signing link or the viewer fallback.
type LinkType string

const (
	LinkEmbedded LinkType = "embedded"
	LinkViewer   LinkType = "viewer"
)

// Link is a URL the client uses to sign (or at least open) the document.
type Link struct {
	URL  string
	Type LinkType
}

// Role is a signer role declared by the uploaded document.
type Role struct {
	UniqueID string `json:"unique_id"`
	Name     string `json:"name"`
}

// Document is the subset of document metadata the pipeline needs.
type Document struct {
	ID        string  `json:"id"`
	PageCount FlexInt `json:"page_count"`
	Roles     []Role  `json:"roles"`
}

// FlexInt decodes a JSON number or a numeric string.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("page_count %q is not an integer", s)
		}
		*f = FlexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type uploadResponse struct {
	ID string `json:"id"`
}

type field struct {
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	PageNumber int    `json:"page_number"`
	Role       string `json:"role"`
	Required   bool   `json:"required"`
	Type       string `json:"type"`
	Label      string `json:"label,omitempty"`
	Validator  string `json:"validator_id,omitempty"`
}

type fieldsRequest struct {
	Fields []field `json:"fields"`
}

type embeddedInvite struct {
	Email      string `json:"email"`
	RoleID     string `json:"role_id"`
	Order      int    `json:"order"`
	AuthMethod string `json:"auth_method"`
}

type embeddedInvitesRequest struct {
	Invites []embeddedInvite `json:"invites"`
}

type embeddedInvitesResponse struct {
	Data []struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"data"`
}

type linkRequest struct {
	AuthMethod     string `json:"auth_method"`
	LinkExpiration int    `json:"link_expiration"`
}

type linkResponse struct {
	Data struct {
		Link string `json:"link"`
	} `json:"data"`
}

type inviteRecipient struct {
	Email  string `json:"email"`
	RoleID string `json:"role_id"`
	Role   string `json:"role"`
	Order  int    `json:"order"`
}

type inviteRequest struct {
	To      []inviteRecipient `json:"to"`
	From    string            `json:"from"`
	Subject string            `json:"subject"`
	Message string            `json:"message"`
}

type inviteResponse struct {
	Status string `json:"status"`
}

type apiError struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func decodeError(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if len(e.Errors) > 0 {
		return e.Errors[0].Message
	}
	if e.ErrorDescription != "" {
		return e.ErrorDescription
	}
	return e.Error
}
