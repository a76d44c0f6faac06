// Package contract holds the normalized contract request that flows through the
// pipeline and the parsing rules that build it from raw intake submissions.
package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Variant is one of the two fixed contract templates.
type Variant string

const (
	// VariantSprint1 is the one-time engagement, billed by a single invoice.
	VariantSprint1 Variant = "sprint1"
	// VariantPhase2 is the monthly retainer, billed by a subscription.
	VariantPhase2 Variant = "phase2"
)

// Tag is the upper-case form used in task titles and chat summaries.
func (v Variant) Tag() string {
	return strings.ToUpper(string(v))
}

// DisplayName is the human readable variant name used in documents.
func (v Variant) DisplayName() string {
	if v == VariantPhase2 {
		return "Phase 2 (Monthly Retainer)"
	}
	return "Sprint 1 (One-Time Engagement)"
}

// Recurring reports whether the variant bills monthly.
func (v Variant) Recurring() bool {
	return v == VariantPhase2
}

// FallbackScope replaces an empty scope/deliverable in every rendered artifact.
const FallbackScope = "Services as mutually agreed upon by the parties in writing."

// Request is the normalized, immutable input to the pipeline.
type Request struct {
	Variant       Variant   `json:"variant"`
	ClientCompany string    `json:"client_company"`
	ClientFirst   string    `json:"client_first"`
	ClientLast    string    `json:"client_last"`
	ClientTitle   string    `json:"client_title"`
	ClientEmail   string    `json:"client_email"`
	Amount        Amount    `json:"amount_cents"`
	Scope         string    `json:"scope,omitempty"`
	EffectiveDate time.Time `json:"effective_date"`

	// VariantDefaulted is set when contract_type was not a known alias and the
	// lenient default was applied.
	VariantDefaulted bool `json:"variant_defaulted,omitempty"`
}

// ClientName is "First Last".
func (r Request) ClientName() string {
	return strings.TrimSpace(r.ClientFirst + " " + r.ClientLast)
}

// ScopeText returns the scope or the fallback sentence.
func (r Request) ScopeText() string {
	if strings.TrimSpace(r.Scope) == "" {
		return FallbackScope
	}
	return r.Scope
}

// EffectiveDateText renders the effective date as "January 2, 2006".
func (r Request) EffectiveDateText() string {
	return r.EffectiveDate.Format("January 2, 2006")
}

// Submission is the raw, transport-neutral intake shape. Every adapter (JSON webhook,
// Slack modal, hand-off message) produces one of these.
type Submission struct {
	ContractType  string     `json:"contract_type"`
	ClientCompany string     `json:"client_company"`
	ClientFirst   string     `json:"client_first"`
	ClientLast    string     `json:"client_last"`
	ClientTitle   string     `json:"client_title"`
	ClientEmail   string     `json:"client_email"`
	Amount        FlexString `json:"amount"`
	Scope         string     `json:"scope,omitempty"`
	Deliverable   string     `json:"deliverable,omitempty"`
	Date          string     `json:"date,omitempty"`

	// Malformed names fields whose JSON value had the wrong type. Parse reports
	// them as invalid instead of the whole body being rejected.
	Malformed map[string]string `json:"-"`
}

// UnmarshalJSON decodes field by field so one badly typed value does not hide
// the rest of the submission. Only a body that is not a JSON object fails.
func (s *Submission) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Submission{}
	text := map[string]*string{
		"contract_type":  &s.ContractType,
		"client_company": &s.ClientCompany,
		"client_first":   &s.ClientFirst,
		"client_last":    &s.ClientLast,
		"client_title":   &s.ClientTitle,
		"client_email":   &s.ClientEmail,
		"scope":          &s.Scope,
		"deliverable":    &s.Deliverable,
		"date":           &s.Date,
	}
	for field, dst := range text {
		value, ok := raw[field]
		if !ok || isNull(value) {
			continue
		}
		if err := json.Unmarshal(value, dst); err != nil {
			s.malformed(field, "must be a string")
		}
	}
	if value, ok := raw["amount"]; ok {
		if err := json.Unmarshal(value, &s.Amount); err != nil {
			s.malformed("amount", "must be a string or a number")
		}
	}
	return nil
}

func (s *Submission) malformed(field, reason string) {
	if s.Malformed == nil {
		s.Malformed = make(map[string]string)
	}
	s.Malformed[field] = reason
}

func isNull(data json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// FlexString accepts a JSON string or a JSON number and keeps its text.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}
