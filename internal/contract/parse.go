package contract

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

// variantAliases maps normalized contract_type input to a variant.
var variantAliases = map[string]Variant{
	"phase2":   VariantPhase2,
	"phase 2":  VariantPhase2,
	"phase-2":  VariantPhase2,
	"p2":       VariantPhase2,
	"retainer": VariantPhase2,
	"sprint1":  VariantSprint1,
	"sprint 1": VariantSprint1,
	"sprint-1": VariantSprint1,
	"sprint":   VariantSprint1,
	"s1":       VariantSprint1,
	"one-time": VariantSprint1,
}

// NormalizeVariant maps contract_type input to a variant. known is false when the
// input matched no alias and the sprint1 default was applied.
func NormalizeVariant(raw string) (v Variant, known bool) {
	key := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if v, ok := variantAliases[key]; ok {
		return v, true
	}
	return VariantSprint1, false
}

// ParseOptions tunes Parse.
type ParseOptions struct {
	// StrictVariant rejects contract_type values that match no alias instead of
	// defaulting them to sprint1.
	StrictVariant bool
}

// ValidationError lists every missing or malformed field of a submission.
type ValidationError struct {
	Missing []string
	Invalid map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		keys := make([]string, 0, len(e.Invalid))
		for k := range e.Invalid {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		invalid := make([]string, 0, len(keys))
		for _, k := range keys {
			invalid = append(invalid, fmt.Sprintf("%s (%s)", k, e.Invalid[k]))
		}
		parts = append(parts, "invalid fields: "+strings.Join(invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// Fields returns every offending field name, missing first.
func (e *ValidationError) Fields() []string {
	fields := append([]string{}, e.Missing...)
	keys := make([]string, 0, len(e.Invalid))
	for k := range e.Invalid {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return append(fields, keys...)
}

func (e *ValidationError) empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}

func (e *ValidationError) invalid(field, reason string) {
	if e.Invalid == nil {
		e.Invalid = make(map[string]string)
	}
	e.Invalid[field] = reason
}

// Parse validates a submission and builds a Request. now supplies the default
// effective date. The returned error is always a *ValidationError.
func Parse(sub Submission, now time.Time, opts ParseOptions) (Request, error) {
	verr := &ValidationError{}
	for field, reason := range sub.Malformed {
		verr.invalid(field, reason)
	}
	required := func(field, value string) string {
		value = strings.TrimSpace(value)
		if _, bad := sub.Malformed[field]; value == "" && !bad {
			verr.Missing = append(verr.Missing, field)
		}
		return value
	}

	contractType := required("contract_type", sub.ContractType)
	req := Request{
		ClientCompany: required("client_company", sub.ClientCompany),
		ClientFirst:   required("client_first", sub.ClientFirst),
		ClientLast:    required("client_last", sub.ClientLast),
		ClientTitle:   required("client_title", sub.ClientTitle),
		ClientEmail:   required("client_email", sub.ClientEmail),
	}
	rawAmount := required("amount", string(sub.Amount))

	if contractType != "" {
		variant, known := NormalizeVariant(contractType)
		if !known && opts.StrictVariant {
			verr.invalid("contract_type", "must be sprint1 or phase2")
		}
		req.Variant = variant
		req.VariantDefaulted = !known
	}

	if req.ClientEmail != "" && !validEmail(req.ClientEmail) {
		verr.invalid("client_email", "must look like name@domain.tld")
	}

	if rawAmount != "" {
		amount, err := ParseAmount(rawAmount)
		if err != nil {
			verr.invalid("amount", err.Error())
		}
		req.Amount = amount
	}

	req.Scope = strings.TrimSpace(sub.Scope)
	if req.Scope == "" {
		req.Scope = strings.TrimSpace(sub.Deliverable)
	}

	date := strings.TrimSpace(sub.Date)
	if date == "" {
		y, m, d := now.Date()
		req.EffectiveDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	} else {
		parsed, err := time.Parse(time.DateOnly, date)
		if err != nil {
			verr.invalid("date", "must be YYYY-MM-DD")
		}
		req.EffectiveDate = parsed
	}

	if !verr.empty() {
		return Request{}, verr
	}
	return req, nil
}

func validEmail(email string) bool {
	return govalidator.StringLength(email, "3", "254") && govalidator.IsEmail(email)
}
