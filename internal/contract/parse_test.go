package contract

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var submittedAt = time.Date(2025, 6, 3, 15, 4, 5, 0, time.UTC)

func acmeSubmission() Submission {
	return Submission{
		ContractType:  "sprint1",
		ClientCompany: "Acme Corp",
		ClientFirst:   "John",
		ClientLast:    "Doe",
		ClientTitle:   "CEO",
		ClientEmail:   "john@acme.com",
		Amount:        "5000",
		Deliverable:   "SEO audit",
	}
}

type ParseSuite struct {
	suite.Suite
}

func TestParseSuite(t *testing.T) {
	suite.Run(t, new(ParseSuite))
}

func (s *ParseSuite) TestValidSubmission() {
	req, err := Parse(acmeSubmission(), submittedAt, ParseOptions{})
	s.Require().NoError(err)

	s.Equal(VariantSprint1, req.Variant)
	s.Equal("Acme Corp", req.ClientCompany)
	s.Equal("John Doe", req.ClientName())
	s.Equal(Amount(500000), req.Amount)
	s.Equal("SEO audit", req.Scope)
	s.Equal(time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), req.EffectiveDate)
	s.False(req.VariantDefaulted)
}

func (s *ParseSuite) TestMissingFieldsAreAllReported() {
	sub := acmeSubmission()
	sub.ClientCompany = "   "
	sub.ClientEmail = ""
	sub.Amount = ""

	_, err := Parse(sub, submittedAt, ParseOptions{})

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{"client_company", "client_email", "amount"}, verr.Missing)
	s.Contains(err.Error(), "missing required fields")
}

func (s *ParseSuite) TestMalformedFields() {
	sub := acmeSubmission()
	sub.ClientEmail = "john.acme.com"
	sub.Amount = "-12"
	sub.Date = "06/03/2025"

	_, err := Parse(sub, submittedAt, ParseOptions{})

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Empty(verr.Missing)
	s.Equal([]string{"amount", "client_email", "date"}, verr.Fields())
}

func (s *ParseSuite) TestScopeTakesPrecedenceOverDeliverable() {
	sub := acmeSubmission()
	sub.Scope = "Technical SEO"
	req, err := Parse(sub, submittedAt, ParseOptions{})
	s.Require().NoError(err)
	s.Equal("Technical SEO", req.Scope)
}

func (s *ParseSuite) TestMissingScopeUsesFallback() {
	sub := acmeSubmission()
	sub.Deliverable = ""
	req, err := Parse(sub, submittedAt, ParseOptions{})
	s.Require().NoError(err)
	s.Equal(FallbackScope, req.ScopeText())
}

func (s *ParseSuite) TestExplicitDate() {
	sub := acmeSubmission()
	sub.Date = "2025-07-01"
	req, err := Parse(sub, submittedAt, ParseOptions{})
	s.Require().NoError(err)
	s.Equal("July 1, 2025", req.EffectiveDateText())
}

func (s *ParseSuite) TestUnknownContractType() {
	sub := acmeSubmission()
	sub.ContractType = "phase3"

	s.Run("lenient mode silently defaults to sprint1", func() {
		// Flagged behavior: an unknown type is billed as a one-time engagement.
		req, err := Parse(sub, submittedAt, ParseOptions{})
		s.Require().NoError(err)
		s.Equal(VariantSprint1, req.Variant)
		s.True(req.VariantDefaulted)
	})

	s.Run("strict mode rejects it", func() {
		_, err := Parse(sub, submittedAt, ParseOptions{StrictVariant: true})
		var verr *ValidationError
		s.Require().ErrorAs(err, &verr)
		s.Contains(verr.Invalid, "contract_type")
	})
}

func TestNormalizeVariantAliases(t *testing.T) {
	for _, in := range []string{"phase2", "Phase 2", "phase 2", "p2", "PHASE  2", "P2"} {
		v, known := NormalizeVariant(in)
		assert.Equal(t, VariantPhase2, v, in)
		assert.True(t, known, in)
	}
	for _, in := range []string{"sprint1", "Sprint 1", "s1"} {
		v, known := NormalizeVariant(in)
		assert.Equal(t, VariantSprint1, v, in)
		assert.True(t, known, in)
	}
	for _, in := range []string{"phase", "2", "retainer plus", "sprint2"} {
		v, known := NormalizeVariant(in)
		assert.Equal(t, VariantSprint1, v, in)
		assert.False(t, known, in)
	}
}

func TestParseAmount(t *testing.T) {
	t.Run("currency punctuation is stripped", func(t *testing.T) {
		for _, in := range []string{"$5,000", "5000", "5,000.00", " $ 5,000 ", "5000USD"} {
			got, err := ParseAmount(in)
			require.NoError(t, err, in)
			assert.Equal(t, 5000.0, got.Float(), in)
			assert.Equal(t, "5,000", got.String(), in)
		}
	})

	t.Run("cents are kept", func(t *testing.T) {
		got, err := ParseAmount("$1,234,567.5")
		require.NoError(t, err)
		assert.Equal(t, int64(123456750), got.Cents())
		assert.Equal(t, "$1,234,567.50", got.USD())
	})

	t.Run("rejects non positive and garbage", func(t *testing.T) {
		for _, in := range []string{"", "$", "0", "-5", "abc", "1e309"} {
			_, err := ParseAmount(in)
			assert.Error(t, err, in)
		}
	})

	t.Run("rejects exponent and hex forms", func(t *testing.T) {
		for _, in := range []string{"1e20", "5E3", "0x1p4", "0x10", "+5", "1.2.3", "Inf", "NaN"} {
			_, err := ParseAmount(in)
			assert.ErrorIs(t, err, errAmountNotValid, in)
		}
	})

	t.Run("rejects amounts beyond the cap", func(t *testing.T) {
		for _, in := range []string{"$100,000,000,000,000,000", "10000000000000.01", "99999999999999999999"} {
			got, err := ParseAmount(in)
			assert.ErrorIs(t, err, errAmountTooLarge, in)
			assert.Zero(t, got, in)
		}

		got, err := ParseAmount("10,000,000,000,000")
		require.NoError(t, err)
		assert.Equal(t, MaxAmount, got)
	})
}

func (s *ParseSuite) TestClientEmail() {
	for _, email := range []string{"john@acme.com", "j.doe+contracts@mail.acme.co.uk"} {
		sub := acmeSubmission()
		sub.ClientEmail = email
		_, err := Parse(sub, submittedAt, ParseOptions{})
		s.NoError(err, email)
	}

	tooLong := strings.Repeat("a", 250) + "@acme.com"
	for _, email := range []string{"john@", "@acme.com", "john doe@acme.com", "john@@acme.com", tooLong} {
		sub := acmeSubmission()
		sub.ClientEmail = email
		_, err := Parse(sub, submittedAt, ParseOptions{})

		var verr *ValidationError
		s.Require().ErrorAs(err, &verr, email)
		s.Contains(verr.Invalid, "client_email", email)
	}
}

func (s *ParseSuite) TestHugeAmountIsInvalid() {
	sub := acmeSubmission()
	sub.Amount = "1e20"

	_, err := Parse(sub, submittedAt, ParseOptions{})

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{"amount"}, verr.Fields())
}

func TestSubmissionAmountAcceptsNumbers(t *testing.T) {
	var sub Submission
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 2500.5}`), &sub))
	assert.Equal(t, FlexString("2500.5"), sub.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount": "$2,500"}`), &sub))
	assert.Equal(t, FlexString("$2,500"), sub.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount": null}`), &sub))
	assert.Equal(t, FlexString(""), sub.Amount)
}

func TestSubmissionRecordsBadlyTypedFields(t *testing.T) {
	var sub Submission
	raw := `{"contract_type":"phase2","client_company":{"name":"Acme"},"client_first":"John",` +
		`"client_last":null,"amount":[5000],"date":20250603}`
	require.NoError(t, json.Unmarshal([]byte(raw), &sub))

	assert.Equal(t, "phase2", sub.ContractType)
	assert.Equal(t, "John", sub.ClientFirst)
	assert.Empty(t, sub.ClientLast)
	assert.Equal(t, map[string]string{
		"client_company": "must be a string",
		"amount":         "must be a string or a number",
		"date":           "must be a string",
	}, sub.Malformed)

	_, err := Parse(sub, submittedAt, ParseOptions{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"client_last", "client_title", "client_email"}, verr.Missing)
	assert.Equal(t, []string{"client_last", "client_title", "client_email", "amount", "client_company", "date"}, verr.Fields())

	assert.Error(t, json.Unmarshal([]byte(`"sprint1"`), &sub), "a body that is not an object is rejected")
}
