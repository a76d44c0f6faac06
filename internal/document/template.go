package document

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"contractflow/internal/contract"
)

//go:embed templates/agreement.yaml
var agreementYAML []byte

// Template is the agreement prose. Every string may carry {placeholder} tokens.
type Template struct {
	Title     string                           `yaml:"title"`
	Preamble  string                           `yaml:"preamble"`
	Sections  []Section                        `yaml:"sections"`
	Variants  map[contract.Variant]VariantText `yaml:"variants"`
	Signature SignatureText                    `yaml:"signature"`
}

// Section is one numbered clause of the master agreement.
type Section struct {
	Heading    string   `yaml:"heading"`
	Paragraphs []string `yaml:"paragraphs"`
}

// VariantText is the Statement of Work addendum for one variant.
type VariantText struct {
	Heading    string   `yaml:"heading"`
	Paragraphs []string `yaml:"paragraphs"`
	Fee        string   `yaml:"fee"`
}

type SignatureText struct {
	Intro         string `yaml:"intro"`
	ProviderLabel string `yaml:"provider_label"`
	ClientLabel   string `yaml:"client_label"`
}

// ParseTemplate decodes agreement prose and checks that both variants are present.
func ParseTemplate(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode agreement template: %w", err)
	}
	if strings.TrimSpace(t.Title) == "" {
		return nil, errors.New("agreement template: title is required")
	}
	for _, v := range []contract.Variant{contract.VariantSprint1, contract.VariantPhase2} {
		vt, ok := t.Variants[v]
		if !ok {
			return nil, fmt.Errorf("agreement template: missing variant %q", v)
		}
		if strings.TrimSpace(vt.Fee) == "" {
			return nil, fmt.Errorf("agreement template: variant %q has no fee clause", v)
		}
	}
	return &t, nil
}

func defaultTemplate() (*Template, error) {
	return ParseTemplate(agreementYAML)
}

// placeholders builds the token replacer for one request.
func placeholders(req contract.Request, p Provider) *strings.Replacer {
	return strings.NewReplacer(
		"{provider_company}", p.Company,
		"{provider_signer}", p.SignerName,
		"{provider_title}", p.SignerTitle,
		"{client_company}", req.ClientCompany,
		"{client_name}", req.ClientName(),
		"{client_title}", req.ClientTitle,
		"{client_email}", req.ClientEmail,
		"{effective_date}", req.EffectiveDateText(),
		"{amount}", req.Amount.USD(),
		"{amount_words}", AmountInWords(req.Amount),
		"{scope}", req.ScopeText(),
		"{variant_name}", req.Variant.DisplayName(),
	)
}
