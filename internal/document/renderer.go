// Package document renders a contract request into a DOCX agreement.
//
// Output is deterministic: zip entries carry a fixed timestamp and the only
// time-dependent part, docProps/core.xml, takes its time from the injected clock.
package document

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"contractflow/internal/contract"
)

// ContentType is the media type of a rendered agreement.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Provider identifies the party issuing the agreement and pre-signs it.
type Provider struct {
	Company     string
	SignerName  string
	SignerTitle string
}

// Renderer turns a contract.Request into DOCX bytes.
type Renderer struct {
	tmpl     *Template
	provider Provider
	assets   Assets
	now      func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithAssets embeds the logo and signature images.
func WithAssets(a Assets) Option {
	return func(r *Renderer) {
		r.assets = a
	}
}

// WithClock sets the clock used for document metadata.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// WithTemplate replaces the embedded agreement prose.
func WithTemplate(t *Template) Option {
	return func(r *Renderer) {
		r.tmpl = t
	}
}

// New builds a renderer over the embedded agreement template.
func New(provider Provider, opts ...Option) (*Renderer, error) {
	r := &Renderer{provider: provider, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.tmpl == nil {
		t, err := defaultTemplate()
		if err != nil {
			return nil, err
		}
		r.tmpl = t
	}
	return r, nil
}

// HasLogo reports whether a logo asset was loaded.
func (r *Renderer) HasLogo() bool { return r.assets.Logo != nil }

// HasSignature reports whether a signature asset was loaded.
func (r *Renderer) HasSignature() bool { return r.assets.Signature != nil }

// Render produces the agreement. Valid requests never fail; an error can only come
// from the zip writer.
func (r *Renderer) Render(req contract.Request) ([]byte, error) {
	variant, ok := r.tmpl.Variants[req.Variant]
	if !ok {
		variant = r.tmpl.Variants[contract.VariantSprint1]
	}
	fill := placeholders(req, r.provider).Replace

	d := &body{}
	if r.assets.Logo != nil {
		d.image(r.assets.Logo, logoFile, 180, true)
	}
	d.paragraph(fill(r.tmpl.Title), runStyle{bold: true, size: 36, center: true})
	d.paragraph(req.Variant.DisplayName(), runStyle{center: true})
	d.blank()
	d.text(fill(r.tmpl.Preamble))

	for _, s := range r.tmpl.Sections {
		d.blank()
		d.heading(fill(s.Heading))
		for _, p := range s.Paragraphs {
			d.text(fill(p))
		}
	}

	d.pageBreak()
	d.heading(fill(variant.Heading))
	for _, p := range variant.Paragraphs {
		d.text(fill(p))
	}
	d.text(fill(variant.Fee))

	r.signatureBlock(d, req, fill)

	title := fmt.Sprintf("%s - %s", r.tmpl.Title, req.ClientCompany)
	parts := []part{
		{name: "[Content_Types].xml", data: []byte(contentTypesXML)},
		{name: "_rels/.rels", data: []byte(packageRelsXML)},
		{name: "docProps/core.xml", data: corePropsXML(title, r.provider.Company, r.now())},
		{name: "word/document.xml", data: d.documentXML()},
		{name: "word/_rels/document.xml.rels", data: d.relsXML()},
	}
	parts = append(parts, d.media...)
	return writePackage(parts)
}

// signatureBlock renders the pre-filled provider block and the blank client block.
// The e-signature fields are placed over the client block, at the bottom of the last page.
func (r *Renderer) signatureBlock(d *body, req contract.Request, fill func(string) string) {
	sig := r.tmpl.Signature
	d.blank()
	d.text(fill(sig.Intro))

	d.blank()
	d.paragraph(sig.ProviderLabel+": "+r.provider.Company, runStyle{bold: true})
	if r.assets.Signature != nil {
		d.image(r.assets.Signature, signatureFile, 160, false)
	} else {
		d.text("Signature: /s/ " + r.provider.SignerName)
	}
	d.text("Name: " + r.provider.SignerName)
	d.text("Title: " + r.provider.SignerTitle)
	d.text("Date: " + req.EffectiveDateText())

	d.blank()
	d.paragraph(sig.ClientLabel+": "+req.ClientCompany, runStyle{bold: true})
	d.text("Signature: ______________________________")
	d.text("Name: " + req.ClientName())
	d.text("Title: " + req.ClientTitle)
	d.text("Date: ______________________________")
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Filename is the upload and archive name: "Acme_Corp_SPRINT1_Agreement.docx".
func Filename(req contract.Request) string {
	company := strings.Trim(unsafeFilename.ReplaceAllString(req.ClientCompany, "_"), "_")
	if company == "" {
		company = "Client"
	}
	return fmt.Sprintf("%s_%s_Agreement.docx", company, req.Variant.Tag())
}
