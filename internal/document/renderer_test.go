package document

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractflow/internal/contract"
)

var fixedNow = time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)

func acmeRequest() contract.Request {
	return contract.Request{
		Variant:       contract.VariantSprint1,
		ClientCompany: "Acme Corp",
		ClientFirst:   "John",
		ClientLast:    "Doe",
		ClientTitle:   "CEO",
		ClientEmail:   "john@acme.com",
		Amount:        500000,
		Scope:         "SEO audit",
		EffectiveDate: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
	}
}

func testProvider() Provider {
	return Provider{Company: "Northwind Studio", SignerName: "Jane Roe", SignerTitle: "Managing Partner"}
}

func newTestRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	r, err := New(testProvider(), opts...)
	require.NoError(t, err)
	return r
}

// readPart returns the named entry of a DOCX package.
func readPart(t *testing.T, doc []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(doc), int64(len(doc)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(b)
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRenderContainsAgreementTerms(t *testing.T) {
	doc, err := newTestRenderer(t).Render(acmeRequest())
	require.NoError(t, err)

	xml := readPart(t, doc, "word/document.xml")
	assert.Contains(t, xml, "Master Services Agreement")
	assert.Contains(t, xml, "Acme Corp")
	assert.Contains(t, xml, "John Doe")
	assert.Contains(t, xml, "$5,000")
	assert.Contains(t, xml, "Five Thousand US Dollars")
	assert.Contains(t, xml, "SEO audit")
	assert.Contains(t, xml, "June 3, 2025")
	assert.Contains(t, xml, "one-time fee")
	assert.NotContains(t, xml, "{", "unreplaced placeholder")
}

func TestRenderVariantSpecificAddendum(t *testing.T) {
	req := acmeRequest()
	req.Variant = contract.VariantPhase2

	doc, err := newTestRenderer(t).Render(req)
	require.NoError(t, err)

	xml := readPart(t, doc, "word/document.xml")
	assert.Contains(t, xml, "Phase 2 (Monthly Retainer)")
	assert.Contains(t, xml, "monthly retainer of $5,000")
	assert.NotContains(t, xml, "one-time fee")
}

func TestRenderMissingScopeUsesFallback(t *testing.T) {
	req := acmeRequest()
	req.Scope = ""

	doc, err := newTestRenderer(t).Render(req)
	require.NoError(t, err)
	assert.Contains(t, readPart(t, doc, "word/document.xml"), contract.FallbackScope)
}

func TestRenderEscapesMarkup(t *testing.T) {
	req := acmeRequest()
	req.ClientCompany = "Smith & <Sons>"

	doc, err := newTestRenderer(t).Render(req)
	require.NoError(t, err)
	xml := readPart(t, doc, "word/document.xml")
	assert.Contains(t, xml, "Smith &amp; &lt;Sons&gt;")
}

func TestRenderIsDeterministic(t *testing.T) {
	r := newTestRenderer(t, WithAssets(Assets{Logo: &Image{Data: pngBytes(t, 40, 20), Width: 40, Height: 20}}))

	first, err := r.Render(acmeRequest())
	require.NoError(t, err)
	second, err := r.Render(acmeRequest())
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second), "same request, assets and clock must produce identical bytes")
	assert.Contains(t, readPart(t, first, "docProps/core.xml"), "2025-06-03T10:00:00Z")
}

func TestRenderEmbedsAssets(t *testing.T) {
	logo := pngBytes(t, 200, 100)
	r := newTestRenderer(t, WithAssets(Assets{
		Logo:      &Image{Data: logo, Width: 200, Height: 100},
		Signature: &Image{Data: pngBytes(t, 50, 10), Width: 50, Height: 10},
	}))

	doc, err := r.Render(acmeRequest())
	require.NoError(t, err)

	assert.Equal(t, string(logo), readPart(t, doc, "word/media/logo.png"))
	rels := readPart(t, doc, "word/_rels/document.xml.rels")
	assert.Contains(t, rels, `Target="media/logo.png"`)
	assert.Contains(t, rels, `Target="media/signature.png"`)
	assert.NotContains(t, readPart(t, doc, "word/document.xml"), "/s/ Jane Roe")
}

func TestRenderWithoutAssetsIsTextOnly(t *testing.T) {
	doc, err := newTestRenderer(t).Render(acmeRequest())
	require.NoError(t, err)

	assert.NotContains(t, readPart(t, doc, "word/document.xml"), "<w:drawing>")
	assert.Contains(t, readPart(t, doc, "word/document.xml"), "/s/ Jane Roe")
}

func TestAmountInWords(t *testing.T) {
	assert.Equal(t, "Five Thousand US Dollars", AmountInWords(500000))
	assert.Equal(t, "Twelve US Dollars and 50 Cents", AmountInWords(1250))
}

func TestFilename(t *testing.T) {
	req := acmeRequest()
	assert.Equal(t, "Acme_Corp_SPRINT1_Agreement.docx", Filename(req))

	req.ClientCompany = "  ***  "
	req.Variant = contract.VariantPhase2
	assert.Equal(t, "Client_PHASE2_Agreement.docx", Filename(req))
}

func TestParseTemplateRequiresBothVariants(t *testing.T) {
	_, err := ParseTemplate([]byte("title: X\nvariants:\n  sprint1:\n    fee: pay\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phase2")
}

func TestLoadAssets(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), pngBytes(t, 30, 15), 0o600))

		a := LoadAssets(AssetConfig{Dir: dir}, logger)
		require.NotNil(t, a.Logo)
		assert.Equal(t, 30, a.Logo.Width)
		assert.Nil(t, a.Signature)
	})

	t.Run("base64 fallback", func(t *testing.T) {
		a := LoadAssets(AssetConfig{
			Dir:             t.TempDir(),
			SignatureBase64: base64.StdEncoding.EncodeToString(pngBytes(t, 8, 4)),
		}, logger)
		require.NotNil(t, a.Signature)
		assert.Equal(t, 4, a.Signature.Height)
	})

	t.Run("undecodable assets are ignored", func(t *testing.T) {
		a := LoadAssets(AssetConfig{
			LogoBase64:      "%%%not-base64",
			SignatureBase64: base64.StdEncoding.EncodeToString([]byte("not a png")),
		}, logger)
		assert.Nil(t, a.Logo)
		assert.Nil(t, a.Signature)
	})
}
