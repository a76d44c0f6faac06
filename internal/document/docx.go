package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// zipModTime is stamped on every package entry so identical input yields identical bytes.
var zipModTime = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	emuPerPixel = 9525
	// 6.5in text width at 914400 EMU/in.
	maxImageWidthEMU = 5943600
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Default Extension="png" ContentType="image/png"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`</Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`</Relationships>`

type part struct {
	name string
	data []byte
}

// writePackage zips parts in order with fixed timestamps.
func writePackage(parts []part) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p.name,
			Method:   zip.Deflate,
			Modified: zipModTime,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close docx: %w", err)
	}
	return buf.Bytes(), nil
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

type relationship struct {
	id     string
	target string
}

type runStyle struct {
	bold   bool
	size   int // half-points; 0 keeps the default
	center bool
}

// body accumulates word/document.xml content and the media it references.
type body struct {
	b      strings.Builder
	rels   []relationship
	media  []part
	nextID int
}

func (d *body) paragraph(text string, st runStyle) {
	d.b.WriteString("<w:p>")
	if st.center {
		d.b.WriteString(`<w:pPr><w:jc w:val="center"/></w:pPr>`)
	}
	d.b.WriteString("<w:r>")
	if st.bold || st.size > 0 {
		d.b.WriteString("<w:rPr>")
		if st.bold {
			d.b.WriteString("<w:b/>")
		}
		if st.size > 0 {
			fmt.Fprintf(&d.b, `<w:sz w:val="%d"/>`, st.size)
		}
		d.b.WriteString("</w:rPr>")
	}
	fmt.Fprintf(&d.b, `<w:t xml:space="preserve">%s</w:t></w:r></w:p>`, escape(text))
}

func (d *body) heading(text string) {
	d.paragraph(text, runStyle{bold: true, size: 26})
}

func (d *body) text(text string) {
	d.paragraph(text, runStyle{})
}

func (d *body) blank() {
	d.b.WriteString("<w:p/>")
}

func (d *body) pageBreak() {
	d.b.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
}

// image embeds img scaled to widthPx (bounded by the text width).
func (d *body) image(img *Image, name string, widthPx int, center bool) {
	d.nextID++
	relID := fmt.Sprintf("rIdImg%d", d.nextID)
	target := "media/" + name
	d.rels = append(d.rels, relationship{id: relID, target: target})
	d.media = append(d.media, part{name: "word/" + target, data: img.Data})

	cx := int64(widthPx) * emuPerPixel
	if cx > maxImageWidthEMU {
		cx = maxImageWidthEMU
	}
	cy := cx * int64(img.Height) / int64(img.Width)

	d.b.WriteString("<w:p>")
	if center {
		d.b.WriteString(`<w:pPr><w:jc w:val="center"/></w:pPr>`)
	}
	fmt.Fprintf(&d.b, `<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%d" cy="%d"/><wp:docPr id="%d" name="%s"/>`+
		`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`+
		`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>`,
		cx, cy, d.nextID, name, d.nextID, name, relID, cx, cy)
}

func (d *body) documentXML() []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"><w:body>`)
	b.WriteString(d.b.String())
	b.WriteString(`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/>` +
		`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/>` +
		`</w:sectPr></w:body></w:document>`)
	return []byte(b.String())
}

func (d *body) relsXML() []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range d.rels {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="%s"/>`,
			r.id, r.target)
	}
	b.WriteString(`</Relationships>`)
	return []byte(b.String())
}

func corePropsXML(title, creator string, at time.Time) []byte {
	stamp := at.UTC().Format(time.RFC3339)
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"`+
		` xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/"`+
		` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`+
		`<dc:title>%s</dc:title><dc:creator>%s</dc:creator>`+
		`<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>`+
		`<dcterms:modified xsi:type="dcterms:W3CDTF">%s</dcterms:modified>`+
		`</cp:coreProperties>`, escape(title), escape(creator), stamp, stamp))
}
