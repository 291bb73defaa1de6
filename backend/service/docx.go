package service

import (
	"bytes"
	"encoding/xml"
	"strings"
	"time"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/stypes"

	"github.com/SergeyShakirov/TaskGo/backend/model"
)

// Renderer turns a Layout into document bytes of one format.
type Renderer interface {
	Format() model.ExportFormat
	Render(l Layout) ([]byte, error)
}

const (
	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxCorePath    = "docProps/core.xml"
)

// DOCXRenderer writes Word documents from the godocx default template.
type DOCXRenderer struct{}

func NewDOCXRenderer() *DOCXRenderer { return &DOCXRenderer{} }

func (r *DOCXRenderer) Format() model.ExportFormat { return model.FormatWord }

func (r *DOCXRenderer) Render(l Layout) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, &SynthesisError{Format: "Word document", Err: err}
	}

	title, err := doc.AddHeading(l.Title, 0)
	if err != nil {
		return nil, &SynthesisError{Format: "Word document", Err: err}
	}
	title.Justification(stypes.JustificationCenter)
	for _, f := range l.Header {
		addField(doc, f)
	}

	for _, s := range l.Sections {
		if _, err := doc.AddHeading(s.Heading, 1); err != nil {
			return nil, &SynthesisError{Format: "Word document", Err: err}
		}
		for _, text := range s.Paragraphs {
			doc.AddParagraph(text).Justification(stypes.JustificationBoth)
		}
		for _, f := range s.Fields {
			addField(doc, f)
		}
		// items carry their own numbering
		for _, item := range s.Items {
			doc.AddParagraph(item).Style("ListParagraph")
		}
	}

	doc.FileMap.Store(docxCorePath, []byte(docxCoreProps(l.Title, l.Created)))

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, &SynthesisError{Format: "Word document", Err: err}
	}
	return buf.Bytes(), nil
}

// addField writes a bold label run followed by the value.
func addField(doc *docx.RootDoc, f Field) {
	if f.Label == "" {
		doc.AddParagraph(f.Value)
		return
	}
	p := doc.AddEmptyParagraph()
	p.AddText(f.Label + ": ").Bold(true)
	p.AddText(f.Value)
}

func docxCoreProps(title string, created time.Time) string {
	var t strings.Builder
	xml.EscapeText(&t, []byte(title))
	stamp := created.UTC().Format(time.RFC3339)
	return xml.Header +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + t.String() + `</dc:title><dc:creator>TaskGo</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:modified>` +
		`</cp:coreProperties>`
}
