package service

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/SergeyShakirov/TaskGo/backend/model"
)

const (
	pdfMargin     = 20.0
	pdfLineHeight = 6.0
	pdfFont       = "Helvetica"
)

// PDFRenderer draws a Layout onto A4 pages with the fpdf core fonts. Text is
// translated to cp1252; runes outside it are replaced.
type PDFRenderer struct {
	fontDir string
	utf8TTF string
}

// PDFOption customizes a PDFRenderer.
type PDFOption func(*PDFRenderer)

// WithUTF8Font renders with a TrueType font from fontDir instead of the
// core fonts, so non-Latin text survives.
func WithUTF8Font(fontDir, file string) PDFOption {
	return func(r *PDFRenderer) {
		r.fontDir = fontDir
		r.utf8TTF = file
	}
}

func NewPDFRenderer(opts ...PDFOption) *PDFRenderer {
	r := &PDFRenderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *PDFRenderer) Format() model.ExportFormat { return model.FormatPDF }

func (r *PDFRenderer) Render(l Layout) (out []byte, err error) {
	defer func() {
		// fpdf panics on some malformed input instead of setting Err
		if rec := recover(); rec != nil {
			out, err = nil, &SynthesisError{Format: "PDF", Err: fmt.Errorf("%v", rec)}
		}
	}()

	pdf := fpdf.New("P", "mm", "A4", r.fontDir)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(l.Title, true)
	pdf.SetCreator("TaskGo", true)
	if !l.Created.IsZero() {
		pdf.SetCreationDate(l.Created)
	}

	family := pdfFont
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if r.utf8TTF != "" {
		family = "Body"
		pdf.AddUTF8Font(family, "", r.utf8TTF)
		pdf.AddUTF8Font(family, "B", r.utf8TTF)
		tr = func(s string) string { return s }
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(family, "", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.AddPage()

	pdf.SetFont(family, "B", 18)
	pdf.CellFormat(0, 12, tr(l.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	field := func(f Field) {
		if f.Label == "" {
			pdf.SetFont(family, "", 11)
			pdf.MultiCell(0, pdfLineHeight, tr(f.Value), "", "L", false)
			return
		}
		label := tr(f.Label + ": ")
		pdf.SetFont(family, "B", 11)
		w := pdf.GetStringWidth(label) + 1
		pdf.CellFormat(w, pdfLineHeight, label, "", 0, "L", false, 0, "")
		pdf.SetFont(family, "", 11)
		pdf.MultiCell(0, pdfLineHeight, tr(f.Value), "", "L", false)
	}

	for _, f := range l.Header {
		field(f)
	}

	for _, s := range l.Sections {
		pdf.Ln(4)
		pdf.SetFont(family, "B", 13)
		pdf.MultiCell(0, 8, tr(s.Heading), "", "L", false)

		pdf.SetFont(family, "", 11)
		for _, p := range s.Paragraphs {
			pdf.MultiCell(0, pdfLineHeight, tr(p), "", "J", false)
		}
		for _, f := range s.Fields {
			field(f)
		}
		for _, item := range s.Items {
			pdf.SetX(pdfMargin + 5)
			pdf.MultiCell(0, pdfLineHeight, tr(item), "", "L", false)
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, &SynthesisError{Format: "PDF", Err: err}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &SynthesisError{Format: "PDF", Err: err}
	}
	return buf.Bytes(), nil
}
