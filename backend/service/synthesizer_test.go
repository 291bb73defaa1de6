package service

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergeyShakirov/TaskGo/backend/model"
)

var exportTime = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

func sampleTask() *model.Task {
	return &model.Task{
		ID:               "t1",
		Title:            "X",
		ShortDescription: "Y",
		Category:         &model.Category{Name: "Dev"},
		Client:           &model.User{Name: "C", Email: "c@x.com"},
	}
}

func sampleGeneration() *model.Generation {
	return &model.Generation{Data: model.GeneratedContent{
		DetailedDescription: "D",
		EstimatedHours:      10,
		EstimatedCost:       1000,
		SuggestedMilestones: []string{"m1"},
		Requirements:        []string{"r1"},
		Deliverables:        []string{"d1"},
	}}
}

func headings(l Layout) []string {
	out := make([]string, len(l.Sections))
	for i, s := range l.Sections {
		out[i] = s.Heading
	}
	return out
}

func TestFormatter(t *testing.T) {
	en := NewFormatter("en", "RUB")
	assert.Equal(t, "1,000 RUB", en.Cost(1000))
	assert.Equal(t, "1,234,568 RUB", en.Cost(1234567.6))
	assert.Equal(t, "09.03.2026", en.Date(exportTime))

	assert.Equal(t, "500", NewFormatter("not a locale!", "").Cost(500))
	assert.NotEqual(t, "1234567 RUB", NewFormatter("ru", "RUB").Cost(1234567))
}

func TestBuildLayoutSections(t *testing.T) {
	l := BuildLayout(sampleTask(), sampleGeneration(), Approvals{Client: true}, exportTime, NewFormatter("en", "RUB"))

	assert.Equal(t, []string{
		"1. PROJECT OVERVIEW",
		"2. DETAILED SPECIFICATION",
		"3. REQUIREMENTS",
		"4. DELIVERABLES",
		"5. MILESTONES",
		"6. PROJECT ESTIMATE",
		"7. APPROVAL",
	}, headings(l))
	assert.Contains(t, l.Header, Field{Label: "Client", Value: "C (c@x.com)"})
	assert.Contains(t, l.Header, Field{Label: "Created", Value: "09.03.2026"})
	assert.Equal(t, []string{"1. r1"}, l.Sections[2].Items)
	assert.Equal(t, []string{"Stage 1: m1"}, l.Sections[4].Items)
	assert.Contains(t, l.Sections[5].Fields, Field{Label: "Estimated cost", Value: "1,000 RUB"})
	assert.Contains(t, l.Sections[5].Fields, Field{Label: "Deadline", Value: "Not specified"})
	assert.Contains(t, l.Sections[6].Fields, Field{Label: "Client approval", Value: "Approved"})
	assert.Contains(t, l.Sections[6].Fields, Field{Label: "Contractor", Value: "________________"})
}

func TestBuildLayoutDegenerate(t *testing.T) {
	gen := model.FailedGeneration("provider down")
	l := BuildLayout(&model.Task{}, &gen, Approvals{}, exportTime, NewFormatter("en", "RUB"))

	require.Len(t, l.Sections, 7)
	for _, i := range []int{2, 3, 4, 5} {
		assert.Equal(t, []string{notProvided}, l.Sections[i].Paragraphs, l.Sections[i].Heading)
		assert.Empty(t, l.Sections[i].Items)
	}
	assert.Equal(t, "Note: content generation failed: provider down", l.Sections[1].Paragraphs[0])

	nilLayout := BuildLayout(nil, nil, Approvals{}, exportTime, NewFormatter("en", "RUB"))
	assert.Len(t, nilLayout.Sections, 7)

	empty := &model.Generation{Success: true}
	l = BuildLayout(sampleTask(), empty, Approvals{}, exportTime, NewFormatter("en", "RUB"))
	assert.Equal(t, []string{emptyContentNote, notProvided}, l.Sections[1].Paragraphs)

	l = BuildLayout(sampleTask(), sampleGeneration(), Approvals{}, exportTime, NewFormatter("en", "RUB"))
	assert.Equal(t, []string{"D"}, l.Sections[1].Paragraphs)
}

func TestDOCXRender(t *testing.T) {
	l := BuildLayout(sampleTask(), sampleGeneration(), Approvals{}, exportTime, NewFormatter("en", "RUB"))

	data, err := NewDOCXRenderer().Render(l)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = string(body)
	}

	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/styles.xml"} {
		assert.Contains(t, files, name)
	}
	doc := files["word/document.xml"]
	assert.Contains(t, doc, "TECHNICAL SPECIFICATION")
	assert.Contains(t, doc, "7. APPROVAL")
	assert.Contains(t, doc, "Stage 1: m1")
	assert.Contains(t, doc, `w:val="Heading1"`)
	assert.Contains(t, doc, `w:val="ListParagraph"`)
	assert.Contains(t, doc, "<w:b")
	assert.Contains(t, doc, "Client: ")
	assert.Contains(t, files["docProps/core.xml"], "2026-03-09T12:00:00Z")
	assert.Contains(t, files["docProps/core.xml"], "<dc:title>TECHNICAL SPECIFICATION")
}

func TestDOCXEscapesText(t *testing.T) {
	task := sampleTask()
	task.Title = `R&D <script>`

	data, err := NewDOCXRenderer().Render(BuildLayout(task, sampleGeneration(), Approvals{}, exportTime, NewFormatter("en", "")))
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, _ := f.Open()
		body, _ := io.ReadAll(rc)
		rc.Close()
		assert.Contains(t, string(body), "R&amp;D &lt;script&gt;")
	}
}

func TestPDFRender(t *testing.T) {
	gen := model.FailedGeneration("")
	for _, l := range []Layout{
		BuildLayout(sampleTask(), sampleGeneration(), Approvals{}, exportTime, NewFormatter("en", "RUB")),
		BuildLayout(&model.Task{}, &gen, Approvals{}, exportTime, NewFormatter("en", "RUB")),
	} {
		data, err := NewPDFRenderer().Render(l)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
		assert.True(t, strings.Contains(string(data[len(data)-16:]), "%%EOF"))
	}
}

func TestPDFRenderMissingFont(t *testing.T) {
	r := NewPDFRenderer(WithUTF8Font(t.TempDir(), "missing.ttf"))

	_, err := r.Render(BuildLayout(sampleTask(), sampleGeneration(), Approvals{}, exportTime, NewFormatter("en", "RUB")))

	var synthErr *SynthesisError
	require.True(t, errors.As(err, &synthErr), "got %v", err)
	assert.Equal(t, "PDF", synthErr.Format)
	assert.Contains(t, err.Error(), "failed to generate PDF")
}
