package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/SergeyShakirov/TaskGo/backend/model"
)

const (
	documentTitle = "TECHNICAL SPECIFICATION"
	notProvided   = "Not provided"
	signatureLine = "Signature: _________________ Date: _________"

	emptyContentNote = "Note: no generated content was supplied"
)

// Layout is the format-independent document both renderers draw.
type Layout struct {
	Title    string
	Created  time.Time
	Header   []Field
	Sections []Section
}

// Field is a bold label followed by a value.
type Field struct {
	Label string
	Value string
}

// Section is a numbered heading with its body. Exactly one of Paragraphs,
// Fields or Items carries content, except for notices prepended to Paragraphs.
type Section struct {
	Heading    string
	Paragraphs []string
	Fields     []Field
	Items      []string
}

// Approvals records which parties signed off on the export.
type Approvals struct {
	Client     bool
	Contractor bool
}

// BuildLayout arranges a task and its generated content into the fixed
// seven-section document. Every section is present; empty ones carry a
// "Not provided" placeholder.
func BuildLayout(task *model.Task, gen *model.Generation, approvals Approvals, now time.Time, f *Formatter) Layout {
	if task == nil {
		task = &model.Task{}
	}
	if gen == nil {
		g := model.FailedGeneration("")
		gen = &g
	}
	content := gen.Data

	l := Layout{
		Title:   documentTitle,
		Created: now,
		Header: []Field{
			{Label: "Project", Value: orPlaceholder(task.Title)},
			{Label: "Created", Value: f.Date(now)},
			{Label: "Category", Value: categoryName(task)},
			{Label: "Client", Value: partyLine(task.Client)},
		},
	}

	overview := Section{Heading: "PROJECT OVERVIEW", Paragraphs: []string{orPlaceholder(task.ShortDescription)}}

	detailed := Section{Heading: "DETAILED SPECIFICATION"}
	switch {
	case gen.Error != "":
		detailed.Paragraphs = append(detailed.Paragraphs, "Note: content generation failed: "+gen.Error)
	case content.IsEmpty():
		detailed.Paragraphs = append(detailed.Paragraphs, emptyContentNote)
	}
	detailed.Paragraphs = append(detailed.Paragraphs, orPlaceholder(content.DetailedDescription))

	milestones := make([]string, 0, len(content.SuggestedMilestones))
	for i, m := range nonBlank(content.SuggestedMilestones) {
		milestones = append(milestones, fmt.Sprintf("Stage %d: %s", i+1, m))
	}

	l.Sections = []Section{
		overview,
		detailed,
		listSection("REQUIREMENTS", numbered(nonBlank(content.Requirements))),
		listSection("DELIVERABLES", numbered(nonBlank(content.Deliverables))),
		listSection("MILESTONES", milestones),
		estimateSection(task, content, f),
		approvalSection(task, approvals),
	}

	for i := range l.Sections {
		l.Sections[i].Heading = fmt.Sprintf("%d. %s", i+1, l.Sections[i].Heading)
	}
	return l
}

func listSection(heading string, items []string) Section {
	if len(items) == 0 {
		return Section{Heading: heading, Paragraphs: []string{notProvided}}
	}
	return Section{Heading: heading, Items: items}
}

func estimateSection(task *model.Task, c model.GeneratedContent, f *Formatter) Section {
	s := Section{Heading: "PROJECT ESTIMATE"}
	if c.EstimatedHours <= 0 && c.EstimatedCost <= 0 && task.Deadline == nil {
		s.Paragraphs = []string{notProvided}
		return s
	}

	hours, cost, deadline := notProvided, notProvided, "Not specified"
	if c.EstimatedHours > 0 {
		hours = f.Number(c.EstimatedHours) + " hours"
	}
	if c.EstimatedCost > 0 {
		cost = f.Cost(c.EstimatedCost)
	}
	if task.Deadline != nil {
		deadline = f.Date(*task.Deadline)
	}
	s.Fields = []Field{
		{Label: "Estimated time", Value: hours},
		{Label: "Estimated cost", Value: cost},
		{Label: "Deadline", Value: deadline},
	}
	return s
}

func approvalSection(task *model.Task, a Approvals) Section {
	client := notProvided
	if task.Client != nil && strings.TrimSpace(task.Client.Name) != "" {
		client = task.Client.Name
	}
	contractor := "________________"
	if task.Contractor != nil && strings.TrimSpace(task.Contractor.Name) != "" {
		contractor = task.Contractor.Name
	}
	return Section{
		Heading: "APPROVAL",
		Fields: []Field{
			{Label: "Client", Value: client},
			{Label: "", Value: signatureLine},
			{Label: "Contractor", Value: contractor},
			{Label: "", Value: signatureLine},
			{Label: "Client approval", Value: approvalStatus(a.Client)},
			{Label: "Contractor approval", Value: approvalStatus(a.Contractor)},
		},
	}
}

func approvalStatus(ok bool) string {
	if ok {
		return "Approved"
	}
	return "Pending"
}

func categoryName(task *model.Task) string {
	if task.Category != nil {
		return orPlaceholder(task.Category.Name)
	}
	return notProvided
}

func partyLine(u *model.User) string {
	if u == nil || strings.TrimSpace(u.Name) == "" {
		return notProvided
	}
	if u.Email == "" {
		return u.Name
	}
	return fmt.Sprintf("%s (%s)", u.Name, u.Email)
}

func numbered(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return out
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func orPlaceholder(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return notProvided
	}
	return s
}
