package model

import (
	"time"
)

// TaskStatus is the lifecycle state of a task record.
type TaskStatus string

const (
	StatusDraft      TaskStatus = "draft"
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// UserRole distinguishes the two sides of a task.
type UserRole string

const (
	RoleClient     UserRole = "client"
	RoleContractor UserRole = "contractor"
)

type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role,omitempty"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// Task is a durable task request owned by a client.
type Task struct {
	ID                     string       `json:"id"`
	Title                  string       `json:"title"`
	ShortDescription       string       `json:"shortDescription"`
	AIGeneratedDescription string       `json:"aiGeneratedDescription,omitempty"`
	EstimatedHours         *int         `json:"estimatedHours,omitempty"`
	EstimatedCost          *float64     `json:"estimatedCost,omitempty"`
	Priority               TaskPriority `json:"priority,omitempty"`
	Status                 TaskStatus   `json:"status,omitempty"`
	Deadline               *time.Time   `json:"deadline,omitempty"`
	ClientID               string       `json:"clientId,omitempty"`
	ContractorID           string       `json:"contractorId,omitempty"`
	CategoryID             string       `json:"categoryId,omitempty"`
	Requirements           []string     `json:"requirements,omitempty"`
	Deliverables           []string     `json:"deliverables,omitempty"`
	Milestones             []string     `json:"milestones,omitempty"`
	CreatedAt              time.Time    `json:"createdAt"`
	UpdatedAt              time.Time    `json:"updatedAt"`

	Client     *User     `json:"client,omitempty"`
	Contractor *User     `json:"contractor,omitempty"`
	Category   *Category `json:"category,omitempty"`
}

// TaskFilter narrows a task listing. Zero values mean "any".
type TaskFilter struct {
	Status       TaskStatus
	Priority     TaskPriority
	CategoryID   string
	ClientID     string
	ContractorID string
	Search       string
	Page         int
	Limit        int
}

// Offset returns the row offset for the requested page.
func (f TaskFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

type TaskPage struct {
	Tasks      []*Task    `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination computes page counts for total rows.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage:  page,
		TotalPages:   pages,
		TotalItems:   total,
		ItemsPerPage: limit,
	}
}

// TaskInput is the body of task create and update requests. On update, nil
// fields keep their stored value.
type TaskInput struct {
	Title                  *string       `json:"title"`
	ShortDescription       *string       `json:"shortDescription"`
	AIGeneratedDescription *string       `json:"aiGeneratedDescription"`
	EstimatedHours         *int          `json:"estimatedHours"`
	EstimatedCost          *float64      `json:"estimatedCost"`
	Priority               *TaskPriority `json:"priority"`
	Status                 *TaskStatus   `json:"status"`
	Deadline               *string       `json:"deadline"` // RFC 3339 or YYYY-MM-DD
	ClientID               *string       `json:"clientId"`
	ContractorID           *string       `json:"contractorId"`
	CategoryID             *string       `json:"categoryId"`
	Requirements           []string      `json:"requirements"`
	Deliverables           []string      `json:"deliverables"`
	Milestones             []string      `json:"milestones"`
}
