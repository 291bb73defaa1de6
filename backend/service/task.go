package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SergeyShakirov/TaskGo/backend/model"
	"github.com/SergeyShakirov/TaskGo/backend/pkg/logger"
	"github.com/SergeyShakirov/TaskGo/backend/repository"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// TaskService validates task writes and publishes their events.
type TaskService struct {
	repo   repository.TaskRepository
	events EventPublisher
	now    func() time.Time
}

func NewTaskService(repo repository.TaskRepository, events EventPublisher) *TaskService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &TaskService{repo: repo, events: events, now: time.Now}
}

// List returns one page of tasks, newest first.
func (s *TaskService) List(ctx context.Context, filter model.TaskFilter) (model.TaskPage, error) {
	if filter.Page < 1 {
		filter.Page = defaultPage
	}
	if filter.Limit < 1 {
		filter.Limit = defaultLimit
	}
	filter.Limit = min(filter.Limit, maxLimit)

	tasks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return model.TaskPage{}, err
	}
	return model.TaskPage{
		Tasks:      tasks,
		Pagination: model.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (*model.Task, error) {
	return s.repo.Get(ctx, id)
}

func (s *TaskService) Create(ctx context.Context, in model.TaskInput) (*model.Task, error) {
	for _, f := range requiredFields(in) {
		if f.value == nil || strings.TrimSpace(*f.value) == "" {
			return nil, Required(f.name)
		}
	}

	now := s.now().UTC()
	task := &model.Task{
		ID:        uuid.NewString(),
		Priority:  model.PriorityMedium,
		Status:    model.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.apply(ctx, task, in); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	ctx = logger.WithTaskID(ctx, task.ID)
	logger.Info(ctx, "Task created", "client_id", task.ClientID, "category_id", task.CategoryID)
	s.events.Publish(ctx, Event{Type: EventTaskCreated, TaskID: task.ID, Data: task})

	return s.repo.Get(ctx, task.ID)
}

// Update merges the non-nil fields of in into the stored task.
func (s *TaskService) Update(ctx context.Context, id string, in model.TaskInput) (*model.Task, error) {
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// present-but-blank required fields are rejected
	for _, f := range requiredFields(in) {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return nil, Required(f.name)
		}
	}

	if err := s.apply(ctx, task, in); err != nil {
		return nil, err
	}
	task.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}

	ctx = logger.WithTaskID(ctx, id)
	logger.Info(ctx, "Task updated", "status", task.Status)
	s.events.Publish(ctx, Event{Type: EventTaskUpdated, TaskID: id, Data: task})

	return s.repo.Get(ctx, id)
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	ctx = logger.WithTaskID(ctx, id)
	logger.Info(ctx, "Task deleted")
	s.events.Publish(ctx, Event{Type: EventTaskDeleted, TaskID: id})
	return nil
}

// apply copies the set fields of in onto task, checking enums and references.
func (s *TaskService) apply(ctx context.Context, task *model.Task, in model.TaskInput) error {
	if in.Status != nil {
		if !in.Status.Valid() {
			return &ValidationError{Field: "status", Message: "Invalid status: " + string(*in.Status)}
		}
		task.Status = *in.Status
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return &ValidationError{Field: "priority", Message: "Invalid priority: " + string(*in.Priority)}
		}
		task.Priority = *in.Priority
	}
	if in.EstimatedHours != nil && *in.EstimatedHours < 0 {
		return &ValidationError{Field: "estimatedHours", Message: "estimatedHours must not be negative"}
	}
	if in.EstimatedCost != nil && *in.EstimatedCost < 0 {
		return &ValidationError{Field: "estimatedCost", Message: "estimatedCost must not be negative"}
	}

	if in.ClientID != nil && *in.ClientID != task.ClientID {
		if err := s.checkUser(ctx, "clientId", *in.ClientID, "Client not found"); err != nil {
			return err
		}
		task.ClientID = *in.ClientID
	}
	if in.ContractorID != nil && *in.ContractorID != task.ContractorID {
		if *in.ContractorID != "" {
			if err := s.checkUser(ctx, "contractorId", *in.ContractorID, "Contractor not found"); err != nil {
				return err
			}
		}
		task.ContractorID = *in.ContractorID
	}
	if in.CategoryID != nil && *in.CategoryID != task.CategoryID {
		if _, err := s.repo.GetCategory(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return &ValidationError{Field: "categoryId", Message: "Category not found"}
			}
			return err
		}
		task.CategoryID = *in.CategoryID
	}

	if in.Deadline != nil {
		d, err := parseDeadline(*in.Deadline)
		if err != nil {
			return err
		}
		task.Deadline = d
	}

	if in.Title != nil {
		task.Title = strings.TrimSpace(*in.Title)
	}
	if in.ShortDescription != nil {
		task.ShortDescription = strings.TrimSpace(*in.ShortDescription)
	}
	if in.AIGeneratedDescription != nil {
		task.AIGeneratedDescription = *in.AIGeneratedDescription
	}
	if in.EstimatedHours != nil {
		task.EstimatedHours = in.EstimatedHours
	}
	if in.EstimatedCost != nil {
		task.EstimatedCost = in.EstimatedCost
	}
	if in.Requirements != nil {
		task.Requirements = in.Requirements
	}
	if in.Deliverables != nil {
		task.Deliverables = in.Deliverables
	}
	if in.Milestones != nil {
		task.Milestones = in.Milestones
	}
	return nil
}

func (s *TaskService) checkUser(ctx context.Context, field, id, msg string) error {
	_, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return &ValidationError{Field: field, Message: msg}
	}
	return err
}

type namedField struct {
	name  string
	value *string
}

func requiredFields(in model.TaskInput) []namedField {
	return []namedField{
		{"title", in.Title},
		{"shortDescription", in.ShortDescription},
		{"clientId", in.ClientID},
		{"categoryId", in.CategoryID},
	}
}

// parseDeadline accepts RFC 3339 timestamps and plain dates. An empty
// string clears the deadline.
func parseDeadline(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, &ValidationError{Field: "deadline", Message: "deadline must be a date (YYYY-MM-DD)"}
}
