package repository

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/SergeyShakirov/TaskGo/backend/model"
)

// MemoryTaskRepository keeps everything in process memory. It backs the
// "memory" database driver and tests.
type MemoryTaskRepository struct {
	mu         sync.RWMutex
	tasks      map[string]*model.Task
	users      map[string]*model.User
	categories map[string]*model.Category
	maxTasks   int // 0 = unlimited
}

func NewMemoryTaskRepository(maxTasks int) *MemoryTaskRepository {
	if maxTasks < 0 {
		maxTasks = 0
	}
	return &MemoryTaskRepository{
		tasks:      make(map[string]*model.Task),
		users:      make(map[string]*model.User),
		categories: make(map[string]*model.Category),
		maxTasks:   maxTasks,
	}
}

func (r *MemoryTaskRepository) List(_ context.Context, filter model.TaskFilter) ([]*model.Task, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.Task
	for _, t := range r.tasks {
		if matches(filter, t) {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(filter.Offset(), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}

	out := make([]*model.Task, 0, end-start)
	for _, t := range matched[start:end] {
		out = append(out, r.withRelations(t))
	}
	return out, total, nil
}

func (r *MemoryTaskRepository) Get(_ context.Context, id string) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return r.withRelations(t), nil
}

func (r *MemoryTaskRepository) Create(_ context.Context, task *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID]; ok {
		return ErrAlreadyExists
	}
	r.tasks[task.ID] = stripRelations(task)
	r.cleanupIfNeeded()
	return nil
}

func (r *MemoryTaskRepository) Update(_ context.Context, task *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID]; !ok {
		return ErrTaskNotFound
	}
	r.tasks[task.ID] = stripRelations(task)
	return nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryTaskRepository) GetUser(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryTaskRepository) CreateUser(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return ErrAlreadyExists
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *MemoryTaskRepository) GetCategory(_ context.Context, id string) (*model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryTaskRepository) CreateCategory(_ context.Context, category *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[category.ID]; ok {
		return ErrAlreadyExists
	}
	cp := *category
	r.categories[category.ID] = &cp
	return nil
}

func (r *MemoryTaskRepository) ListCategories(_ context.Context) ([]*model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryTaskRepository) Close() error { return nil }

// Count returns the number of stored tasks.
func (r *MemoryTaskRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// withRelations copies t and attaches its users and category.
// Must be called with lock held
func (r *MemoryTaskRepository) withRelations(t *model.Task) *model.Task {
	cp := stripRelations(t)
	if u, ok := r.users[cp.ClientID]; ok {
		c := *u
		cp.Client = &c
	}
	if u, ok := r.users[cp.ContractorID]; ok && cp.ContractorID != "" {
		c := *u
		cp.Contractor = &c
	}
	if c, ok := r.categories[cp.CategoryID]; ok {
		cat := *c
		cp.Category = &cat
	}
	return cp
}

// cleanupIfNeeded removes the oldest tasks once maxTasks is exceeded.
// Must be called with lock held
func (r *MemoryTaskRepository) cleanupIfNeeded() {
	if r.maxTasks <= 0 || len(r.tasks) <= r.maxTasks {
		return
	}

	tasks := make([]*model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	for _, t := range tasks[:len(tasks)-r.maxTasks] {
		slog.Info("auto-cleaning old task", "task_id", t.ID, "created_at", t.CreatedAt)
		delete(r.tasks, t.ID)
	}
}

func stripRelations(t *model.Task) *model.Task {
	cp := *t
	cp.Client, cp.Contractor, cp.Category = nil, nil, nil
	cp.Requirements = append([]string(nil), t.Requirements...)
	cp.Deliverables = append([]string(nil), t.Deliverables...)
	cp.Milestones = append([]string(nil), t.Milestones...)
	return &cp
}

func matches(f model.TaskFilter, t *model.Task) bool {
	switch {
	case f.Status != "" && t.Status != f.Status:
		return false
	case f.Priority != "" && t.Priority != f.Priority:
		return false
	case f.CategoryID != "" && t.CategoryID != f.CategoryID:
		return false
	case f.ClientID != "" && t.ClientID != f.ClientID:
		return false
	case f.ContractorID != "" && t.ContractorID != f.ContractorID:
		return false
	}
	if f.Search == "" {
		return true
	}
	q := foldSearch(f.Search)
	return strings.Contains(foldSearch(t.Title), q) ||
		strings.Contains(foldSearch(t.ShortDescription), q)
}
