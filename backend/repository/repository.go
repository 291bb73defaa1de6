package repository

import (
	"context"
	"errors"

	"golang.org/x/text/cases"

	"github.com/SergeyShakirov/TaskGo/backend/model"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrAlreadyExists    = errors.New("record already exists")
)

// foldSearch case-folds text for search matching, Cyrillic included.
func foldSearch(s string) string {
	return cases.Fold().String(s)
}

// TaskRepository persists tasks together with the users and categories they
// reference. Tasks returned by Get and List carry their client, contractor
// and category.
type TaskRepository interface {
	List(ctx context.Context, filter model.TaskFilter) ([]*model.Task, int, error)
	Get(ctx context.Context, id string) (*model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id string) error

	GetUser(ctx context.Context, id string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	ListCategories(ctx context.Context) ([]*model.Category, error)

	Close() error
}

// DemoCategories and DemoClient are seeded into empty stores.
var DemoCategories = []model.Category{
	{ID: "web", Name: "Web development", Description: "Websites and web applications", Icon: "web"},
	{ID: "mobile", Name: "Mobile apps", Description: "iOS and Android applications", Icon: "mobile"},
	{ID: "design", Name: "Design", Description: "UI/UX and graphic design", Icon: "design"},
	{ID: "software", Name: "Software development", Description: "Desktop, backend and integrations", Icon: "code"},
}

var DemoClient = model.User{ID: "demo-client", Name: "Demo Client", Email: "client@taskgo.local", Role: model.RoleClient}

// Seed inserts the demo categories and client, skipping any that exist.
func Seed(ctx context.Context, repo TaskRepository) error {
	for _, c := range DemoCategories {
		c := c
		if err := repo.CreateCategory(ctx, &c); err != nil && !errors.Is(err, ErrAlreadyExists) {
			return err
		}
	}
	client := DemoClient
	if err := repo.CreateUser(ctx, &client); err != nil && !errors.Is(err, ErrAlreadyExists) {
		return err
	}
	return nil
}
