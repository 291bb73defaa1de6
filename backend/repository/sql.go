package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/SergeyShakirov/TaskGo/backend/config"
	"github.com/SergeyShakirov/TaskGo/backend/model"
)

// timeLayout is fixed-width so text columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

type dialect struct {
	name   string
	driver string
}

var (
	sqliteDialect   = dialect{name: config.DriverSQLite, driver: "sqlite"}
	postgresDialect = dialect{name: config.DriverPostgres, driver: "pgx"}
)

// rebind rewrites ? placeholders to $n for postgres.
func (d dialect) rebind(query string) string {
	if d.name != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// SQLTaskRepository implements TaskRepository over database/sql for both
// SQLite and PostgreSQL. All timestamps and lists are stored as text.
type SQLTaskRepository struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to the configured database and runs migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*SQLTaskRepository, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg.DSN())
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// OpenSQLite opens a SQLite database at path. ":memory:" is accepted.
func OpenSQLite(ctx context.Context, path string) (*SQLTaskRepository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return newSQLTaskRepository(ctx, db, sqliteDialect)
}

func openPostgres(ctx context.Context, dsn string) (*SQLTaskRepository, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newSQLTaskRepository(ctx, db, postgresDialect)
}

func newSQLTaskRepository(ctx context.Context, db *sql.DB, d dialect) (*SQLTaskRepository, error) {
	r := &SQLTaskRepository{db: db, dialect: d}
	if err := r.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return r, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'client'
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		short_description TEXT NOT NULL,
		ai_generated_description TEXT NOT NULL DEFAULT '',
		estimated_hours INTEGER,
		estimated_cost DOUBLE PRECISION,
		priority TEXT NOT NULL DEFAULT 'medium',
		status TEXT NOT NULL DEFAULT 'draft',
		deadline TEXT,
		client_id TEXT NOT NULL REFERENCES users(id),
		contractor_id TEXT REFERENCES users(id),
		category_id TEXT NOT NULL REFERENCES categories(id),
		requirements TEXT NOT NULL DEFAULT '[]',
		deliverables TEXT NOT NULL DEFAULT '[]',
		milestones TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		title_search TEXT NOT NULL DEFAULT '',
		description_search TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_client_id ON tasks (client_id)`,
}

// Migrate creates the schema. Every statement is idempotent.
func (r *SQLTaskRepository) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const taskSelect = `SELECT t.id, t.title, t.short_description, t.ai_generated_description,
	t.estimated_hours, t.estimated_cost, t.priority, t.status, t.deadline,
	t.client_id, t.contractor_id, t.category_id, t.requirements, t.deliverables, t.milestones,
	t.created_at, t.updated_at,
	cl.name, cl.email, cl.role, co.name, co.email, co.role, cat.name, cat.description, cat.icon
FROM tasks t
LEFT JOIN users cl ON cl.id = t.client_id
LEFT JOIN users co ON co.id = t.contractor_id
LEFT JOIN categories cat ON cat.id = t.category_id`

func (r *SQLTaskRepository) List(ctx context.Context, filter model.TaskFilter) ([]*model.Task, int, error) {
	where, args := filterClause(filter)

	var total int
	countQuery := r.dialect.rebind("SELECT COUNT(*) FROM tasks t" + where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting tasks: %w", err)
	}

	query := taskSelect + where + " ORDER BY t.created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset())
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func filterClause(f model.TaskFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		conds = append(conds, cond)
		args = append(args, v)
	}

	if f.Status != "" {
		add("t.status = ?", string(f.Status))
	}
	if f.Priority != "" {
		add("t.priority = ?", string(f.Priority))
	}
	if f.CategoryID != "" {
		add("t.category_id = ?", f.CategoryID)
	}
	if f.ClientID != "" {
		add("t.client_id = ?", f.ClientID)
	}
	if f.ContractorID != "" {
		add("t.contractor_id = ?", f.ContractorID)
	}
	if f.Search != "" {
		// SQL LOWER folds ASCII only on SQLite, so both sides are folded in Go.
		pattern := "%" + likeEscaper.Replace(foldSearch(f.Search)) + "%"
		conds = append(conds, `(t.title_search LIKE ? ESCAPE '\' OR t.description_search LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *SQLTaskRepository) Get(ctx context.Context, id string) (*model.Task, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.rebind(taskSelect+" WHERE t.id = ?"), id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	return t, err
}

func (r *SQLTaskRepository) Create(ctx context.Context, t *model.Task) error {
	query := `INSERT INTO tasks (id, title, short_description, ai_generated_description,
		estimated_hours, estimated_cost, priority, status, deadline,
		client_id, contractor_id, category_id, requirements, deliverables, milestones,
		created_at, updated_at, title_search, description_search)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, r.dialect.rebind(query),
		t.ID, t.Title, t.ShortDescription, t.AIGeneratedDescription,
		nullableInt(t.EstimatedHours), nullableFloat(t.EstimatedCost),
		string(t.Priority), string(t.Status), nullableTime(t.Deadline),
		t.ClientID, nullableString(t.ContractorID), t.CategoryID,
		encodeList(t.Requirements), encodeList(t.Deliverables), encodeList(t.Milestones),
		t.CreatedAt.UTC().Format(timeLayout), t.UpdatedAt.UTC().Format(timeLayout),
		foldSearch(t.Title), foldSearch(t.ShortDescription),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLTaskRepository) Update(ctx context.Context, t *model.Task) error {
	query := `UPDATE tasks SET title = ?, short_description = ?, ai_generated_description = ?,
		estimated_hours = ?, estimated_cost = ?, priority = ?, status = ?, deadline = ?,
		client_id = ?, contractor_id = ?, category_id = ?,
		requirements = ?, deliverables = ?, milestones = ?, updated_at = ?,
		title_search = ?, description_search = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(query),
		t.Title, t.ShortDescription, t.AIGeneratedDescription,
		nullableInt(t.EstimatedHours), nullableFloat(t.EstimatedCost),
		string(t.Priority), string(t.Status), nullableTime(t.Deadline),
		t.ClientID, nullableString(t.ContractorID), t.CategoryID,
		encodeList(t.Requirements), encodeList(t.Deliverables), encodeList(t.Milestones),
		t.UpdatedAt.UTC().Format(timeLayout),
		foldSearch(t.Title), foldSearch(t.ShortDescription), t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return expectOneRow(res, ErrTaskNotFound)
}

func (r *SQLTaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind("DELETE FROM tasks WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return expectOneRow(res, ErrTaskNotFound)
}

func (r *SQLTaskRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	var role string
	err := r.db.QueryRowContext(ctx, r.dialect.rebind("SELECT id, name, email, role FROM users WHERE id = ?"), id).
		Scan(&u.ID, &u.Name, &u.Email, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	u.Role = model.UserRole(role)
	return &u, nil
}

func (r *SQLTaskRepository) CreateUser(ctx context.Context, u *model.User) error {
	role := u.Role
	if role == "" {
		role = model.RoleClient
	}
	query := "INSERT INTO users (id, name, email, role) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING"
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(query), u.ID, u.Name, u.Email, string(role))
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return expectOneRow(res, ErrAlreadyExists)
}

func (r *SQLTaskRepository) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := r.db.QueryRowContext(ctx, r.dialect.rebind("SELECT id, name, description, icon FROM categories WHERE id = ?"), id).
		Scan(&c.ID, &c.Name, &c.Description, &c.Icon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return &c, nil
}

func (r *SQLTaskRepository) CreateCategory(ctx context.Context, c *model.Category) error {
	query := "INSERT INTO categories (id, name, description, icon) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING"
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(query), c.ID, c.Name, c.Description, c.Icon)
	if err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	return expectOneRow(res, ErrAlreadyExists)
}

func (r *SQLTaskRepository) ListCategories(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, description, icon FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	out := []*model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *SQLTaskRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*model.Task, error) {
	var (
		t                                model.Task
		hours                            sql.NullInt64
		cost                             sql.NullFloat64
		priority, status                 string
		deadline, contractorID           sql.NullString
		reqs, dels, miles                string
		createdAt, updatedAt             string
		clName, clEmail, clRole          sql.NullString
		coName, coEmail, coRole          sql.NullString
		catName, catDescription, catIcon sql.NullString
	)
	err := s.Scan(
		&t.ID, &t.Title, &t.ShortDescription, &t.AIGeneratedDescription,
		&hours, &cost, &priority, &status, &deadline,
		&t.ClientID, &contractorID, &t.CategoryID, &reqs, &dels, &miles,
		&createdAt, &updatedAt,
		&clName, &clEmail, &clRole, &coName, &coEmail, &coRole, &catName, &catDescription, &catIcon,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	t.Priority = model.TaskPriority(priority)
	t.Status = model.TaskStatus(status)
	if hours.Valid {
		h := int(hours.Int64)
		t.EstimatedHours = &h
	}
	if cost.Valid {
		c := cost.Float64
		t.EstimatedCost = &c
	}
	t.Deadline = parseNullableTime(deadline)
	t.ContractorID = contractorID.String
	t.Requirements = decodeList(reqs)
	t.Deliverables = decodeList(dels)
	t.Milestones = decodeList(miles)
	t.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	t.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)

	if clName.Valid {
		t.Client = &model.User{ID: t.ClientID, Name: clName.String, Email: clEmail.String, Role: model.UserRole(clRole.String)}
	}
	if coName.Valid {
		t.Contractor = &model.User{ID: t.ContractorID, Name: coName.String, Email: coEmail.String, Role: model.UserRole(coRole.String)}
	}
	if catName.Valid {
		t.Category = &model.Category{ID: t.CategoryID, Name: catName.String, Description: catDescription.String, Icon: catIcon.String}
	}
	return &t, nil
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func encodeList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(items)
	return string(data)
}

func decodeList(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil || len(out) == 0 {
		return nil
	}
	return out
}
