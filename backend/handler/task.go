package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SergeyShakirov/TaskGo/backend/model"
	"github.com/SergeyShakirov/TaskGo/backend/service"
)

type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler serves the /api/tasks routes.
func NewTaskHandler(s *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: s}
}

// List handles GET /api/tasks with pagination and filter query parameters.
func (h *TaskHandler) List(c *gin.Context) {
	page, ok := positiveQuery(c, "page")
	if !ok {
		return
	}
	limit, ok := positiveQuery(c, "limit")
	if !ok {
		return
	}

	result, err := h.tasks.List(c.Request.Context(), model.TaskFilter{
		Status:       model.TaskStatus(c.Query("status")),
		Priority:     model.TaskPriority(c.Query("priority")),
		CategoryID:   c.Query("categoryId"),
		ClientID:     c.Query("clientId"),
		ContractorID: c.Query("contractorId"),
		Search:       c.Query("search"),
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		failErr(c, err, "Failed to get tasks")
		return
	}
	respond(c, http.StatusOK, result, "")
}

// Get answers 404 for an unknown id.
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, "Failed to get task")
		return
	}
	respond(c, http.StatusOK, task, "")
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(c *gin.Context) {
	var in model.TaskInput
	if !bindJSON(c, &in) {
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), in)
	if err != nil {
		failErr(c, err, "Failed to create task")
		return
	}
	respond(c, http.StatusCreated, task, "Task created successfully")
}

// Update handles PUT /api/tasks/:id.
func (h *TaskHandler) Update(c *gin.Context) {
	var in model.TaskInput
	if !bindJSON(c, &in) {
		return
	}
	task, err := h.tasks.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		failErr(c, err, "Failed to update task")
		return
	}
	respond(c, http.StatusOK, task, "Task updated successfully")
}

// Delete handles DELETE /api/tasks/:id.
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err, "Failed to delete task")
		return
	}
	respond(c, http.StatusOK, nil, "Task deleted successfully")
}

// positiveQuery reads an optional positive integer parameter; 0 means unset.
func positiveQuery(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		fail(c, http.StatusBadRequest, key+" must be a positive integer")
		return 0, false
	}
	return n, true
}
