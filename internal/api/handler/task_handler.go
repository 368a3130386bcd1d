package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

// TaskHandler serves the per-profile task list.
type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

type taskRequest struct {
	Title     string     `json:"title"     validate:"required,max=200"`
	Notes     string     `json:"notes"     validate:"max=5000"`
	DueAt     *time.Time `json:"due_at"`
	Completed bool       `json:"completed"`
}

type taskListResponse struct {
	Data []*domain.Task `json:"data"`
}

func (r taskRequest) toInput() ports.TaskInput {
	return ports.TaskInput{
		Title:     r.Title,
		Notes:     r.Notes,
		DueAt:     r.DueAt,
		Completed: r.Completed,
	}
}

// List handles GET /v1/profiles/:id/tasks.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Profile id"
// @Success      200  {object}  taskListResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/profiles/{id}/tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	tasks, err := h.service.List(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, taskListResponse{Data: tasks})
}

// Create handles POST /v1/profiles/:id/tasks.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Profile id"
// @Param        body  body      taskRequest  true  "Task"
// @Success      201   {object}  domain.Task
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/profiles/{id}/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	actorID, _, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.service.Create(c.Request().Context(), actorID, c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// Get handles GET /v1/profiles/:id/tasks/:task_id.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Profile id"
// @Param        task_id  path      string  true  "Task id"
// @Success      200      {object}  domain.Task
// @Failure      401      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /v1/profiles/{id}/tasks/{task_id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	task, err := h.service.Get(c.Request().Context(), c.Param("id"), c.Param("task_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Update handles PUT /v1/profiles/:id/tasks/:task_id.
//
// @Summary      Replace a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string       true  "Profile id"
// @Param        task_id  path      string       true  "Task id"
// @Param        body     body      taskRequest  true  "Task"
// @Success      200      {object}  domain.Task
// @Failure      400      {object}  errorResponse
// @Failure      401      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /v1/profiles/{id}/tasks/{task_id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	actorID, _, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.service.Update(c.Request().Context(), actorID, c.Param("id"), c.Param("task_id"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Delete handles DELETE /v1/profiles/:id/tasks/:task_id.
//
// @Summary      Delete a task
// @Tags         tasks
// @Security     BearerAuth
// @Param        id       path  string  true  "Profile id"
// @Param        task_id  path  string  true  "Task id"
// @Success      204
// @Failure      401      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /v1/profiles/{id}/tasks/{task_id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	actorID, _, err := ctxActor(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), actorID, c.Param("id"), c.Param("task_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
