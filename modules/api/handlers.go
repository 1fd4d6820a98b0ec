package api

import (
	"encoding/json"
	"strconv"

	"github.com/example/task-tracker/modules/task"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	app.Get("/health", m.healthHandler)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/tasks")
	})

	tasks := app.Group("/tasks")
	tasks.Get("/", m.listTasks)
	tasks.Post("/", m.createTask)
	tasks.Get("/:id", m.getTask)
	tasks.Put("/:id", m.updateTask)
	tasks.Patch("/:id", m.updateTask)
	tasks.Delete("/:id", m.deleteTask)

	app.Get("/activity", m.recentActivity)

	m.setupStreamRoutes(app)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":         "api",
			"addr":           m.cfg.Addr,
			"stream_clients": m.hub.ClientCount(),
		},
	})
}

// listTasks handles GET /tasks.
func (m *APIModule) listTasks(c *fiber.Ctx) error {
	resp, err := m.taskPort.ListTasks(c.UserContext())
	if err != nil {
		return m.serverError(c, "list-tasks", err)
	}
	return c.JSON(resp)
}

// createTask handles POST /tasks.
func (m *APIModule) createTask(c *fiber.Ctx) error {
	body, ok, err := parseEdit(c)
	if !ok {
		return err
	}

	result, err := m.taskPort.CreateTask(c.UserContext(), &task.CreateTaskRequest{
		Text:      body.Text,
		Completed: body.Completed,
	})
	if err != nil {
		return m.serverError(c, "create-task", err)
	}
	return m.writeResult(c, result)
}

// getTask handles GET /tasks/:id.
func (m *APIModule) getTask(c *fiber.Ctx) error {
	result, err := m.taskPort.GetTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return m.serverError(c, "get-task", err)
	}
	return m.writeResult(c, result)
}

// updateTask handles PUT and PATCH /tasks/:id. Both replace text and completion.
func (m *APIModule) updateTask(c *fiber.Ctx) error {
	body, ok, err := parseEdit(c)
	if !ok {
		return err
	}

	result, err := m.taskPort.UpdateTask(c.UserContext(), &task.UpdateTaskRequest{
		TaskID:    c.Params("id"),
		Text:      body.Text,
		Completed: body.Completed,
	})
	if err != nil {
		return m.serverError(c, "update-task", err)
	}
	return m.writeResult(c, result)
}

// deleteTask handles DELETE /tasks/:id.
func (m *APIModule) deleteTask(c *fiber.Ctx) error {
	result, err := m.taskPort.DeleteTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return m.serverError(c, "delete-task", err)
	}
	return m.writeResult(c, result)
}

// recentActivity handles GET /activity.
func (m *APIModule) recentActivity(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "bad_request",
				Message: "limit must be a positive integer",
			})
		}
		limit = n
	}

	resp, err := m.activityPort.RecentActivity(c.UserContext(), limit)
	if err != nil {
		return m.serverError(c, "recent-activity", err)
	}
	return c.JSON(resp)
}

// parseEdit decodes the request body. Any decode failure, including a
// missing body or a wrongly typed field, has already been answered with 400
// when ok is false.
func parseEdit(c *fiber.Ctx) (TaskEditRequest, bool, error) {
	var body TaskEditRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return body, false, c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "malformed_request",
			Message: "request body must be a JSON object with string \"text\" and boolean \"completed\"",
		})
	}
	return body, true, nil
}

// writeResult maps a use-case outcome onto an HTTP response.
func (m *APIModule) writeResult(c *fiber.Ctx, result *task.TaskResult) error {
	switch result.Outcome {
	case task.OutcomeFound, task.OutcomeUpdated:
		return c.JSON(result.Task)
	case task.OutcomeCreated:
		c.Location(result.Task.Link)
		return c.Status(fiber.StatusCreated).JSON(result.Task)
	case task.OutcomeDeleted:
		return c.SendStatus(fiber.StatusNoContent)
	case task.OutcomeValidationFailed:
		return c.Status(fiber.StatusBadRequest).JSON(ValidationErrorResponse{
			Error:   "validation_failed",
			Message: result.Message,
			Errors:  result.Errors,
		})
	case task.OutcomeNotFound:
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: result.Message,
		})
	case task.OutcomeBadRequest:
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: result.Message,
		})
	default:
		m.logger.Error("Unknown task outcome", "outcome", result.Outcome)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "server_error",
			Message: "Internal Server Error",
		})
	}
}

// serverError logs err and answers 500 without exposing its details.
func (m *APIModule) serverError(c *fiber.Ctx, op string, err error) error {
	m.logger.Error("Request failed",
		"operation", op,
		"request_id", c.Locals("requestid"),
		"error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "server_error",
		Message: "Internal Server Error",
	})
}
