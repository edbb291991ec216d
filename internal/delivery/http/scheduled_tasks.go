package http

import (
	"net/http"
	"strconv"
	"time"

	"grouptasks/internal/dto"
	"grouptasks/internal/model"
	"grouptasks/pkg/utils"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupScheduledTasks(base *echo.Group) {
	v1 := base.Group("/v1/scheduled-tasks")
	{
		v1.POST("", h.CreateScheduledTask)
		v1.GET("", h.ListScheduledTasks)
		v1.GET("/:id", h.GetScheduledTask)
		v1.PUT("/:id", h.UpdateScheduledTask)
		v1.DELETE("/:id", h.DeleteScheduledTask)
		v1.POST("/:id/pause", h.PauseScheduledTask)
		v1.POST("/:id/resume", h.ResumeScheduledTask)
		v1.GET("/:id/executions", h.GetExecutionHistory)
		v1.POST("/:id/run", h.RunScheduledTask)
		v1.POST("/run", h.RunTick)
	}
}

func (h *HttpAPIHandler) CreateScheduledTask(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.CreateScheduledTaskRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	task, err := req.ToModel()
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	if err := h.service.ScheduledTaskService.Create(ctx, task, req.Schedules, req.Tags); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	next := h.service.ScheduledTaskService.NextOccurrence(task, time.Now())
	return c.JSON(http.StatusCreated, dto.NewBaseResponse(http.StatusCreated, "Scheduled task created", dto.NewScheduledTaskResponse(task, next)))
}

func (h *HttpAPIHandler) ListScheduledTasks(c echo.Context) error {
	ctx := c.Request().Context()

	param := &model.GetScheduledTaskParam{}
	if groupID := c.QueryParam("group_id"); groupID != "" {
		id, err := strconv.ParseUint(groupID, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid group_id"))
		}
		param.GroupID = utils.ToPointer(uint(id))
	}
	if active := c.QueryParam("is_active"); active != "" {
		isActive, err := strconv.ParseBool(active)
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid is_active"))
		}
		param.IsActive = &isActive
	}

	tasks, err := h.service.ScheduledTaskService.Get(ctx, param)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to list scheduled tasks", nil))
	}

	now := time.Now()
	responses := make([]*dto.ScheduledTaskResponse, 0, len(tasks))
	for i := range tasks {
		next := h.service.ScheduledTaskService.NextOccurrence(&tasks[i], now)
		responses = append(responses, dto.NewScheduledTaskResponse(&tasks[i], next))
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", responses))
}

func (h *HttpAPIHandler) GetScheduledTask(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid id"))
	}

	task, err := h.service.ScheduledTaskService.FindByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to get scheduled task", nil))
	}
	if task == nil {
		return c.JSON(http.StatusNotFound, dto.NewBaseResponse(http.StatusNotFound, "scheduled task not found", nil))
	}

	lastSuccess, err := h.service.ScheduledTaskService.LastSuccess(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to get last execution", nil))
	}

	next := h.service.ScheduledTaskService.NextOccurrence(task, time.Now())
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", dto.NewScheduledTaskDetailResponse(task, next, lastSuccess)))
}

func (h *HttpAPIHandler) UpdateScheduledTask(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid id"))
	}

	req := new(dto.UpdateScheduledTaskRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	existing, err := h.service.ScheduledTaskService.FindByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to get scheduled task", nil))
	}
	if existing == nil {
		return c.JSON(http.StatusNotFound, dto.NewBaseResponse(http.StatusNotFound, "scheduled task not found", nil))
	}

	task, err := req.ToModel()
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}
	task.ID = id
	task.IsActive = existing.IsActive
	if req.IsActive != nil {
		task.IsActive = *req.IsActive
	}

	if err := h.service.ScheduledTaskService.Update(ctx, task, req.Schedules, req.Tags); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	next := h.service.ScheduledTaskService.NextOccurrence(task, time.Now())
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Scheduled task updated", dto.NewScheduledTaskResponse(task, next)))
}

func (h *HttpAPIHandler) DeleteScheduledTask(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid id"))
	}

	if err := h.service.ScheduledTaskService.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to delete scheduled task", nil))
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Scheduled task deleted", nil))
}

func (h *HttpAPIHandler) PauseScheduledTask(c echo.Context) error {
	return h.setActive(c, false, "Scheduled task paused")
}

func (h *HttpAPIHandler) ResumeScheduledTask(c echo.Context) error {
	return h.setActive(c, true, "Scheduled task resumed")
}

func (h *HttpAPIHandler) setActive(c echo.Context, active bool, message string) error {
	ctx := c.Request().Context()

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid id"))
	}

	var svcErr error
	if active {
		svcErr = h.service.ScheduledTaskService.Resume(ctx, id)
	} else {
		svcErr = h.service.ScheduledTaskService.Pause(ctx, id)
	}
	if svcErr != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, svcErr.Error(), nil))
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse(message, nil))
}

func (h *HttpAPIHandler) GetExecutionHistory(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid id"))
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid limit"))
		}
		limit = parsed
	}

	executions, err := h.service.ScheduledTaskService.History(ctx, id, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to get execution history", nil))
	}

	responses := make([]*dto.ExecutionResponse, 0, len(executions))
	for i := range executions {
		responses = append(responses, dto.NewExecutionResponse(&executions[i]))
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", responses))
}

// RunTick is the entry point for an external cron trigger.
func (h *HttpAPIHandler) RunTick(c echo.Context) error {
	ctx := c.Request().Context()

	now, err := evaluationTime(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	summary, err := h.service.SchedulerService.Execute(ctx, now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil))
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Tick completed", summary))
}

func (h *HttpAPIHandler) RunScheduledTask(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid id"))
	}

	now, err := evaluationTime(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	execution, err := h.service.SchedulerService.RunScheduledTask(ctx, id, now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil))
	}
	if execution == nil {
		return c.JSON(http.StatusOK, dto.NewSuccessResponse("No action for this tick", nil))
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Scheduled task evaluated", dto.NewExecutionResponse(execution)))
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func evaluationTime(c echo.Context) (time.Time, error) {
	req := new(dto.RunTickRequest)
	// Body is optional on run endpoints.
	_ = c.Bind(req)
	if req.Now == "" {
		return time.Now(), nil
	}
	return time.Parse(time.RFC3339, req.Now)
}
