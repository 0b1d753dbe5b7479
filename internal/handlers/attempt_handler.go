package handlers

import (
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/assessment-delivery/internal/engine"
	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"github.com/SAP-F-2025/assessment-delivery/internal/repositories"
	"github.com/SAP-F-2025/assessment-delivery/internal/services"
	"github.com/SAP-F-2025/assessment-delivery/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	exportService  services.ExportService
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	exportService services.ExportService,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		exportService:  exportService,
	}
}

// StartAttempt creates an in-progress attempt
// @Summary Start attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param request body engine.StartAttemptRequest true "Test or battery to start"
// @Success 201 {object} SuccessResponse{data=engine.StartAttemptResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /attempts/start [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req engine.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	req.UserID = CallerID(c)

	h.LogRequest(c, "Starting attempt", "test_id", req.TestID, "battery_id", req.BatteryID)

	resp, err := h.attemptService.Start(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, "Attempt started", resp)
}

// SaveAnswer stores the full current selection for one question
// @Summary Save answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param request body engine.SaveAnswerRequest true "Selection"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/answers [post]
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}

	var req engine.SaveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	req.AttemptID = id
	req.UserID = CallerID(c)

	if err := h.attemptService.SaveAnswer(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Answer saved", nil)
}

// SubmitAttempt finalizes the attempt. Repeated calls return the stored result.
// @Summary Submit attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param request body engine.SubmitAttemptRequest true "Submission"
// @Success 200 {object} SuccessResponse{data=models.TestAttempt}
// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}

	var req engine.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	req.AttemptID = id

	h.LogRequest(c, "Submitting attempt", "attempt_id", id, "reason", req.Reason)

	attempt, err := h.attemptService.Submit(c.Request.Context(), &req, CallerID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Attempt submitted", attempt)
}

// GetAttempt retrieves an attempt with its answers
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} SuccessResponse{data=models.TestAttempt}
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), id, CallerID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Attempt retrieved", attempt)
}

// ExportAttempt downloads the results workbook of a finished attempt
// @Summary Export attempt results
// @Tags attempts
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Attempt ID"
// @Router /attempts/{id}/export [get]
func (h *AttemptHandler) ExportAttempt(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}

	data, filename, err := h.exportService.AttemptWorkbook(c.Request.Context(), id, CallerID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ListUserAttempts lists the caller's attempts, newest first
// @Summary List attempts
// @Tags attempts
// @Produce json
// @Param user_id path string true "User ID"
// @Param status query string false "Attempt status"
// @Param test_id query uint false "Test ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} SuccessResponse{data=ListResponse}
// @Router /users/{user_id}/attempts [get]
func (h *AttemptHandler) ListUserAttempts(c *gin.Context) {
	userID, ok := requireSelf(c)
	if !ok {
		return
	}

	filters := parseAttemptFilters(c)
	attempts, total, err := h.attemptService.ListByUser(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Attempts retrieved", ListResponse{
		Items:  attempts,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}

func parseAttemptFilters(c *gin.Context) repositories.AttemptFilters {
	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "size", 20)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	filters := repositories.AttemptFilters{
		TestID:    parseUintQueryPtr(c, "test_id"),
		BatteryID: parseUintQueryPtr(c, "battery_id"),
		Limit:     size,
		Offset:    (page - 1) * size,
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if status := models.AttemptStatus(c.Query("status")); status != "" {
		filters.Status = &status
	}
	return filters
}
