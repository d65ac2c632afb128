package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/campusfix/backend/internal/db"
	"github.com/campusfix/backend/internal/models"
	"github.com/campusfix/backend/internal/service"
)

type Handler struct {
	Store       *db.Store
	Lifecycle   *service.Lifecycle
	Distributor *service.Distributor
	Validator   *validator.Validate
	Logger      zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type CreateTicketRequest struct {
	Category      string   `json:"category" validate:"required"`
	LocationID    string   `json:"location_id" validate:"required"`
	Area          string   `json:"area"`
	ReporterID    string   `json:"reporter_id" validate:"required"`
	Severity      string   `json:"severity"`
	ClosurePolicy string   `json:"closure_policy"`
	Description   string   `json:"description"`
	Evidence      []string `json:"evidence"`
}

// @Summary File a maintenance ticket
// @Tags tickets
// @Accept json
// @Produce json
// @Param request body CreateTicketRequest true "ticket"
// @Success 201 {object} models.Ticket
// @Failure 400 {object} map[string]any
// @Router /api/tickets [post]
func (h *Handler) CreateTicket(c *gin.Context) {
	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	in := service.CreateTicketInput{
		Category:      req.Category,
		LocationID:    req.LocationID,
		Area:          req.Area,
		ReporterID:    req.ReporterID,
		Severity:      models.Severity(strings.ToLower(req.Severity)),
		ClosurePolicy: models.ClosurePolicy(strings.ToLower(req.ClosurePolicy)),
		Description:   req.Description,
		Evidence:      req.Evidence,
	}
	t, err := h.Lifecycle.CreateTicket(c.Request.Context(), in)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) TicketsList(c *gin.Context) {
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	area := c.Query("area")
	q := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Store.ListTickets(c.Request.Context(), status, area, q, limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list tickets", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) TicketDetails(c *gin.Context) {
	t, err := h.Store.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type TransitionRequest struct {
	ActorRole string   `json:"actor_role" validate:"required"`
	ActorID   string   `json:"actor_id" validate:"required"`
	Target    string   `json:"target" validate:"required"`
	Note      string   `json:"note"`
	Proof     []string `json:"proof"`
	WorkNote  string   `json:"work_note"`
	Comment   string   `json:"comment"`
	Rating    int      `json:"rating"`
	Feedback  string   `json:"feedback"`
	OTP       string   `json:"otp"`
}

// @Summary Move a ticket through its lifecycle
// @Tags tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Param request body TransitionRequest true "transition"
// @Success 200 {object} models.Ticket
// @Failure 400 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/tickets/{id}/transition [post]
func (h *Handler) Transition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	role, err := models.ParseRole(req.ActorRole)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	target, err := models.ParseStatus(req.Target)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	t, err := h.Lifecycle.Transition(c.Request.Context(), c.Param("id"),
		service.Actor{Role: role, ID: req.ActorID}, target,
		service.TransitionInput{
			Note:     req.Note,
			Proof:    req.Proof,
			WorkNote: req.WorkNote,
			Comment:  req.Comment,
			Rating:   req.Rating,
			Feedback: req.Feedback,
			OTP:      req.OTP,
		})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type AssignRequest struct {
	ActorID string `json:"actor_id" validate:"required"`
}

// Assign is the approver shortcut for the reported -> assigned transition.
func (h *Handler) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	t, err := h.Lifecycle.Transition(c.Request.Context(), c.Param("id"),
		service.Actor{Role: models.RoleApprover, ID: req.ActorID},
		models.StatusAssigned, service.TransitionInput{})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type SeverityRequest struct {
	ActorID  string `json:"actor_id" validate:"required"`
	Severity string `json:"severity" validate:"required"`
}

func (h *Handler) SetSeverity(c *gin.Context) {
	var req SeverityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	severity, err := models.ParseSeverity(req.Severity)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	t, err := h.Lifecycle.SetSeverity(c.Request.Context(), c.Param("id"),
		service.Actor{Role: models.RoleApprover, ID: req.ActorID}, severity)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) WorkersList(c *gin.Context) {
	skill := c.Query("skill")
	area := c.Query("area")
	items, err := h.Store.ListEligibleWorkers(c.Request.Context(), skill, area)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list workers", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type DistributeRequest struct {
	Date string `json:"date" validate:"required"`
}

// @Summary Distribute the day's recurring cleaning tasks
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body DistributeRequest true "target date"
// @Success 200 {object} service.RunSummary
// @Failure 400 {object} map[string]any
// @Router /api/tasks/distribute [post]
func (h *Handler) DistributeTasks(c *gin.Context) {
	var req DistributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	summary, err := h.Distributor.Run(c.Request.Context(), req.Date)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) TasksList(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "date is required", nil)
		return
	}
	items, err := h.Store.ListTasksForDate(c.Request.Context(), date)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list tasks", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "date": date})
}

type ReassignTaskRequest struct {
	WorkerID string `json:"worker_id" validate:"required"`
}

func (h *Handler) ReassignTask(c *gin.Context) {
	var req ReassignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	task, err := h.Distributor.ReassignTask(c.Request.Context(), c.Param("id"), req.WorkerID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type TaskActionRequest struct {
	WorkerID string   `json:"worker_id" validate:"required"`
	Proof    []string `json:"proof"`
	Notes    string   `json:"notes"`
}

func (h *Handler) StartTask(c *gin.Context) {
	var req TaskActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	task, err := h.Distributor.StartTask(c.Request.Context(), c.Param("id"), req.WorkerID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) CompleteTask(c *gin.Context) {
	var req TaskActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	task, err := h.Distributor.CompleteTask(c.Request.Context(), c.Param("id"), req.WorkerID, req.Proof, req.Notes)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found", err.Error())
	case errors.Is(err, service.ErrValidation):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(c, http.StatusConflict, "INVALID_TRANSITION", "Transition not allowed", err.Error())
	case errors.Is(err, service.ErrNoWorkerAvailable):
		writeError(c, http.StatusConflict, "NO_WORKER_AVAILABLE", "No worker available", err.Error())
	case errors.Is(err, service.ErrConcurrentModification):
		writeError(c, http.StatusConflict, "CONCURRENT_MODIFICATION", "Lost update race, retry", err.Error())
	default:
		h.Logger.Error().Err(err).Msg("internal error")
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error", err.Error())
	}
}

func writeError(c *gin.Context, status int, code, message string, details any) {
	body := gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
	if details != nil {
		body["error"].(gin.H)["details"] = details
	}
	c.AbortWithStatusJSON(status, body)
}
