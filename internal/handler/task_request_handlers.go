package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/handler/dto"
	"github.com/mtlprog/bitacora/internal/repository"
	"github.com/mtlprog/bitacora/internal/service"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// handleCreateTaskRequest creates a new task request.
// @Summary Create a task request
// @Description Creates a DRAFT request, or a SUBMITTED one when submit is true. Without category_id the default category is used.
// @Tags task-requests
// @Accept json
// @Produce json
// @Param request body dto.CreateTaskRequestRequest true "Task request creation request"
// @Success 201 {object} dto.TaskRequestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests [post]
func (h *Handler) handleCreateTaskRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateTaskRequestRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	in := service.CreateRequestInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Priority:    domain.Priority(strings.ToUpper(req.Priority)),
		DueDate:     req.DueDate,
		Notes:       req.Notes,
	}

	create := h.requests.CreateDraft
	if req.Submit {
		create = h.requests.CreateAndSubmit
	}

	t, err := create(ctx, user.ID, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewTaskRequestResponse(t, h.now()))
}

// handleGetTaskRequest retrieves a task request.
// @Summary Get a task request
// @Tags task-requests
// @Produce json
// @Param id path string true "Task request ID"
// @Success 200 {object} dto.TaskRequestResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id} [get]
func (h *Handler) handleGetTaskRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}

	t, err := h.requests.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewTaskRequestResponse(t, h.now()))
}

// handleUpdateTaskRequest edits a DRAFT request.
// @Summary Update a draft task request
// @Description Only the requester may update, and only while the request is a DRAFT. Absent fields keep their value.
// @Tags task-requests
// @Accept json
// @Produce json
// @Param id path string true "Task request ID"
// @Param request body dto.UpdateTaskRequestRequest true "Changed fields"
// @Success 200 {object} dto.TaskRequestResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id} [put]
func (h *Handler) handleUpdateTaskRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequestRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	changes := domain.TaskRequestChanges{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		DueDate:     req.DueDate,
		Notes:       req.Notes,
	}
	if req.Priority != nil {
		p := domain.Priority(strings.ToUpper(*req.Priority))
		changes.Priority = &p
	}

	t, err := h.requests.Update(r.Context(), id, user.ID, changes)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewTaskRequestResponse(t, h.now()))
}

// handleDeleteTaskRequest removes a task request.
// @Summary Delete a task request
// @Tags task-requests
// @Param id path string true "Task request ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id} [delete]
func (h *Handler) handleDeleteTaskRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}

	if err := h.requests.Delete(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetHistory lists the status history of a task request.
// @Summary Get task request history
// @Tags task-requests
// @Produce json
// @Param id path string true "Task request ID"
// @Success 200 {array} dto.HistoryResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id}/history [get]
func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}

	history, err := h.history.List(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewHistoryResponses(history))
}

// parseUserFilter reads a user id query parameter. "me" means the caller.
func parseUserFilter(value string, user *domain.User) (*int64, bool) {
	if value == "" {
		return nil, true
	}
	if value == "me" {
		return &user.ID, true
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}

// handleListTaskRequests lists task requests with filtering and pagination.
// @Summary List task requests
// @Tags task-requests
// @Produce json
// @Param status query string false "Comma-separated statuses: SUBMITTED,ASSIGNED"
// @Param priority query string false "Comma-separated priorities: HIGH,CRITICAL"
// @Param category_id query int false "Filter by category"
// @Param requester_id query string false "Filter by requester id, or me"
// @Param assigner_id query string false "Filter by assigner id, or me"
// @Param executor_id query string false "Filter by executor id, or me"
// @Param overdue query bool false "Show only overdue requests"
// @Param sort query string false "Sort fields: -priority,created_at"
// @Param page query int false "Page number, starting at 0"
// @Param size query int false "Page size (1-100, default 20)"
// @Success 200 {object} dto.TaskRequestsListResponse
// @Security BearerAuth
// @Router /task-requests [get]
func (h *Handler) handleListTaskRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filters := repository.TaskRequestListFilters{
		Overdue: query.Get("overdue") == "true",
	}

	if statusParam := query.Get("status"); statusParam != "" {
		filters.Statuses = splitAndTrim(strings.ToUpper(statusParam), ",")
	}
	if priorityParam := query.Get("priority"); priorityParam != "" {
		filters.Priorities = splitAndTrim(strings.ToUpper(priorityParam), ",")
	}
	if sortParam := query.Get("sort"); sortParam != "" {
		filters.Sort = splitAndTrim(sortParam, ",")
	}

	if categoryParam := query.Get("category_id"); categoryParam != "" {
		n, err := strconv.ParseInt(categoryParam, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "category_id must be an integer")
			return
		}
		filters.CategoryID = &n
	}

	for param, target := range map[string]**int64{
		"requester_id": &filters.RequesterID,
		"assigner_id":  &filters.AssignerID,
		"executor_id":  &filters.ExecutorID,
	} {
		id, ok := parseUserFilter(query.Get(param), user)
		if !ok {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", param+" must be an integer or me")
			return
		}
		*target = id
	}

	size := defaultPageSize
	if sizeParam := query.Get("size"); sizeParam != "" {
		if n, err := strconv.Atoi(sizeParam); err == nil && n > 0 && n <= maxPageSize {
			size = n
		}
	}

	page := 0
	if pageParam := query.Get("page"); pageParam != "" {
		if n, err := strconv.Atoi(pageParam); err == nil && n >= 0 {
			page = n
		}
	}

	filters.Limit = size
	filters.Offset = page * size

	results, total, err := h.requests.List(ctx, filters)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	now := h.now()
	items := make([]dto.TaskRequestResponse, len(results))
	for i, t := range results {
		items[i] = dto.NewTaskRequestResponse(t, now)
	}

	respondJSON(w, http.StatusOK, dto.TaskRequestsListResponse{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
	})
}
