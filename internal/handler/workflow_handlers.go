package handler

import (
	"net/http"

	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/handler/dto"
)

// writeTransition responds with the request after a workflow operation.
func (h *Handler) writeTransition(w http.ResponseWriter, t *domain.TaskRequest, err error) {
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewTaskRequestResponse(t, h.now()))
}

// handleSubmit submits a DRAFT request.
// @Summary Submit a task request
// @Tags workflow
// @Produce json
// @Param id path string true "Task request ID"
// @Success 200 {object} dto.TaskRequestResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id}/submit [post]
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}

	t, err := h.workflow.Submit(r.Context(), id, user.ID)
	h.writeTransition(w, t, err)
}

// handleAssign assigns a SUBMITTED request.
// @Summary Assign a task request
// @Tags workflow
// @Produce json
// @Param id path string true "Task request ID"
// @Success 200 {object} dto.TaskRequestResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id}/assign [post]
func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}

	t, err := h.workflow.Assign(r.Context(), id, user.ID)
	h.writeTransition(w, t, err)
}

// handleAssignExecutor sets the executor of an ASSIGNED request.
// @Summary Assign an executor
// @Tags workflow
// @Accept json
// @Produce json
// @Param id path string true "Task request ID"
// @Param request body dto.AssignExecutorRequest true "Executor"
// @Success 200 {object} dto.TaskRequestResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id}/assign-executor [post]
func (h *Handler) handleAssignExecutor(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}

	var req dto.AssignExecutorRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.ExecutorID <= 0 {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "executor_id is required")
		return
	}

	t, err := h.workflow.AssignExecutor(r.Context(), id, user.ID, req.ExecutorID, req.Notes)
	h.writeTransition(w, t, err)
}

// handleStart starts work on an ASSIGNED request.
// @Summary Start a task request
// @Tags workflow
// @Accept json
// @Produce json
// @Param id path string true "Task request ID"
// @Param request body dto.NotesRequest false "Notes"
// @Success 200 {object} dto.TaskRequestResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id}/start [post]
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}

	var req dto.NotesRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	t, err := h.workflow.Start(r.Context(), id, user.ID, req.Notes)
	h.writeTransition(w, t, err)
}

// handleComplete completes an ASSIGNED or IN_PROGRESS request.
// @Summary Complete a task request
// @Tags workflow
// @Accept json
// @Produce json
// @Param id path string true "Task request ID"
// @Param request body dto.NotesRequest false "Notes"
// @Success 200 {object} dto.TaskRequestResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id}/complete [post]
func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}

	var req dto.NotesRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	t, err := h.workflow.Complete(r.Context(), id, user.ID, req.Notes)
	h.writeTransition(w, t, err)
}

// handleCancel cancels a non-terminal request.
// @Summary Cancel a task request
// @Tags workflow
// @Accept json
// @Produce json
// @Param id path string true "Task request ID"
// @Param request body dto.ReasonRequest false "Reason"
// @Success 200 {object} dto.TaskRequestResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id}/cancel [post]
func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	t, err := h.workflow.Cancel(r.Context(), id, user.ID, req.Reason)
	h.writeTransition(w, t, err)
}

// handleReject rejects a SUBMITTED or ASSIGNED request.
// @Summary Reject a task request
// @Tags workflow
// @Accept json
// @Produce json
// @Param id path string true "Task request ID"
// @Param request body dto.ReasonRequest true "Reason"
// @Success 200 {object} dto.TaskRequestResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id}/reject [post]
func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	t, err := h.workflow.Reject(r.Context(), id, user.ID, req.Reason)
	h.writeTransition(w, t, err)
}
