package handler

import (
	"net/http"

	"github.com/mtlprog/bitacora/internal/handler/dto"
	"github.com/mtlprog/bitacora/internal/service"
)

// handleListAttachments lists attachment metadata of a task request.
// @Summary List attachments
// @Tags attachments
// @Produce json
// @Param id path string true "Task request ID"
// @Success 200 {array} dto.AttachmentResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id}/attachments [get]
func (h *Handler) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}

	attachments, err := h.attachments.List(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := make([]dto.AttachmentResponse, len(attachments))
	for i, a := range attachments {
		resp[i] = dto.NewAttachmentResponse(a)
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleAddAttachment registers an attachment stored externally.
// @Summary Add an attachment
// @Tags attachments
// @Accept json
// @Produce json
// @Param id path string true "Task request ID"
// @Param request body dto.CreateAttachmentRequest true "Attachment metadata"
// @Success 201 {object} dto.AttachmentResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id}/attachments [post]
func (h *Handler) handleAddAttachment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}

	var req dto.CreateAttachmentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	a, err := h.attachments.Add(r.Context(), id, user.ID, service.AddAttachmentInput{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		StoragePath: req.StoragePath,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewAttachmentResponse(a))
}

// handleDeleteAttachment removes an attachment. Only the uploader or an ADMIN may.
// @Summary Delete an attachment
// @Tags attachments
// @Param id path string true "Task request ID"
// @Param attachmentId path int true "Attachment ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id}/attachments/{attachmentId} [delete]
func (h *Handler) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}
	attachmentID, ok := extractInt64(w, r, "attachmentId")
	if !ok {
		return
	}

	if err := h.attachments.Delete(r.Context(), id, attachmentID, user); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
